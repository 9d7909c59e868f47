package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	cartapp "fulfillment/internal/application/cart"
	catalogapp "fulfillment/internal/application/catalog"
	"fulfillment/internal/application/checkout"
	orderapp "fulfillment/internal/application/order"
	"fulfillment/internal/config"
	"fulfillment/internal/domain/event"
	"fulfillment/internal/domain/repository"
	redisinfra "fulfillment/internal/infrastructure/cache/redis"
	ginserver "fulfillment/internal/infrastructure/http/gin"
	kafkainfra "fulfillment/internal/infrastructure/messaging/kafka"
	"fulfillment/internal/infrastructure/persistence/memory"
	"fulfillment/internal/infrastructure/persistence/postgres"
	"fulfillment/internal/interfaces/http/handler"
	"fulfillment/internal/interfaces/http/router"
	"fulfillment/pkg/logger"
)

type eventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev event.OrderEvent) error
	Close(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	appLog, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Checker{}

	var uow repository.UnitOfWork
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(cfg.DB)
		if err != nil {
			appLog.Fatal("Postgres connection failed", logger.Error(err))
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			appLog.Fatal("Postgres migration failed", logger.Error(err))
		}
		uow = postgres.NewTxManager(pool)
		checks["postgres"] = pool.Ping
	default:
		appLog.Warn("Using in-memory store, data is lost on restart")
		uow = memory.NewStore()
	}

	var publisher eventPublisher = kafkainfra.NewDiscardProducer(appLog)
	if cfg.Kafka.Enabled {
		producer, err := kafkainfra.NewEventProducer(cfg.Kafka, appLog)
		if err != nil {
			appLog.Fatal("Kafka producer init failed", logger.Error(err))
		}
		publisher = producer
	}
	defer publisher.Close(context.Background())

	var idempotency checkout.IdempotencyStore
	if cfg.Redis.URL != "" {
		store, err := redisinfra.NewIdempotencyStore(cfg.Redis.URL, cfg.Redis.IdempotencyTTL)
		if err != nil {
			appLog.Fatal("Redis connection failed", logger.Error(err))
		}
		defer store.Close()
		idempotency = store
		checks["redis"] = store.Ping
	}

	orderService := orderapp.NewService(uow, publisher, appLog)
	checkoutService := checkout.NewService(uow, publisher, idempotency, appLog)
	cartService := cartapp.NewService(uow, appLog)
	catalogService := catalogapp.NewService(uow, appLog)

	engine := ginserver.NewEngine(cfg.App.Env)
	router.RegisterRoutes(engine, appLog, router.Handlers{
		Orders:   handler.NewOrderHandler(orderService, checkoutService),
		Carts:    handler.NewCartHandler(cartService),
		Products: handler.NewProductHandler(catalogService),
		Health:   handler.NewHealthHandler(checks),
	})
	server := ginserver.NewServer(cfg.Server, engine, appLog)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if cfg.Kafka.Enabled {
		consumer := kafkainfra.NewRestockConsumer(cfg.Kafka, catalogService, appLog)
		defer consumer.Close()
		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	appLog.Info("Fulfillment service started",
		logger.String("app", cfg.App.Name),
		logger.String("env", cfg.App.Env),
		logger.String("store", cfg.Store.Driver),
		logger.Bool("kafka", cfg.Kafka.Enabled))

	if err := g.Wait(); err != nil {
		appLog.Error("Service stopped with error", logger.Error(err))
		return
	}
	appLog.Info("Service stopped")
}
