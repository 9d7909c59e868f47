package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fulfillment/internal/application/replenishment"
	"fulfillment/internal/config"
	kafkainfra "fulfillment/internal/infrastructure/messaging/kafka"
	"fulfillment/internal/infrastructure/persistence/postgres"
	"fulfillment/pkg/logger"
)

// Scans the catalog and publishes a replenishment request for every product
// below its minimum stock. Runs once unless -interval is set.
func main() {
	interval := flag.Duration("interval", 0, "rescan period, 0 scans once")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if !cfg.Kafka.Enabled {
		log.Fatal("KAFKA_ENABLED is false, nothing to publish to")
	}

	appLog, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(cfg.DB)
	if err != nil {
		appLog.Fatal("Postgres connection failed", logger.Error(err))
	}
	defer pool.Close()

	producer, err := kafkainfra.NewEventProducer(cfg.Kafka, appLog)
	if err != nil {
		appLog.Fatal("Kafka producer init failed", logger.Error(err))
	}
	defer producer.Close(context.Background())

	products := postgres.NewTxManager(pool).Store().Products()
	svc := replenishment.NewService(products, producer)

	err = svc.Run(ctx, *interval, func(n int) {
		appLog.Info("Replenishment scan done",
			logger.Int("published", n),
			logger.String("topic", cfg.Kafka.ReplenishmentTopic))
	})
	if err != nil {
		appLog.Error("Replenishment scan failed", logger.Error(err))
		return
	}
}
