package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"fulfillment/internal/config"
	"fulfillment/internal/domain/catalog"
	"fulfillment/internal/domain/event"
	"fulfillment/pkg/logger"
)

type Restocker interface {
	Restock(ctx context.Context, productID string, quantity int) (*catalog.Product, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// RestockConsumer applies goods-received events to the catalog. Malformed
// messages and unknown products are logged and committed; storage failures
// stop the consumer without committing so the message is redelivered.
type RestockConsumer struct {
	reader  messageReader
	handler Restocker
	logger  logger.Logger
}

func NewRestockConsumer(cfg config.KafkaConfig, handler Restocker, log logger.Logger) *RestockConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.RestockTopic,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})

	return &RestockConsumer{
		reader:  reader,
		handler: handler,
		logger:  log,
	}
}

func (c *RestockConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handleMessage(ctx, msg); err != nil {
			// Left uncommitted; it is redelivered after restart.
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("handle restock: %w", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *RestockConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var ev event.Restock
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.logger.Warn("Skipping undecodable restock message",
			logger.Int64("offset", msg.Offset),
			logger.Error(err))
		return nil
	}

	p, err := c.handler.Restock(ctx, ev.ProductID, ev.Quantity)
	switch {
	case errors.Is(err, catalog.ErrUnknownProduct), errors.Is(err, catalog.ErrInvalidQuantity):
		c.logger.Warn("Skipping invalid restock message",
			logger.String("product_id", ev.ProductID),
			logger.Int("quantity", ev.Quantity),
			logger.Error(err))
		return nil
	case err != nil:
		return err
	}

	c.logger.Info("Product restocked",
		logger.String("product_id", p.ID),
		logger.Int("stock", p.Stock))
	return nil
}

func (c *RestockConsumer) Close() {
	_ = c.reader.Close()
}
