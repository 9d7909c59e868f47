package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"fulfillment/internal/config"
	"fulfillment/internal/domain/event"
	"fulfillment/internal/infrastructure/encoding/avro"
	"fulfillment/pkg/logger"
)

const contentTypeAvro = "avro/binary"

// EventProducer publishes Avro-encoded order events and replenishment
// requests. Order events are keyed by order id so one order's events stay
// on one partition, in order.
type EventProducer struct {
	client             *kgo.Client
	orderTopic         string
	replenishmentTopic string
	orderCodec         *avro.Encoder
	replenishmentCodec *avro.Encoder
	logger             logger.Logger
}

func NewEventProducer(cfg config.KafkaConfig, log logger.Logger) (*EventProducer, error) {
	log.Info("Connecting Kafka producer",
		logger.Strings("brokers", cfg.Brokers),
		logger.String("order_topic", cfg.OrderEventsTopic),
		logger.String("replenishment_topic", cfg.ReplenishmentTopic))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &EventProducer{
		client:             client,
		orderTopic:         cfg.OrderEventsTopic,
		replenishmentTopic: cfg.ReplenishmentTopic,
		orderCodec:         avro.MustEncoder(avro.OrderEventSchema),
		replenishmentCodec: avro.MustEncoder(avro.ReplenishmentRequestSchema),
		logger:             log,
	}, nil
}

func (p *EventProducer) PublishOrderEvent(ctx context.Context, ev event.OrderEvent) error {
	payload, err := p.orderCodec.EncodeNative(avro.ToOrderEventNative(ev))
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	return p.publish(ctx, p.orderTopic, []byte(ev.OrderID), payload)
}

func (p *EventProducer) PublishReplenishment(ctx context.Context, r event.ReplenishmentRequest) error {
	payload, err := p.replenishmentCodec.EncodeNative(avro.ToReplenishmentNative(r))
	if err != nil {
		return fmt.Errorf("encode replenishment request: %w", err)
	}
	return p.publish(ctx, p.replenishmentTopic, []byte(r.ProductID), payload)
}

func (p *EventProducer) publish(ctx context.Context, topic string, key, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is empty")
	}
	if p.client == nil {
		return fmt.Errorf("kafka producer is not connected")
	}

	rec := &kgo.Record{
		Topic:     topic,
		Key:       key,
		Value:     payload,
		Timestamp: time.Now().UTC(),
		Headers:   []kgo.RecordHeader{{Key: "content-type", Value: []byte(contentTypeAvro)}},
	}

	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.logger.Error("Failed to publish record",
			logger.String("topic", topic),
			logger.Int("payload_size", len(payload)),
			logger.Error(err))
		return fmt.Errorf("publish to kafka topic %s: %w", topic, err)
	}

	p.logger.Debug("Record published", logger.String("topic", topic), logger.String("key", string(key)))
	return nil
}

func (p *EventProducer) Close(ctx context.Context) error {
	p.logger.Info("Closing Kafka producer")
	if p.client == nil {
		return nil
	}
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("Flush before close failed", logger.Error(err))
	}
	p.client.Close()
	return nil
}

// DiscardProducer is used when Kafka is disabled. Events are only logged.
type DiscardProducer struct {
	logger logger.Logger
}

func NewDiscardProducer(log logger.Logger) *DiscardProducer {
	return &DiscardProducer{logger: log}
}

func (p *DiscardProducer) PublishOrderEvent(_ context.Context, ev event.OrderEvent) error {
	p.logger.Debug("Kafka disabled, dropping order event",
		logger.String("type", string(ev.Type)),
		logger.String("order_id", ev.OrderID))
	return nil
}

func (p *DiscardProducer) PublishReplenishment(_ context.Context, r event.ReplenishmentRequest) error {
	p.logger.Debug("Kafka disabled, dropping replenishment request", logger.String("product_id", r.ProductID))
	return nil
}

func (p *DiscardProducer) Close(context.Context) error {
	return nil
}
