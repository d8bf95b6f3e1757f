package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fashionshop/order-service/internal/config"
	"github.com/fashionshop/order-service/internal/entities"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher emits order lifecycle events, keyed by order id so consumers
// see each order's events in order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaPublisher(logger *slog.Logger, cfg config.Kafka) *KafkaPublisher {
	return &KafkaPublisher{
		logger: logger.With(slog.String("publisher", "kafka")),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           cfg.BatchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish is best-effort from the caller's point of view: the order is already
// committed, so failures are surfaced for logging, never to the client.
// The writer retries internally.
func (p *KafkaPublisher) Publish(ctx context.Context, event entities.OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	p.logger.Debug("event published",
		slog.String("type", event.Type), slog.String("order_id", event.OrderID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
