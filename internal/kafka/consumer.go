package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RideEventHandler processes one decoded ride notification.
type RideEventHandler func(ctx context.Context, event RideEvent) error

// Consumer reads ride events from a topic as part of a consumer group
// and feeds the decoded payloads to a handler.
type Consumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			MinBytes:          1,
			MaxBytes:          1 << 20,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume blocks reading ride events until ctx is cancelled or the
// reader fails. Malformed payloads and handler errors are logged and
// skipped so one bad notification cannot stall the stream.
func (c *Consumer) Consume(ctx context.Context, handler RideEventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		c.handleMessage(ctx, msg, handler)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg kafka.Message, handler RideEventHandler) {
	var event RideEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Warn("decode ride event",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	if err := handler(ctx, event); err != nil {
		c.logger.Warn("handle ride event",
			zap.String("type", event.Type),
			zap.String("ride_id", event.RideID),
			zap.Error(err))
	}
}
