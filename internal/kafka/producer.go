package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// RideEvent is the wire form of every ride lifecycle notification.
type RideEvent struct {
	Type          string `json:"type"`
	RideID        string `json:"ride_id"`
	EmployeeID    string `json:"employee_id"`
	VehicleKind   string `json:"vehicle_kind"`
	ServiceDate   string `json:"service_date"`
	DepartureTime string `json:"departure_time"`
	SeatsLeft     int    `json:"seats_left"`
}

const (
	EventRidePublished    = "ride_published"
	EventSeatReserved     = "seat_reserved"
	EventBookingCancelled = "booking_cancelled"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
