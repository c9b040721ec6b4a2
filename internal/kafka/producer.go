package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/mandi-price-service/internal/models"
)

// EventSource identifies events published by this service
const EventSource = "mandi-price-service"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishPricesSynced announces that a sync appended rows for a pair
func (p *Producer) PublishPricesSynced(ctx context.Context, crop, mandi string, rowsSaved int64) error {
	event := models.PriceEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventPricesSynced,
		Source:    EventSource,
		Crop:      crop,
		Mandi:     mandi,
		RowsSaved: rowsSaved,
		Timestamp: time.Now().UTC(),
	}
	return p.publish(ctx, crop+"|"+mandi, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.PriceEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
