package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/mandi-price-service/internal/metrics"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

// PriceRepository appends price records with (date, crop, mandi) dedup
type PriceRepository interface {
	AppendPriceRecords(ctx context.Context, records []models.PriceRecord) (int64, error)
}

// Invalidator drops derived state when the price history changes
type Invalidator interface {
	Invalidate()
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer ingests price record batches published by other services and
// invalidates the model snapshot whenever any replica reports a sync.
// Redelivered batches are harmless because the store skips existing rows.
type Consumer struct {
	reader      messageReader
	repo        PriceRepository
	invalidator Invalidator
	metrics     *metrics.Recorder
}

// NewConsumer creates a new Kafka consumer for price events
func NewConsumer(brokers []string, topic, groupID string, repo PriceRepository, inv Invalidator, m *metrics.Recorder) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:      reader,
		repo:        repo,
		invalidator: inv,
		metrics:     m,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().Str("topic", c.reader.Config().Topic).Msg("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Kafka consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Info().Msg("Kafka consumer shutting down...")
					return c.reader.Close()
				}
				log.Error().Err(err).Msg("Error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Error().Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error processing message")
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.PriceEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.metrics.RecordEvent("unknown", "malformed")
		return fmt.Errorf("failed to unmarshal price event: %w", err)
	}

	switch event.EventType {
	case models.EventPriceRecords:
		return c.ingest(ctx, event)
	case models.EventPricesSynced:
		c.invalidator.Invalidate()
		c.metrics.RecordEvent(event.EventType, "ok")
		log.Debug().
			Str("source", event.Source).
			Str("crop", event.Crop).
			Str("mandi", event.Mandi).
			Int64("rows_saved", event.RowsSaved).
			Msg("Prices synced elsewhere, snapshot invalidated")
		return nil
	default:
		c.metrics.RecordEvent(event.EventType, "ignored")
		log.Debug().Str("event_type", event.EventType).Msg("Ignoring event type")
		return nil
	}
}

func (c *Consumer) ingest(ctx context.Context, event models.PriceEvent) error {
	records := make([]models.PriceRecord, 0, len(event.Records))
	for i, r := range event.Records {
		if err := validateRecord(r); err != nil {
			c.metrics.RecordEvent(event.EventType, "rejected")
			return fmt.Errorf("event %s record %d: %w", event.EventID, i, err)
		}
		r.Date = models.Truncate(r.Date)
		records = append(records, r)
	}
	if len(records) == 0 {
		c.metrics.RecordEvent(event.EventType, "empty")
		return nil
	}

	saved, err := c.repo.AppendPriceRecords(ctx, records)
	if err != nil {
		c.metrics.RecordEvent(event.EventType, "error")
		return fmt.Errorf("failed to save price records: %w", err)
	}
	if saved > 0 {
		c.invalidator.Invalidate()
	}

	c.metrics.RecordEvent(event.EventType, "ok")
	log.Info().
		Str("event_id", event.EventID).
		Str("source", event.Source).
		Int("received", len(records)).
		Int64("rows_saved", saved).
		Msg("Ingested price records")
	return nil
}

func validateRecord(r models.PriceRecord) error {
	switch {
	case r.Date.IsZero():
		return fmt.Errorf("missing date")
	case r.Crop == "" || r.Mandi == "":
		return fmt.Errorf("missing crop or mandi")
	case r.ModalPrice.IsNegative() || r.Arrivals.IsNegative():
		return fmt.Errorf("negative price or arrivals")
	case (r.Rain != 0 && r.Rain != 1) || (r.Festival != 0 && r.Festival != 1):
		return fmt.Errorf("rain and festival must be 0 or 1")
	}
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
