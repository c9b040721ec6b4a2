package trainer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/metrics"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

// RecordSource supplies the full price history for training
type RecordSource interface {
	GetAllPriceRecords(ctx context.Context) ([]models.PriceRecord, error)
}

// Cache holds the current training snapshot. Readers share it; a retrain
// holds the write lock so Invalidate never races a snapshot built from
// stale records. With caching disabled every Get trains afresh.
type Cache struct {
	source  RecordSource
	trainer *Trainer
	enabled bool
	metrics *metrics.Recorder

	mu       sync.RWMutex
	snapshot *TrainingSnapshot
}

// NewCache creates a snapshot cache
func NewCache(source RecordSource, trainer *Trainer, enabled bool, m *metrics.Recorder) *Cache {
	return &Cache{
		source:  source,
		trainer: trainer,
		enabled: enabled,
		metrics: m,
	}
}

// Get returns the cached snapshot, training one if none is held
func (c *Cache) Get(ctx context.Context) (*TrainingSnapshot, error) {
	if !c.enabled {
		return c.train(ctx)
	}

	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot != nil {
		return c.snapshot, nil
	}

	snap, err := c.train(ctx)
	if err != nil {
		return nil, err
	}
	c.snapshot = snap
	return snap, nil
}

// Invalidate drops the cached snapshot
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
	log.Debug().Msg("Training snapshot invalidated")
}

// Retrain discards the cached snapshot and trains a new one
func (c *Cache) Retrain(ctx context.Context) (*TrainingSnapshot, error) {
	c.Invalidate()
	return c.Get(ctx)
}

func (c *Cache) train(ctx context.Context) (*TrainingSnapshot, error) {
	records, err := c.source.GetAllPriceRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}

	start := time.Now()
	snap, err := c.trainer.Train(records)
	if err != nil {
		return nil, err
	}
	took := time.Since(start)
	c.metrics.RecordTraining(snap.Rows, snap.Score, took)

	log.Info().
		Int("rows", snap.Rows).
		Int("crops", snap.Encoding.NumCrops()).
		Int("mandis", snap.Encoding.NumMandis()).
		Float64("mae", snap.Score).
		Dur("took", took).
		Msg("Model trained")

	return snap, nil
}
