// Package pricesync pulls fresh mandi prices from the government provider
// into the price history store.
package pricesync

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/agmarknet"
	"github.com/trogers1052/mandi-price-service/internal/config"
	"github.com/trogers1052/mandi-price-service/internal/metrics"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

// Fetcher reads raw provider records
type Fetcher interface {
	Fetch(ctx context.Context, q agmarknet.Query) ([]agmarknet.Record, error)
}

// Store appends price records, ignoring rows whose (date, crop, mandi) already exists
type Store interface {
	AppendPriceRecords(ctx context.Context, records []models.PriceRecord) (int64, error)
}

// LastSyncStore persists last successful sync times by scope key
type LastSyncStore interface {
	GetLastSync(ctx context.Context, scope string) (*time.Time, error)
	SetLastSync(ctx context.Context, scope string, t time.Time) error
}

// Invalidator is notified when new rows land in the store
type Invalidator interface {
	Invalidate()
}

// Publisher announces successful syncs
type Publisher interface {
	PublishPricesSynced(ctx context.Context, crop, mandi string, rowsSaved int64) error
}

// Syncer runs interval-gated syncs. Concurrent calls may both pass the
// staleness check; the store's dedup makes the duplicate fetch harmless.
type Syncer struct {
	fetcher     Fetcher
	store       Store
	lastSync    LastSyncStore
	interval    time.Duration
	scope       string
	limit       int
	invalidator Invalidator
	publisher   Publisher
	metrics     *metrics.Recorder
	now         func() time.Time
}

// New creates a syncer
func New(f Fetcher, store Store, lastSync LastSyncStore, cfg config.SyncConfig, limit int, m *metrics.Recorder) *Syncer {
	return &Syncer{
		fetcher:  f,
		store:    store,
		lastSync: lastSync,
		interval: cfg.Interval,
		scope:    cfg.Scope,
		limit:    limit,
		metrics:  m,
		now:      time.Now,
	}
}

// WithInvalidator registers a hook run after rows are appended
func (s *Syncer) WithInvalidator(i Invalidator) *Syncer {
	s.invalidator = i
	return s
}

// WithPublisher registers an event publisher for successful syncs
func (s *Syncer) WithPublisher(p Publisher) *Syncer {
	s.publisher = p
	return s
}

// ScopeKey returns the last-sync key a pair is gated on
func (s *Syncer) ScopeKey(crop, mandi string) string {
	if s.scope == config.SyncScopePair {
		return "pair:" + crop + "|" + mandi
	}
	return config.SyncScopeGlobal
}

// Sync refreshes crop at mandi unless the scope synced within the interval.
// Failures are reported in the result; the store is untouched on error.
func (s *Syncer) Sync(ctx context.Context, crop, mandi string) models.SyncResult {
	res := s.sync(ctx, crop, mandi)
	s.metrics.RecordSync(res.Status, res.RowsSaved)
	return res
}

func (s *Syncer) sync(ctx context.Context, crop, mandi string) models.SyncResult {
	res := models.SyncResult{Crop: crop, Mandi: mandi}
	key := s.ScopeKey(crop, mandi)
	now := s.now()

	last, err := s.lastSync.GetLastSync(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("scope", key).Msg("Last sync unavailable, syncing anyway")
	}
	if last != nil && now.Sub(*last) < s.interval {
		res.Status = models.SyncStatusCached
		res.Message = "Using cached mandi data"
		res.LastSync = last
		return res
	}

	raw, err := s.fetcher.Fetch(ctx, agmarknet.Query{Commodity: crop, Market: mandi, Limit: s.limit})
	if err != nil {
		log.Error().Err(err).Str("crop", crop).Str("mandi", mandi).Msg("Sync fetch failed")
		s.metrics.RecordError("sync_fetch")
		res.Status = models.SyncStatusError
		res.Message = err.Error()
		return res
	}

	records := agmarknet.Normalize(raw)
	res.Fetched = len(records)
	if len(records) == 0 {
		res.Status = models.SyncStatusEmpty
		res.Message = "No new data from govt API"
		return res
	}

	saved, err := s.store.AppendPriceRecords(ctx, records)
	if err != nil {
		log.Error().Err(err).Str("crop", crop).Str("mandi", mandi).Msg("Sync append failed")
		s.metrics.RecordError("sync_store")
		res.Status = models.SyncStatusError
		res.Message = err.Error()
		return res
	}

	if err := s.lastSync.SetLastSync(ctx, key, now); err != nil {
		log.Warn().Err(err).Str("scope", key).Msg("Failed to record last sync")
	}

	if saved > 0 {
		if s.invalidator != nil {
			s.invalidator.Invalidate()
		}
		if s.publisher != nil {
			if err := s.publisher.PublishPricesSynced(ctx, crop, mandi, saved); err != nil {
				log.Warn().Err(err).Msg("Failed to publish sync event")
			}
		}
	}

	log.Info().
		Str("crop", crop).
		Str("mandi", mandi).
		Int("fetched", len(records)).
		Int64("rows_saved", saved).
		Msg("Live mandi data synced")

	res.Status = models.SyncStatusSuccess
	res.Message = "Live mandi data synced"
	res.RowsSaved = saved
	res.SyncedAt = &now
	return res
}
