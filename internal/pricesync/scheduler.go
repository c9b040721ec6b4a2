package pricesync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/config"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

// Pair is a crop traded at a mandi
type Pair struct {
	Crop  string
	Mandi string
}

// Scheduler syncs a watch list of pairs on a cron schedule
type Scheduler struct {
	syncer   *Syncer
	schedule string
	pairs    []Pair
	cron     *cron.Cron

	mu         sync.Mutex
	isRunning  bool
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewScheduler creates a scheduler for the configured watch list
func NewScheduler(s *Syncer, cfg config.SyncConfig) *Scheduler {
	pairs := make([]Pair, 0, len(cfg.Watch))
	for _, w := range cfg.Watch {
		if crop, mandi, ok := config.SplitPair(w); ok {
			pairs = append(pairs, Pair{Crop: crop, Mandi: mandi})
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		syncer:     s,
		schedule:   cfg.Schedule,
		pairs:      pairs,
		cron:       cron.New(),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start schedules the watch list. With no pairs it does nothing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.pairs) == 0 {
		log.Info().Msg("No sync watch list configured, scheduler idle")
		return nil
	}
	if s.syncer.scope == config.SyncScopeGlobal && len(s.pairs) > 1 {
		log.Warn().
			Int("pairs", len(s.pairs)).
			Msg("Global sync scope lets only the first watched pair sync per interval")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		jobCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
		defer cancel()
		s.RunOnce(jobCtx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sync '%s': %w", s.schedule, err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Info().Str("schedule", s.schedule).Int("pairs", len(s.pairs)).Msg("Sync scheduler started")
	return nil
}

// Stop cancels in-flight syncs and waits for the running job to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cancelFunc()
	<-s.cron.Stop().Done()
	s.isRunning = false
	log.Info().Msg("Sync scheduler stopped")
}

// RunOnce syncs every watched pair in order
func (s *Scheduler) RunOnce(ctx context.Context) []models.SyncResult {
	results := make([]models.SyncResult, 0, len(s.pairs))
	for _, p := range s.pairs {
		if ctx.Err() != nil {
			break
		}
		res := s.syncer.Sync(ctx, p.Crop, p.Mandi)
		log.Debug().
			Str("crop", p.Crop).
			Str("mandi", p.Mandi).
			Str("status", res.Status).
			Msg("Scheduled sync finished")
		results = append(results, res)
	}
	return results
}

// Pairs returns the watch list
func (s *Scheduler) Pairs() []Pair {
	return s.pairs
}
