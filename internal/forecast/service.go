package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/metrics"
	"github.com/trogers1052/mandi-price-service/internal/models"
	"github.com/trogers1052/mandi-price-service/internal/trainer"
	"github.com/trogers1052/mandi-price-service/internal/weather"
)

// Reason describes how forecasts are produced
const Reason = "Random forest estimate blended with demand-supply drift and weather simulation; " +
	"auxiliary estimates are jittered views of the settled price"

// HistoryStore reads stored price history for a pair
type HistoryStore interface {
	GetPriceHistory(ctx context.Context, crop, mandi string) ([]models.PriceRecord, error)
}

// SnapshotProvider hands out training snapshots
type SnapshotProvider interface {
	Get(ctx context.Context) (*trainer.TrainingSnapshot, error)
	Invalidate()
}

// WeatherSource supplies current conditions for a city
type WeatherSource interface {
	Current(ctx context.Context, city string) (*weather.Conditions, error)
}

// Service answers forecast requests
type Service struct {
	store      HistoryStore
	snapshots  SnapshotProvider
	weather    WeatherSource
	forecaster *Forecaster
	metrics    *metrics.Recorder
	now        func() time.Time
}

// NewService creates a forecast service. weather may be nil.
func NewService(store HistoryStore, snapshots SnapshotProvider, w WeatherSource, f *Forecaster, m *metrics.Recorder) *Service {
	return &Service{
		store:      store,
		snapshots:  snapshots,
		weather:    w,
		forecaster: f,
		metrics:    m,
		now:        time.Now,
	}
}

// Predict forecasts days entries for crop at mandi
func (s *Service) Predict(ctx context.Context, crop, mandi string, days int) (*models.ForecastResponse, error) {
	start := time.Now()
	resp, err := s.predict(ctx, crop, mandi, days)
	s.metrics.RecordLatency("forecast", time.Since(start))
	s.metrics.RecordForecast(statusOf(err))
	if err != nil {
		return nil, err
	}
	if len(resp.Forecast) > 0 {
		s.metrics.RecordForecastPrice(crop, mandi, resp.Forecast[0].FinalPrice)
	}
	return resp, nil
}

func (s *Service) predict(ctx context.Context, crop, mandi string, days int) (*models.ForecastResponse, error) {
	if err := s.forecaster.checkHorizon(days); err != nil {
		return nil, err
	}

	history, err := s.store.GetPriceHistory(ctx, crop, mandi)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(history) < MinHistoryRows {
		return nil, fmt.Errorf("%s at %s has %d rows: %w", crop, mandi, len(history), ErrInsufficientHistory)
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	seed := s.weatherSeed(ctx, mandi)
	now := s.now()

	out, err := s.forecaster.Forecast(snap, history, crop, mandi, days, now, seed)
	if errors.Is(err, trainer.ErrUnknownCategory) {
		// the pair arrived after the snapshot was trained
		log.Info().Str("crop", crop).Str("mandi", mandi).Msg("Snapshot predates pair, retraining")
		s.snapshots.Invalidate()
		if snap, err = s.snapshot(ctx); err != nil {
			return nil, err
		}
		out, err = s.forecaster.Forecast(snap, history, crop, mandi, days, now, seed)
	}
	if err != nil {
		if errors.Is(err, trainer.ErrUnknownCategory) {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
		return nil, err
	}

	return &models.ForecastResponse{
		ID:        uuid.NewString(),
		Crop:      crop,
		Mandi:     mandi,
		Forecast:  out,
		Reason:    Reason,
		TrainedAt: snap.TrainedAt,
	}, nil
}

func (s *Service) snapshot(ctx context.Context) (*trainer.TrainingSnapshot, error) {
	snap, err := s.snapshots.Get(ctx)
	if err == nil {
		return snap, nil
	}
	if errors.Is(err, trainer.ErrInsufficientData) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
}

func (s *Service) weatherSeed(ctx context.Context, mandi string) *WeatherSeed {
	if s.weather == nil {
		return nil
	}
	cond, err := s.weather.Current(ctx, mandi)
	if err != nil {
		if !errors.Is(err, weather.ErrDisabled) {
			log.Debug().Err(err).Str("mandi", mandi).Msg("Current weather unavailable, seeding from history")
		}
		return nil
	}
	return &WeatherSeed{Temp: cond.Temp, Humidity: cond.Humidity}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, trainer.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, ErrInvalidHorizon):
		return "invalid"
	default:
		return "error"
	}
}
