package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/mandi-price-service/internal/config"
	"github.com/trogers1052/mandi-price-service/internal/models"
	"github.com/trogers1052/mandi-price-service/internal/trainer"
)

// midSource returns the midpoint of every uniform band and a fixed index
type midSource struct {
	index int
}

func (s midSource) Uniform(lo, hi float64) float64 { return (lo + hi) / 2 }
func (s midSource) IntN(n int) int                 { return s.index % n }

// constModel predicts a fixed price and records its inputs
type constModel struct {
	price  float64
	inputs [][]float64
}

func (m *constModel) Predict(x []float64) float64 {
	m.inputs = append(m.inputs, append([]float64(nil), x...))
	return m.price
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func onionPune() []models.PriceRecord {
	prices := []int64{1800, 1900, 2100, 2050, 2200, 2150}
	out := make([]models.PriceRecord, len(prices))
	for i, p := range prices {
		out[i] = models.PriceRecord{
			Date:       day(2026, 1, 10+i),
			Crop:       "Onion",
			Mandi:      "Pune",
			ModalPrice: decimal.NewFromInt(p),
			Arrivals:   decimal.NewFromInt(100),
			Temp:       25,
			Humidity:   60,
		}
	}
	return out
}

func stubSnapshot(history []models.PriceRecord, m trainer.Regressor) *trainer.TrainingSnapshot {
	return &trainer.TrainingSnapshot{
		Model:     m,
		Encoding:  trainer.NewEncoding(history),
		TrainedAt: day(2026, 1, 15),
	}
}

func TestForecastFixedSequence(t *testing.T) {
	history := onionPune()
	model := &constModel{price: 2000}
	f := NewForecaster(midSource{})

	out, err := f.Forecast(stubSnapshot(history, model), history, "Onion", "Pune", 3, day(2026, 1, 15), nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// demand 1.015, no rain, temp stays 25
	want := []float64{2102, 2073.2, 2055.92}
	for i, w := range want {
		assert.InDelta(t, w, out[i].FinalPrice, 0.001)
	}

	assert.InDelta(t, 1891.8, out[0].LowerBound, 0.001)
	assert.InDelta(t, 2312.2, out[0].UpperBound, 0.001)
	require.Len(t, out[0].AuxiliaryEstimates, 2)
	assert.InDelta(t, 2080.98, out[0].AuxiliaryEstimates[0], 0.001)
	assert.InDelta(t, 2133.53, out[0].AuxiliaryEstimates[1], 0.001)

	require.Len(t, model.inputs, 3)
	assert.InDelta(t, 98.5, model.inputs[0][0], 1e-9, "arrivals decay 1.5% per day")
	assert.InDelta(t, 97.0, model.inputs[1][0], 1e-9)
	assert.Equal(t, 25.0, model.inputs[0][1])
	assert.Equal(t, 0.0, model.inputs[0][2])
	assert.Equal(t, 60.0, model.inputs[0][3])
	assert.Equal(t, []float64{0, 0}, model.inputs[0][5:])
}

func TestForecastArrivalsFloor(t *testing.T) {
	history := onionPune()
	model := &constModel{price: 2000}

	_, err := NewForecaster(midSource{}).Forecast(stubSnapshot(history, model), history, "Onion", "Pune", 12, day(2026, 1, 15), nil)
	require.NoError(t, err)
	assert.InDelta(t, 91.0, model.inputs[5][0], 1e-9)
	assert.InDelta(t, 90.0, model.inputs[6][0], 1e-9)
	assert.InDelta(t, 90.0, model.inputs[11][0], 1e-9)
}

func TestForecastWeatherPenalty(t *testing.T) {
	history := onionPune()

	t.Run("rain", func(t *testing.T) {
		out, err := NewForecaster(midSource{index: 3}).Forecast(
			stubSnapshot(history, &constModel{price: 2000}), history, "Onion", "Pune", 1, day(2026, 1, 15), nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.6*2150+0.4*2000*1.015*0.95, out[0].FinalPrice, 0.006)
	})

	t.Run("heat and rain", func(t *testing.T) {
		model := &constModel{price: 2000}
		out, err := NewForecaster(midSource{index: 3}).Forecast(
			stubSnapshot(history, model), history, "Onion", "Pune", 1, day(2026, 1, 15), &WeatherSeed{Temp: 38, Humidity: 95})
		require.NoError(t, err)
		assert.InDelta(t, 0.6*2150+0.4*2000*1.015*0.91, out[0].FinalPrice, 0.006)
		assert.Equal(t, 38.0, model.inputs[0][1])
		assert.Equal(t, 1.0, model.inputs[0][2])
		assert.Equal(t, 90.0, model.inputs[0][3], "humidity is clamped")
	})
}

func TestForecastFestivalDay(t *testing.T) {
	history := onionPune()
	model := &constModel{price: 2000}

	_, err := NewForecaster(midSource{}).Forecast(stubSnapshot(history, model), history, "Onion", "Pune", 3, day(2026, 1, 24), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, model.inputs[0][4])
	assert.Equal(t, 1.0, model.inputs[1][4], "2026-01-26")
	assert.Equal(t, 0.0, model.inputs[2][4])
}

func TestForecastHorizon(t *testing.T) {
	history := onionPune()
	snap := stubSnapshot(history, &constModel{price: 2150})
	f := NewForecaster(NewRandomSource())

	tests := []struct {
		name      string
		now       time.Time
		firstDate time.Time
	}{
		{"today after last observation", day(2026, 2, 1), day(2026, 2, 2)},
		{"today equals last observation", time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC), day(2026, 1, 16)},
		{"last observation in the future", day(2026, 1, 12), day(2026, 1, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, n := range []int{1, 7, 30} {
				out, err := f.Forecast(snap, history, "Onion", "Pune", n, tt.now, nil)
				require.NoError(t, err)
				require.Len(t, out, n)

				assert.True(t, out[0].Date.Equal(tt.firstDate))
				for i := 1; i < n; i++ {
					assert.True(t, out[i].Date.Equal(out[i-1].Date.AddDate(0, 0, 1)))
				}
				for _, d := range out {
					assert.True(t, d.Date.After(models.Truncate(tt.now)))
				}
			}
		})
	}
}

func TestForecastBounds(t *testing.T) {
	history := onionPune()
	snap := stubSnapshot(history, &constModel{price: 2150})

	out, err := NewForecaster(NewSeededSource(7)).Forecast(snap, history, "Onion", "Pune", 90, day(2026, 1, 15), nil)
	require.NoError(t, err)

	for _, d := range out {
		assert.LessOrEqual(t, d.LowerBound, d.FinalPrice)
		assert.LessOrEqual(t, d.FinalPrice, d.UpperBound)
		assert.InDelta(t, 1.1/0.9, d.UpperBound/d.LowerBound, 1e-4)
	}
}

func TestForecastOnionPuneTrained(t *testing.T) {
	history := onionPune()

	records := append([]models.PriceRecord(nil), history...)
	for i := 0; i < 30; i++ {
		records = append(records, models.PriceRecord{
			Date:       day(2025, 12, 1).AddDate(0, 0, i),
			Crop:       "Onion",
			Mandi:      "Nashik",
			ModalPrice: decimal.NewFromInt(int64(1900 + i*10)),
			Arrivals:   decimal.NewFromInt(int64(90 + i)),
			Temp:       24,
			Humidity:   55,
		})
	}

	snap, err := trainer.New(config.ModelConfig{Trees: 20, MaxDepth: 8, Seed: 42, TestFraction: 0.2}).Train(records)
	require.NoError(t, err)

	out, err := NewForecaster(NewRandomSource()).Forecast(snap, records, "Onion", "Pune", 3, day(2026, 1, 15), nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	for i, d := range out {
		assert.Equal(t, day(2026, 1, 16+i).Format(models.DateLayout), d.Date.Format(models.DateLayout))
		assert.GreaterOrEqual(t, d.FinalPrice, 1800.0)
		assert.LessOrEqual(t, d.FinalPrice, 2600.0)
	}
}

func TestForecastRefusals(t *testing.T) {
	history := onionPune()
	f := NewForecaster(midSource{})
	now := day(2026, 1, 15)

	t.Run("four rows", func(t *testing.T) {
		short := history[:4]
		out, err := f.Forecast(stubSnapshot(history, &constModel{price: 1}), short, "Onion", "Pune", 3, now, nil)
		assert.ErrorIs(t, err, ErrInsufficientHistory)
		assert.Nil(t, out)
	})

	t.Run("five rows is enough", func(t *testing.T) {
		_, err := f.Forecast(stubSnapshot(history, &constModel{price: 1}), history[:5], "Onion", "Pune", 3, now, nil)
		assert.NoError(t, err)
	})

	t.Run("other pairs do not count", func(t *testing.T) {
		_, err := f.Forecast(stubSnapshot(history, &constModel{price: 1}), history, "Onion", "pune", 3, now, nil)
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("no model", func(t *testing.T) {
		_, err := f.Forecast(nil, history, "Onion", "Pune", 3, now, nil)
		assert.ErrorIs(t, err, ErrModelUnavailable)

		_, err = f.Forecast(&trainer.TrainingSnapshot{}, history, "Onion", "Pune", 3, now, nil)
		assert.ErrorIs(t, err, ErrModelUnavailable)
	})

	t.Run("pair missing from encoding", func(t *testing.T) {
		snap := stubSnapshot(history[:1], &constModel{price: 1})
		snap.Encoding = trainer.NewEncoding([]models.PriceRecord{{Crop: "Tomato", Mandi: "Pune"}})
		_, err := f.Forecast(snap, history, "Onion", "Pune", 3, now, nil)
		assert.ErrorIs(t, err, trainer.ErrUnknownCategory)
	})

	t.Run("horizon", func(t *testing.T) {
		snap := stubSnapshot(history, &constModel{price: 1})
		for _, d := range []int{0, -1, DefaultMaxHorizonDays + 1} {
			_, err := f.Forecast(snap, history, "Onion", "Pune", d, now, nil)
			assert.ErrorIs(t, err, ErrInvalidHorizon)
		}
	})
}

func TestForecastConfiguredHorizon(t *testing.T) {
	history := onionPune()
	snap := stubSnapshot(history, &constModel{price: 2000})
	now := day(2026, 1, 15)

	f := NewForecaster(midSource{}).WithMaxHorizon(120)
	assert.Equal(t, 120, f.MaxHorizon())

	out, err := f.Forecast(snap, history, "Onion", "Pune", 120, now, nil)
	require.NoError(t, err)
	assert.Len(t, out, 120)

	_, err = f.Forecast(snap, history, "Onion", "Pune", 121, now, nil)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
	assert.Contains(t, err.Error(), "between 1 and 120")

	assert.Equal(t, DefaultMaxHorizonDays, NewForecaster(midSource{}).WithMaxHorizon(0).MaxHorizon())
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2055.92, round2(2055.9200000000001))
	assert.Equal(t, 10.13, round2(10.125))
	assert.False(t, math.IsNaN(round2(0)))
}
