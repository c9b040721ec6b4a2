// Package forecast simulates multi-day mandi price forecasts from a trained
// price model and the latest observed market state.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/mandi-price-service/internal/features"
	"github.com/trogers1052/mandi-price-service/internal/models"
	"github.com/trogers1052/mandi-price-service/internal/trainer"
)

// MinHistoryRows is the least history a pair needs before it is forecast
const MinHistoryRows = 5

// DefaultMaxHorizonDays caps a forecast request unless WithMaxHorizon says otherwise
const DefaultMaxHorizonDays = 90

var (
	ErrInsufficientHistory = errors.New("not enough history for this crop and mandi")
	ErrModelUnavailable    = errors.New("price model unavailable")
	ErrInvalidHorizon      = errors.New("invalid forecast horizon")
)

// Simulation constants
const (
	demandLow  = 0.97
	demandHigh = 1.06

	arrivalDecay = 0.015
	arrivalFloor = 0.9

	tempJitter     = 2.0
	humidityJitter = 6.0
	humidityMin    = 30.0
	humidityMax    = 90.0

	rainPenalty   = 0.05
	heatPenalty   = 0.04
	heatThreshold = 35.0

	carryWeight = 0.6

	lowerBand = 0.9
	upperBand = 1.1
)

// rainDraws gives rain on one day in four
var rainDraws = [...]int{0, 0, 0, 1}

// auxiliaryBands are the multiplicative jitter ranges of the auxiliary estimates
var auxiliaryBands = [...][2]float64{
	{0.96, 1.02},
	{0.98, 1.05},
}

// WeatherSeed overrides the starting temperature and humidity of a simulation
type WeatherSeed struct {
	Temp     float64
	Humidity float64
}

// Forecaster runs the day-by-day price simulation
type Forecaster struct {
	rng     RandomSource
	maxDays int
}

// NewForecaster creates a forecaster drawing from rng
func NewForecaster(rng RandomSource) *Forecaster {
	if rng == nil {
		rng = NewRandomSource()
	}
	return &Forecaster{rng: rng, maxDays: DefaultMaxHorizonDays}
}

// WithMaxHorizon sets the longest horizon accepted. Values below 1 are ignored.
func (f *Forecaster) WithMaxHorizon(days int) *Forecaster {
	if days >= 1 {
		f.maxDays = days
	}
	return f
}

// MaxHorizon returns the longest horizon accepted
func (f *Forecaster) MaxHorizon() int {
	return f.maxDays
}

func (f *Forecaster) checkHorizon(days int) error {
	if days < 1 || days > f.maxDays {
		return fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidHorizon, f.maxDays)
	}
	return nil
}

type state struct {
	basePrice float64
	arrivals  float64
	temp      float64
	humidity  float64
}

// Forecast simulates days forecast entries for crop at mandi. history may
// contain other pairs; only exact crop and mandi matches are used. The first
// date is the day after the later of now and the latest observed date.
func (f *Forecaster) Forecast(
	snap *trainer.TrainingSnapshot,
	history []models.PriceRecord,
	crop, mandi string,
	days int,
	now time.Time,
	seed *WeatherSeed,
) ([]models.ForecastDay, error) {
	if err := f.checkHorizon(days); err != nil {
		return nil, err
	}
	if snap == nil || snap.Model == nil || snap.Encoding == nil {
		return nil, ErrModelUnavailable
	}

	series := make([]models.PriceRecord, 0, len(history))
	for _, r := range history {
		if r.Crop == crop && r.Mandi == mandi {
			series = append(series, r)
		}
	}
	if len(series) < MinHistoryRows {
		return nil, fmt.Errorf("%s at %s has %d rows: %w", crop, mandi, len(series), ErrInsufficientHistory)
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	last := series[len(series)-1]

	cropCode, mandiCode, err := snap.Encoding.Codes(crop, mandi)
	if err != nil {
		return nil, err
	}

	anchor := models.Truncate(now)
	if lastDate := models.Truncate(last.Date); lastDate.After(anchor) {
		anchor = lastDate
	}

	st := state{
		basePrice: last.ModalPrice.InexactFloat64(),
		arrivals:  last.Arrivals.InexactFloat64(),
		temp:      last.Temp,
		humidity:  last.Humidity,
	}
	if seed != nil {
		st.temp = seed.Temp
		st.humidity = seed.Humidity
	}
	seedArrivals := st.arrivals

	out := make([]models.ForecastDay, 0, days)
	for i := 1; i <= days; i++ {
		date := anchor.AddDate(0, 0, i)

		demand := f.rng.Uniform(demandLow, demandHigh)
		st.arrivals = seedArrivals * math.Max(arrivalFloor, 1-float64(i)*arrivalDecay)

		st.temp += f.rng.Uniform(-tempJitter, tempJitter)
		rain := rainDraws[f.rng.IntN(len(rainDraws))]
		st.humidity = clamp(st.humidity+f.rng.Uniform(-humidityJitter, humidityJitter), humidityMin, humidityMax)

		weather := 1.0
		if rain > 0 {
			weather -= rainPenalty
		}
		if st.temp > heatThreshold {
			weather -= heatPenalty
		}

		v, err := features.NewVector(st.arrivals, st.temp, rain, st.humidity, features.IsFestival(date), cropCode, mandiCode)
		if err != nil {
			return nil, fmt.Errorf("invalid simulated input for %s: %w", date.Format(models.DateLayout), err)
		}
		estimate := snap.Model.Predict(v.Values())

		candidate := estimate * demand * weather
		final := carryWeight*st.basePrice + (1-carryWeight)*candidate
		st.basePrice = final

		aux := make([]float64, len(auxiliaryBands))
		for k, band := range auxiliaryBands {
			aux[k] = round2(final * f.rng.Uniform(band[0], band[1]))
		}

		out = append(out, models.ForecastDay{
			Date:               models.Day{Time: date},
			FinalPrice:         round2(final),
			LowerBound:         round2(final * lowerBand),
			UpperBound:         round2(final * upperBand),
			AuxiliaryEstimates: aux,
		})
	}

	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
