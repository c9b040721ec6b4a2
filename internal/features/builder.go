// Package features derives calendar, lag and rolling features from mandi
// price history.
package features

import (
	"sort"

	"github.com/trogers1052/mandi-price-service/internal/models"
)

// Window is the longest lag/rolling window; the first Window rows of every
// series have incomplete history and are dropped.
const Window = 7

// Row is a price record extended with derived features
type Row struct {
	models.PriceRecord

	Day        int
	Month      int
	Weekday    int // Monday = 0
	WeekOfYear int // ISO week

	PriceLag1     float64
	PriceLag7     float64
	ArrivalsLag1  float64
	PriceRoll7    float64
	ArrivalsRoll7 float64
}

// Build groups records by (crop, mandi), sorts each group by date and derives
// features per group. Lags never cross group boundaries. Groups with fewer
// than Window+1 rows contribute nothing. Output is grouped in sorted
// (crop, mandi) order.
func Build(records []models.PriceRecord) []Row {
	groups := make(map[groupKey][]models.PriceRecord)
	for _, r := range records {
		k := groupKey{crop: r.Crop, mandi: r.Mandi}
		groups[k] = append(groups[k], r)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].crop != keys[j].crop {
			return keys[i].crop < keys[j].crop
		}
		return keys[i].mandi < keys[j].mandi
	})

	var out []Row
	for _, k := range keys {
		out = append(out, BuildSeries(groups[k])...)
	}
	return out
}

// BuildSeries derives features for a single crop+mandi series. The input is
// copied and sorted by date before any lag is taken.
func BuildSeries(series []models.PriceRecord) []Row {
	if len(series) <= Window {
		return nil
	}

	sorted := make([]models.PriceRecord, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	prices := make([]float64, len(sorted))
	arrivals := make([]float64, len(sorted))
	for i, r := range sorted {
		prices[i] = r.ModalPrice.InexactFloat64()
		arrivals[i] = r.Arrivals.InexactFloat64()
	}

	out := make([]Row, 0, len(sorted)-Window)
	for i := Window; i < len(sorted); i++ {
		rec := sorted[i]
		_, week := rec.Date.ISOWeek()
		out = append(out, Row{
			PriceRecord:   rec,
			Day:           rec.Date.Day(),
			Month:         int(rec.Date.Month()),
			Weekday:       (int(rec.Date.Weekday()) + 6) % 7,
			WeekOfYear:    week,
			PriceLag1:     prices[i-1],
			PriceLag7:     prices[i-7],
			ArrivalsLag1:  arrivals[i-1],
			PriceRoll7:    trailingMean(prices, i, Window),
			ArrivalsRoll7: trailingMean(arrivals, i, Window),
		})
	}
	return out
}

type groupKey struct {
	crop  string
	mandi string
}

// trailingMean averages the n values ending at index i inclusive
func trailingMean(values []float64, i, n int) float64 {
	sum := 0.0
	for j := i - n + 1; j <= i; j++ {
		sum += values[j]
	}
	return sum / float64(n)
}
