// Package market serves live mandi rates and ranks mandis by today's modal price.
package market

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trogers1052/mandi-price-service/internal/agmarknet"
	"github.com/trogers1052/mandi-price-service/internal/config"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

// MaxRates caps the rates returned for one lookup
const MaxRates = 15

// Ranking statuses
const (
	StatusOK     = "OK"
	StatusNoData = "No data"
)

// Fetcher reads raw provider records
type Fetcher interface {
	Fetch(ctx context.Context, q agmarknet.Query) ([]agmarknet.Record, error)
}

// Service looks up live mandi prices
type Service struct {
	fetcher    Fetcher
	mandis     []string
	ratesLimit int
	bestLimit  int
}

// NewService creates a market service ranking the configured mandis
func NewService(f Fetcher, cfg config.AgmarknetConfig) *Service {
	return &Service{
		fetcher:    f,
		mandis:     cfg.Mandis,
		ratesLimit: cfg.RatesLimit,
		bestLimit:  cfg.BestLimit,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matching returns records whose market contains market, case-insensitively,
// newest arrival first
func matching(records []agmarknet.Record, market string) []agmarknet.Record {
	needle := normalize(market)
	var out []agmarknet.Record
	for _, r := range records {
		if strings.Contains(normalize(r.Market), needle) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return arrival(out[i]).After(arrival(out[j]))
	})
	return out
}

func arrival(r agmarknet.Record) time.Time {
	t, _ := agmarknet.ParseDate(r.ArrivalDate)
	return t
}

// Rates returns the latest rates of commodity at markets matching market
func (s *Service) Rates(ctx context.Context, commodity, market string) (*models.MandiRates, error) {
	records, err := s.fetcher.Fetch(ctx, agmarknet.Query{Commodity: commodity, Limit: s.ratesLimit})
	if err != nil {
		return nil, err
	}

	filtered := matching(records, market)
	n := len(filtered)
	if n > MaxRates {
		filtered = filtered[:MaxRates]
	}

	results := make([]models.MandiRate, 0, len(filtered))
	for _, r := range filtered {
		results = append(results, models.MandiRate{
			Market:      r.Market,
			District:    r.DistrictLabel(),
			State:       r.StateLabel(),
			Commodity:   r.Commodity,
			Variety:     r.Variety,
			ArrivalDate: r.ArrivalDate,
			MinPrice:    float64(r.MinPrice),
			MaxPrice:    float64(r.MaxPrice),
			ModalPrice:  float64(r.ModalPrice),
			Arrivals:    float64(r.Arrivals),
			Unit:        models.UnitPerQuintal,
		})
	}

	return &models.MandiRates{
		Commodity: commodity,
		Market:    market,
		Count:     n,
		Results:   results,
	}, nil
}

// BestMandi ranks the configured mandis by their latest modal price for
// commodity. Mandis without records are listed with status "No data".
func (s *Service) BestMandi(ctx context.Context, commodity string) (*models.BestMandi, error) {
	records, err := s.fetcher.Fetch(ctx, agmarknet.Query{Commodity: commodity, Limit: s.bestLimit})
	if err != nil {
		return nil, err
	}

	out := &models.BestMandi{
		Commodity: commodity,
		Ranking:   make([]models.MandiRanking, 0, len(s.mandis)),
	}

	for _, mandi := range s.mandis {
		found := matching(records, mandi)
		if len(found) == 0 {
			out.Ranking = append(out.Ranking, models.MandiRanking{
				Mandi:  mandi,
				Status: StatusNoData,
				Unit:   models.UnitPerQuintal,
			})
			continue
		}

		latest := found[0]
		date := latest.ArrivalDate
		price := float64(latest.ModalPrice)
		out.Ranking = append(out.Ranking, models.MandiRanking{
			Mandi:       mandi,
			Status:      StatusOK,
			ArrivalDate: &date,
			ModalPrice:  &price,
			Unit:        models.UnitPerQuintal,
		})
	}

	for i := range out.Ranking {
		r := &out.Ranking[i]
		if r.ModalPrice == nil || *r.ModalPrice == 0 {
			continue
		}
		if out.Best == nil || *r.ModalPrice > *out.Best.ModalPrice {
			best := *r
			out.Best = &best
		}
	}

	return out, nil
}
