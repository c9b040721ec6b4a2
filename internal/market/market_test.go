package market

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/mandi-price-service/internal/agmarknet"
	"github.com/trogers1052/mandi-price-service/internal/config"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

type mockFetcher struct {
	records []agmarknet.Record
	err     error
	last    agmarknet.Query
}

func (m *mockFetcher) Fetch(ctx context.Context, q agmarknet.Query) ([]agmarknet.Record, error) {
	m.last = q
	return m.records, m.err
}

func testConfig() config.AgmarknetConfig {
	return config.AgmarknetConfig{
		RatesLimit: 500,
		BestLimit:  700,
		Mandis:     []string{"Pune", "Nashik", "Mumbai"},
	}
}

func TestRates(t *testing.T) {
	f := &mockFetcher{records: []agmarknet.Record{
		{Market: "Pune", Commodity: "Onion", ArrivalDate: "13/01/2026", ModalPrice: 2000, MinPrice: 1500, MaxPrice: 2300},
		{Market: "Nashik", Commodity: "Onion", ArrivalDate: "15/01/2026", ModalPrice: 1900},
		{Market: "Pune(Pimpri)", Commodity: "Onion", ArrivalDate: "2026-01-15", ModalPrice: 2150, StateName: "Maharashtra"},
		{Market: "PUNE", Commodity: "Onion", ArrivalDate: "garbage", ModalPrice: 1},
		{Market: "Pune", Commodity: "Onion", ArrivalDate: "14/01/2026", ModalPrice: 2100},
	}}
	s := NewService(f, testConfig())

	res, err := s.Rates(context.Background(), "Onion", " pune ")
	require.NoError(t, err)
	assert.Equal(t, "Onion", f.last.Commodity)
	assert.Empty(t, f.last.Market)
	assert.Equal(t, 500, f.last.Limit)

	assert.Equal(t, 4, res.Count)
	require.Len(t, res.Results, 4)
	assert.Equal(t, "Pune(Pimpri)", res.Results[0].Market)
	assert.Equal(t, "Maharashtra", res.Results[0].State)
	assert.Equal(t, "14/01/2026", res.Results[1].ArrivalDate)
	assert.Equal(t, "13/01/2026", res.Results[2].ArrivalDate)
	assert.Equal(t, 1500.0, res.Results[2].MinPrice)
	assert.Equal(t, "garbage", res.Results[3].ArrivalDate, "undated rows sort last")
	assert.Equal(t, models.UnitPerQuintal, res.Results[0].Unit)
}

func TestRatesTruncates(t *testing.T) {
	var records []agmarknet.Record
	for i := 1; i <= 20; i++ {
		records = append(records, agmarknet.Record{
			Market:      "Pune",
			Commodity:   "Onion",
			ArrivalDate: fmt.Sprintf("%02d/01/2026", i),
			ModalPrice:  agmarknet.Number(2000 + i),
		})
	}
	s := NewService(&mockFetcher{records: records}, testConfig())

	res, err := s.Rates(context.Background(), "Onion", "Pune")
	require.NoError(t, err)
	assert.Equal(t, 20, res.Count)
	assert.Len(t, res.Results, MaxRates)
	assert.Equal(t, "20/01/2026", res.Results[0].ArrivalDate)
}

func TestRatesUpstreamError(t *testing.T) {
	s := NewService(&mockFetcher{err: &agmarknet.FetchError{StatusCode: 500, Message: "boom"}}, testConfig())
	_, err := s.Rates(context.Background(), "Onion", "Pune")
	assert.ErrorIs(t, err, agmarknet.ErrUpstream)
}

func TestBestMandi(t *testing.T) {
	f := &mockFetcher{records: []agmarknet.Record{
		{Market: "Pune", ArrivalDate: "14/01/2026", ModalPrice: 2600},
		{Market: "Pune", ArrivalDate: "15/01/2026", ModalPrice: 2100},
		{Market: "Nashik", ArrivalDate: "15/01/2026", ModalPrice: 2300},
	}}
	s := NewService(f, testConfig())

	res, err := s.BestMandi(context.Background(), "Onion")
	require.NoError(t, err)
	assert.Equal(t, 700, f.last.Limit)
	require.Len(t, res.Ranking, 3)

	assert.Equal(t, "Pune", res.Ranking[0].Mandi)
	assert.Equal(t, StatusOK, res.Ranking[0].Status)
	assert.Equal(t, 2100.0, *res.Ranking[0].ModalPrice, "latest arrival wins")
	assert.Equal(t, "15/01/2026", *res.Ranking[0].ArrivalDate)

	assert.Equal(t, StatusNoData, res.Ranking[2].Status)
	assert.Nil(t, res.Ranking[2].ModalPrice)
	assert.Nil(t, res.Ranking[2].ArrivalDate)

	require.NotNil(t, res.Best)
	assert.Equal(t, "Nashik", res.Best.Mandi)
	assert.Equal(t, 2300.0, *res.Best.ModalPrice)
}

func TestBestMandiNoPrices(t *testing.T) {
	f := &mockFetcher{records: []agmarknet.Record{
		{Market: "Pune", ArrivalDate: "15/01/2026", ModalPrice: 0},
	}}
	res, err := NewService(f, testConfig()).BestMandi(context.Background(), "Onion")
	require.NoError(t, err)
	assert.Nil(t, res.Best)
	assert.Equal(t, StatusOK, res.Ranking[0].Status)
	assert.Equal(t, StatusNoData, res.Ranking[1].Status)
}
