package agmarknet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	got, ok := ParseDate("15/01/2026")
	require.True(t, ok)
	assert.Equal(t, want, got)

	got, ok = ParseDate(" 2026-01-15 ")
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = ParseDate("Jan 15 2026")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	raw := []Record{
		{Market: "Pune", Commodity: "Onion", ArrivalDate: "26/01/2026", ModalPrice: 2150, Arrivals: 320},
		{Market: " Pune ", Commodity: "Onion", ArrivalDate: "2026-01-14", ModalPrice: 2050},
		{Market: "Pune", Commodity: "Onion", ArrivalDate: "unknown", ModalPrice: 2000},
		{Market: "", Commodity: "Onion", ArrivalDate: "2026-01-14", ModalPrice: 2000},
	}

	out := Normalize(raw)
	require.Len(t, out, 2)

	assert.Equal(t, "Onion", out[0].Crop)
	assert.Equal(t, "Pune", out[0].Mandi)
	assert.Equal(t, "2150", out[0].ModalPrice.String())
	assert.Equal(t, "320", out[0].Arrivals.String())
	assert.Equal(t, 1, out[0].Festival, "Republic Day")
	assert.Zero(t, out[0].Temp)
	assert.Zero(t, out[0].Rain)
	assert.Zero(t, out[0].Humidity)

	assert.Equal(t, "Pune", out[1].Mandi)
	assert.Equal(t, 0, out[1].Festival)
	assert.True(t, out[1].Arrivals.IsZero())
}

func TestRecordLabels(t *testing.T) {
	r := Record{StateName: "Maharashtra", District: "Pune"}
	assert.Equal(t, "Maharashtra", r.StateLabel())
	assert.Equal(t, "Pune", r.DistrictLabel())
}
