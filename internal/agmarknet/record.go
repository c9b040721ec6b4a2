package agmarknet

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/mandi-price-service/internal/features"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

// dateLayouts are the arrival_date formats the provider is known to emit
var dateLayouts = []string{"02/01/2006", models.DateLayout}

// Number decodes a provider numeric field. Missing, null, malformed and
// negative values decode as zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Record is one provider row
type Record struct {
	State        string `json:"state"`
	StateName    string `json:"statename"`
	District     string `json:"district"`
	DistrictName string `json:"districtname"`
	Market       string `json:"market"`
	Commodity    string `json:"commodity"`
	Variety      string `json:"variety"`
	ArrivalDate  string `json:"arrival_date"`
	MinPrice     Number `json:"min_price"`
	MaxPrice     Number `json:"max_price"`
	ModalPrice   Number `json:"modal_price"`
	Arrivals     Number `json:"arrivals"`
}

// StateLabel returns whichever state field the provider populated
func (r Record) StateLabel() string {
	if r.State != "" {
		return r.State
	}
	return r.StateName
}

// DistrictLabel returns whichever district field the provider populated
func (r Record) DistrictLabel() string {
	if r.District != "" {
		return r.District
	}
	return r.DistrictName
}

// ParseDate parses a provider arrival date
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize converts provider rows into price records. Rows without a
// parseable date, commodity or market are dropped. Weather covariates are
// unknown at sync time and stored as zero.
func Normalize(records []Record) []models.PriceRecord {
	out := make([]models.PriceRecord, 0, len(records))
	for _, r := range records {
		date, ok := ParseDate(r.ArrivalDate)
		crop := strings.TrimSpace(r.Commodity)
		mandi := strings.TrimSpace(r.Market)
		if !ok || crop == "" || mandi == "" {
			continue
		}
		out = append(out, models.PriceRecord{
			Date:       date,
			Crop:       crop,
			Mandi:      mandi,
			ModalPrice: decimal.NewFromFloat(float64(r.ModalPrice)),
			Arrivals:   decimal.NewFromFloat(float64(r.Arrivals)),
			Festival:   features.IsFestival(date),
		})
	}
	return out
}
