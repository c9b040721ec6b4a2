package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire and in the store.
const DateLayout = "2006-01-02"

// PriceRecord represents one daily observation of a commodity at a mandi
type PriceRecord struct {
	ID         int             `json:"id,omitempty"`
	Date       time.Time       `json:"date"`
	Crop       string          `json:"crop"`
	Mandi      string          `json:"mandi"`
	ModalPrice decimal.Decimal `json:"modal_price"`
	Arrivals   decimal.Decimal `json:"arrivals"`
	Temp       float64         `json:"temp"`
	Rain       int             `json:"rain"`
	Humidity   float64         `json:"humidity"`
	Festival   int             `json:"festival"`
	CreatedAt  time.Time       `json:"created_at,omitempty"`
}

// Key returns the (date, crop, mandi) identity of the record.
func (p *PriceRecord) Key() string {
	return p.Date.Format(DateLayout) + "|" + p.Crop + "|" + p.Mandi
}

// Truncate normalises a timestamp to midnight UTC of its calendar day.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
