package models

import "time"

// Event type constants
const (
	EventPricesSynced = "PRICES_SYNCED"
	EventPriceRecords = "PRICE_RECORDS"
)

// PriceEvent represents a Kafka event about mandi price history changes
type PriceEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	Source    string        `json:"source"`
	Crop      string        `json:"crop,omitempty"`
	Mandi     string        `json:"mandi,omitempty"`
	RowsSaved int64         `json:"rows_saved,omitempty"`
	Records   []PriceRecord `json:"records,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
