package models

import (
	"encoding/json"
	"time"
)

// Day is a calendar date serialised as YYYY-MM-DD
type Day struct {
	time.Time
}

// MarshalJSON encodes the day without a time component.
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// ForecastDay is a single simulated day of a price forecast.
// LowerBound and UpperBound are a fixed band around FinalPrice, not a statistical interval.
type ForecastDay struct {
	Date               Day       `json:"date"`
	FinalPrice         float64   `json:"final_price"`
	LowerBound         float64   `json:"lower_bound"`
	UpperBound         float64   `json:"upper_bound"`
	AuxiliaryEstimates []float64 `json:"auxiliary_estimates"`
}

// ForecastResponse is returned to callers of the predict endpoint
type ForecastResponse struct {
	ID        string        `json:"id"`
	Crop      string        `json:"crop"`
	Mandi     string        `json:"mandi"`
	Forecast  []ForecastDay `json:"forecast"`
	Reason    string        `json:"reason"`
	TrainedAt time.Time     `json:"trained_at"`
}
