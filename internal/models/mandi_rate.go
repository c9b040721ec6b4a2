package models

// UnitPerQuintal is the currency unit reported for mandi prices
const UnitPerQuintal = "₹/Quintal"

// MandiRate is a cleaned live price record from the government feed
type MandiRate struct {
	Market      string  `json:"market"`
	District    string  `json:"district,omitempty"`
	State       string  `json:"state,omitempty"`
	Commodity   string  `json:"commodity"`
	Variety     string  `json:"variety,omitempty"`
	ArrivalDate string  `json:"arrival_date"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	ModalPrice  float64 `json:"modal_price"`
	Arrivals    float64 `json:"arrivals"`
	Unit        string  `json:"unit"`
}

// MandiRanking is one entry of the best-mandi ranking
type MandiRanking struct {
	Mandi       string   `json:"mandi"`
	Status      string   `json:"status"`
	ArrivalDate *string  `json:"arrival_date"`
	ModalPrice  *float64 `json:"modal_price"`
	Unit        string   `json:"unit"`
}

// BestMandi is the response of the best-mandi lookup
type BestMandi struct {
	Commodity string         `json:"commodity"`
	Best      *MandiRanking  `json:"best_mandi"`
	Ranking   []MandiRanking `json:"ranking"`
}

// MandiRates is the response of the live rates lookup
type MandiRates struct {
	Commodity string      `json:"commodity"`
	Market    string      `json:"market"`
	Count     int         `json:"count"`
	Results   []MandiRate `json:"results"`
}

// MandiDistance is the straight-line distance from a user to a mandi
type MandiDistance struct {
	Mandi         string  `json:"mandi"`
	State         string  `json:"state"`
	AirDistanceKm float64 `json:"air_distance_km"`
	MandiLat      float64 `json:"mandi_lat"`
	MandiLon      float64 `json:"mandi_lon"`
	UserLat       float64 `json:"user_lat"`
	UserLon       float64 `json:"user_lon"`
	Status        string  `json:"status"`
}
