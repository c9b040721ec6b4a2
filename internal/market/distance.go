package market

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/mandi-price-service/internal/models"
)

const earthRadiusKm = 6371

// ErrUnknownMandi is returned for mandis without known coordinates
var ErrUnknownMandi = errors.New("mandi location not found")

// Location is a verified APMC yard position
type Location struct {
	State string
	Lat   float64
	Lon   float64
}

// Locations holds the APMC yards distances can be measured to
var Locations = map[string]Location{
	"Pune":    {State: "Maharashtra", Lat: 18.5186, Lon: 73.8567},
	"Nashik":  {State: "Maharashtra", Lat: 19.9975, Lon: 73.7898},
	"Mumbai":  {State: "Maharashtra", Lat: 19.0760, Lon: 72.8777}, // Vashi
	"Nagpur":  {State: "Maharashtra", Lat: 21.1458, Lon: 79.0882}, // Kalamna
	"Solapur": {State: "Maharashtra", Lat: 17.6599, Lon: 75.9064},
}

// Haversine returns the great-circle distance in km, rounded to 2 decimals
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	km := earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return decimal.NewFromFloat(km).Round(2).InexactFloat64()
}

func lookup(mandi string) (string, Location, bool) {
	name := strings.TrimSpace(mandi)
	for n, loc := range Locations {
		if strings.EqualFold(n, name) {
			return n, loc, true
		}
	}
	return "", Location{}, false
}

// Distance measures the air distance from (lat, lon) to mandi
func (s *Service) Distance(lat, lon float64, mandi string) (*models.MandiDistance, error) {
	name, loc, ok := lookup(mandi)
	if !ok {
		return nil, ErrUnknownMandi
	}

	return &models.MandiDistance{
		Mandi:         name,
		State:         loc.State,
		AirDistanceKm: Haversine(lat, lon, loc.Lat, loc.Lon),
		MandiLat:      loc.Lat,
		MandiLon:      loc.Lon,
		UserLat:       lat,
		UserLon:       lon,
		Status:        StatusOK,
	}, nil
}
