package features

import (
	"fmt"
	"math"
)

// NumFeatures is the width of the price model input
const NumFeatures = 7

// Names lists model inputs in Values order
var Names = [NumFeatures]string{"arrivals", "temp", "rain", "humidity", "festival", "crop_code", "mandi_code"}

// Vector is the fixed-shape input of the price model
type Vector struct {
	Arrivals  float64
	Temp      float64
	Rain      int
	Humidity  float64
	Festival  int
	CropCode  int
	MandiCode int
}

// NewVector validates and builds a model input
func NewVector(arrivals, temp float64, rain int, humidity float64, festival, cropCode, mandiCode int) (Vector, error) {
	for name, v := range map[string]float64{"arrivals": arrivals, "temp": temp, "humidity": humidity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Vector{}, fmt.Errorf("%s is not a finite number", name)
		}
	}
	if arrivals < 0 {
		return Vector{}, fmt.Errorf("arrivals must be non-negative, got %v", arrivals)
	}
	if rain != 0 && rain != 1 {
		return Vector{}, fmt.Errorf("rain must be 0 or 1, got %d", rain)
	}
	if festival != 0 && festival != 1 {
		return Vector{}, fmt.Errorf("festival must be 0 or 1, got %d", festival)
	}
	if cropCode < 0 || mandiCode < 0 {
		return Vector{}, fmt.Errorf("category codes must be non-negative")
	}
	return Vector{
		Arrivals:  arrivals,
		Temp:      temp,
		Rain:      rain,
		Humidity:  humidity,
		Festival:  festival,
		CropCode:  cropCode,
		MandiCode: mandiCode,
	}, nil
}

// FromRow builds the model input of a training row
func FromRow(r Row, cropCode, mandiCode int) (Vector, error) {
	return NewVector(r.Arrivals.InexactFloat64(), r.Temp, r.Rain, r.Humidity, r.Festival, cropCode, mandiCode)
}

// Values returns the vector in model column order
func (v Vector) Values() []float64 {
	return []float64{
		v.Arrivals,
		v.Temp,
		float64(v.Rain),
		v.Humidity,
		float64(v.Festival),
		float64(v.CropCode),
		float64(v.MandiCode),
	}
}
