package trainer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/trogers1052/mandi-price-service/internal/models"
)

// ErrUnknownCategory is returned when a crop or mandi was not part of the
// training snapshot the encoding belongs to
var ErrUnknownCategory = errors.New("category not present in training data")

// Encoding maps crop and mandi names to the integer codes a model was
// trained with. Codes are assigned from sorted distinct values and are only
// meaningful together with the model of the same snapshot. Codes cover every
// stored category, including pairs too short to contribute training rows, so
// the model may never have seen some of them.
type Encoding struct {
	crops  map[string]int
	mandis map[string]int
}

// NewEncoding assigns codes 0..N-1 to the sorted distinct crops and mandis in records
func NewEncoding(records []models.PriceRecord) *Encoding {
	crops := make(map[string]struct{})
	mandis := make(map[string]struct{})
	for _, r := range records {
		crops[r.Crop] = struct{}{}
		mandis[r.Mandi] = struct{}{}
	}
	return &Encoding{
		crops:  codes(crops),
		mandis: codes(mandis),
	}
}

func codes(set map[string]struct{}) map[string]int {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make(map[string]int, len(names))
	for i, n := range names {
		out[n] = i
	}
	return out
}

// Codes returns the crop and mandi codes for a pair
func (e *Encoding) Codes(crop, mandi string) (int, int, error) {
	c, ok := e.crops[crop]
	if !ok {
		return 0, 0, fmt.Errorf("crop %q: %w", crop, ErrUnknownCategory)
	}
	m, ok := e.mandis[mandi]
	if !ok {
		return 0, 0, fmt.Errorf("mandi %q: %w", mandi, ErrUnknownCategory)
	}
	return c, m, nil
}

// NumCrops returns the number of encoded crops
func (e *Encoding) NumCrops() int { return len(e.crops) }

// NumMandis returns the number of encoded mandis
func (e *Encoding) NumMandis() int { return len(e.mandis) }
