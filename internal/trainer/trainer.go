// Package trainer fits the global price model and manages training snapshots.
package trainer

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trogers1052/mandi-price-service/internal/config"
	"github.com/trogers1052/mandi-price-service/internal/features"
	"github.com/trogers1052/mandi-price-service/internal/forest"
	"github.com/trogers1052/mandi-price-service/internal/models"
)

// MinTrainingRows is the smallest feature set a model is trained on
const MinTrainingRows = 10

// ErrInsufficientData is returned when too few feature rows exist to train
var ErrInsufficientData = errors.New("insufficient data to train model")

// Regressor is a fitted model mapping a feature vector to a modal price
type Regressor interface {
	Predict(x []float64) float64
}

// TrainingSnapshot is the unit produced by one training pass. Model and
// Encoding are only valid together.
type TrainingSnapshot struct {
	Model     Regressor
	Encoding  *Encoding
	TrainedAt time.Time
	Rows      int
	Score     float64 // MAE on the held-out partition
}

// Trainer fits random-forest price models
type Trainer struct {
	forest       forest.Config
	testFraction float64
	now          func() time.Time
}

// New creates a trainer from model configuration
func New(cfg config.ModelConfig) *Trainer {
	fc := forest.DefaultConfig()
	fc.Trees = cfg.Trees
	fc.MaxDepth = cfg.MaxDepth
	fc.Seed = cfg.Seed
	return &Trainer{
		forest:       fc,
		testFraction: cfg.TestFraction,
		now:          time.Now,
	}
}

// Train builds features from records, fits a model on the training
// partition and scores it on the test partition
func (t *Trainer) Train(records []models.PriceRecord) (*TrainingSnapshot, error) {
	enc := NewEncoding(records)

	var x [][]float64
	var y []float64
	for _, row := range features.Build(records) {
		cropCode, mandiCode, err := enc.Codes(row.Crop, row.Mandi)
		if err != nil {
			return nil, err
		}
		v, err := features.FromRow(row, cropCode, mandiCode)
		if err != nil {
			log.Warn().Err(err).
				Str("crop", row.Crop).
				Str("mandi", row.Mandi).
				Time("date", row.Date).
				Msg("Skipping invalid training row")
			continue
		}
		x = append(x, v.Values())
		y = append(y, row.ModalPrice.InexactFloat64())
	}

	if len(x) < MinTrainingRows {
		return nil, fmt.Errorf("%d feature rows, need %d: %w", len(x), MinTrainingRows, ErrInsufficientData)
	}

	trainIdx, testIdx := split(len(x), t.testFraction, t.forest.Seed)

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = x[idx]
		trainY[i] = y[idx]
	}

	model, err := forest.Fit(trainX, trainY, t.forest)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}

	score := 0.0
	for _, idx := range testIdx {
		score += math.Abs(model.Predict(x[idx]) - y[idx])
	}
	if len(testIdx) > 0 {
		score /= float64(len(testIdx))
	}

	return &TrainingSnapshot{
		Model:     model,
		Encoding:  enc,
		TrainedAt: t.now(),
		Rows:      len(x),
		Score:     score,
	}, nil
}

// split shuffles 0..n-1 with a fixed seed and holds out ceil(n*fraction) rows
func split(n int, fraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewPCG(uint64(seed), 0)).Perm(n)
	nTest := int(math.Ceil(float64(n) * fraction))
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}
