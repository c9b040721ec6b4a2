package forecast

import (
	"math/rand/v2"
	"sync"
)

// RandomSource supplies every stochastic draw of the simulation
type RandomSource interface {
	// Uniform returns a value in [lo, hi)
	Uniform(lo, hi float64) float64
	// IntN returns a value in [0, n)
	IntN(n int) int
}

type globalSource struct{}

// NewRandomSource returns a source backed by the runtime-seeded global generator
func NewRandomSource() RandomSource {
	return globalSource{}
}

func (globalSource) Uniform(lo, hi float64) float64 { return lo + rand.Float64()*(hi-lo) }
func (globalSource) IntN(n int) int                 { return rand.IntN(n) }

type seededSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource returns a reproducible source safe for concurrent use
func NewSeededSource(seed uint64) RandomSource {
	return &seededSource{r: rand.New(rand.NewPCG(seed, seed))}
}

func (s *seededSource) Uniform(lo, hi float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.r.Float64()*(hi-lo)
}

func (s *seededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
