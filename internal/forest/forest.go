// Package forest implements a random-forest regressor: bootstrap-sampled CART
// trees split on squared error, averaged at prediction time.
package forest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
)

// ErrNoSamples is returned when fitting on an empty data set
var ErrNoSamples = errors.New("forest: no training samples")

// Config controls the ensemble shape
type Config struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
}

// DefaultConfig mirrors the production price model
func DefaultConfig() Config {
	return Config{
		Trees:           250,
		MaxDepth:        14,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// Forest is a fitted ensemble. It is immutable and safe for concurrent Predict calls.
type Forest struct {
	trees     []*node
	nFeatures int
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

// Fit trains a forest on rows x with targets y
func Fit(x [][]float64, y []float64, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrNoSamples
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("forest: %d rows but %d targets", len(x), len(y))
	}
	nFeatures := len(x[0])
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("forest: row %d has %d features, want %d", i, len(row), nFeatures)
		}
	}
	if cfg.Trees < 1 || cfg.MaxDepth < 1 {
		return nil, fmt.Errorf("forest: trees and max depth must be at least 1")
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}

	f := &Forest{trees: make([]*node, cfg.Trees), nFeatures: nFeatures}

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	for t := 0; t < cfg.Trees; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(t int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(t)))
			sample := make([]int, len(x))
			for i := range sample {
				sample[i] = rng.IntN(len(x))
			}
			b := builder{x: x, y: y, cfg: cfg}
			f.trees[t] = b.grow(sample, 0)
		}(t)
	}
	wg.Wait()

	return f, nil
}

// Predict averages the tree outputs for one row
func (f *Forest) Predict(row []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

// NumFeatures returns the input width the forest was trained on
func (f *Forest) NumFeatures() int {
	return f.nFeatures
}

// NumTrees returns the ensemble size
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

func (n *node) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type builder struct {
	x   [][]float64
	y   []float64
	cfg Config
}

func (b *builder) grow(idx []int, depth int) *node {
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	mean := sum / n
	parentSSE := sumSq - sum*sum/n

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit || parentSSE <= 1e-12 {
		return &node{leaf: true, value: mean}
	}

	feature, threshold, sse, ok := b.bestSplit(idx)
	if !ok || sse >= parentSSE-1e-12 {
		return &node{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.grow(left, depth+1),
		right:     b.grow(right, depth+1),
	}
}

// bestSplit scans every feature for the threshold minimising the summed
// squared error of both children
func (b *builder) bestSplit(idx []int) (feature int, threshold, bestSSE float64, ok bool) {
	sorted := make([]int, len(idx))
	minLeaf := b.cfg.MinSamplesLeaf

	for f := range b.x[0] {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		totalSum, totalSq := 0.0, 0.0
		for _, i := range sorted {
			totalSum += b.y[i]
			totalSq += b.y[i] * b.y[i]
		}

		leftSum, leftSq := 0.0, 0.0
		for k := 1; k < len(sorted); k++ {
			prev := sorted[k-1]
			leftSum += b.y[prev]
			leftSq += b.y[prev] * b.y[prev]

			lo, hi := b.x[prev][f], b.x[sorted[k]][f]
			if lo == hi || k < minLeaf || len(sorted)-k < minLeaf {
				continue
			}

			nl := float64(k)
			nr := float64(len(sorted) - k)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)

			if !ok || sse < bestSSE {
				feature, threshold, bestSSE, ok = f, (lo+hi)/2, sse, true
			}
		}
	}
	return feature, threshold, bestSSE, ok
}
