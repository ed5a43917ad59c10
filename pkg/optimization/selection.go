package optimization

import (
	"math/rand"

	"github.com/ducminhle1904/transit-ga/internal/errors"
)

// SelectParents draws two distinct chromosomes from pool with probability
// proportional to fitness, without replacement. Negative fitness counts as
// zero; when every weight is zero the draw is uniform. A pool of one returns
// the same chromosome twice.
func SelectParents(pool []*Chromosome, rng *rand.Rand) (*Chromosome, *Chromosome, error) {
	switch len(pool) {
	case 0:
		return nil, nil, errors.NewEmptyPoolError("population", "select_parents")
	case 1:
		return pool[0], pool[0], nil
	}

	weights := make([]float64, len(pool))
	for i, c := range pool {
		if s := c.Score(); s > 0 {
			weights[i] = s
		}
	}

	first := weightedIndex(weights, rng)
	weights[first] = 0
	remaining := make([]int, 0, len(pool)-1)
	for i := range pool {
		if i != first {
			remaining = append(remaining, i)
		}
	}

	rest := make([]float64, len(remaining))
	for i, idx := range remaining {
		rest[i] = weights[idx]
	}
	second := remaining[weightedIndex(rest, rng)]

	return pool[first], pool[second], nil
}

// weightedIndex samples an index proportionally to non-negative weights, uniformly if they sum to zero
func weightedIndex(weights []float64, rng *rand.Rand) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}

	r := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	// rounding can leave r == total; return the last positive weight
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}
