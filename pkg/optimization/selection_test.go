package optimization

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/transit-ga/internal/errors"
)

func TestSelectParents_EmptyPool(t *testing.T) {
	_, _, err := SelectParents(nil, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryEmptyPool))
}

func TestSelectParents_SingleMemberIsBothParents(t *testing.T) {
	pool := chromosomesWithScores(0.7)
	a, b, err := SelectParents(pool, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Same(t, pool[0], a)
	assert.Same(t, pool[0], b)
}

func TestSelectParents_DistinctParents(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, scores := range [][]float64{{1, 2, 3}, {0, 0, 0}, {-1, -2}, {5, 0}} {
		pool := chromosomesWithScores(scores...)
		for i := 0; i < 50; i++ {
			a, b, err := SelectParents(pool, rng)
			require.NoError(t, err)
			assert.NotSame(t, a, b, "scores %v", scores)
		}
	}
}

func TestSelectParents_ProportionalToFitness(t *testing.T) {
	pool := chromosomesWithScores(9, 1, 0)
	rng := rand.New(rand.NewSource(3))

	firsts := map[string]int{}
	for i := 0; i < 2000; i++ {
		a, _, err := SelectParents(pool, rng)
		require.NoError(t, err)
		firsts[a.ID]++
	}

	// the zero-fitness member can never be drawn first while others are positive
	assert.Zero(t, firsts["c"])
	assert.InDelta(t, 0.9, float64(firsts["a"])/2000, 0.05)
}

func TestSelectParents_NegativeFitnessClampedToZero(t *testing.T) {
	pool := chromosomesWithScores(-5, 2, -1)
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		a, _, err := SelectParents(pool, rng)
		require.NoError(t, err)
		assert.Equal(t, "b", a.ID)
	}
}

func TestWeightedIndex_UniformWhenAllZero(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		seen[weightedIndex([]float64{0, 0, 0, 0}, rng)] = true
	}
	assert.Len(t, seen, 4)
}
