package optimization

import (
	"fmt"
	"math/rand"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/pkg/network"
)

// GenerateInitialPopulation seeds a population from one network. Starting with
// the initial network, it repeatedly breeds two members drawn with replacement
// from the networks generated so far until size networks exist. A pair that
// cannot be crossed contributes a copy of its first parent.
func GenerateInitialPopulation(initial *network.Network, size int, breeder Breeder, rng *rand.Rand, log Logger) ([]*network.Network, error) {
	log = orNop(log)
	if size <= 0 {
		return nil, errors.NewConfigurationError("population", "generate", fmt.Sprintf("population size must be positive, got %d", size))
	}
	log.Debug("Generating initial population of size %d from %s", size, initial.ID())

	nets := make([]*network.Network, 0, size)
	nets = append(nets, initial)
	for i := 0; len(nets) < size; i++ {
		a := nets[rng.Intn(len(nets))]
		b := nets[rng.Intn(len(nets))]
		id := fmt.Sprintf("0:%d", i)

		child, err := breeder.Breed(a, b, id, rng)
		if err != nil {
			if !errors.IsCategory(err, errors.ErrorCategorySamplingExhausted) {
				return nil, err
			}
			log.Warning("Failed to breed %s and %s while seeding, copying %s", a.ID(), b.ID(), a.ID())
			child = a.Clone(id)
		}
		nets = append(nets, child)
	}
	return nets, nil
}

// SimilarityReport summarizes how far a generated population drifted from the initial network
type SimilarityReport struct {
	Routes  ComponentStats `json:"routes"`
	Trips   ComponentStats `json:"trips"`
	Stops   ComponentStats `json:"stops"`
	Fitness ComponentStats `json:"fitness_ratio"`
}

// NewSimilarityReport compares every network to the initial one by Dice
// similarity of route, trip and stop ids, and by fitness relative to the
// initial network's fitness.
func NewSimilarityReport(initial *network.Network, nets []*network.Network, fitness FitnessEvaluator, minStops, maxStops int) (SimilarityReport, error) {
	base := network.NewMetrics(initial, minStops, maxStops)
	baseFitness, err := fitness.Evaluate(initial)
	if err != nil {
		return SimilarityReport{}, err
	}

	routes := make([]float64, 0, len(nets))
	trips := make([]float64, 0, len(nets))
	stops := make([]float64, 0, len(nets))
	ratios := make([]float64, 0, len(nets))
	for _, n := range nets {
		r, t, s := base.Similarity(network.NewMetrics(n, minStops, maxStops))
		routes = append(routes, r)
		trips = append(trips, t)
		stops = append(stops, s)

		f, err := fitness.Evaluate(n)
		if err != nil {
			return SimilarityReport{}, err
		}
		ratios = append(ratios, safeRatio(f.Total, baseFitness.Total))
	}

	return SimilarityReport{
		Routes:  Summarize(routes),
		Trips:   Summarize(trips),
		Stops:   Summarize(stops),
		Fitness: Summarize(ratios),
	}, nil
}
