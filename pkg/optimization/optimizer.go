package optimization

import (
	"fmt"
	"math/rand"

	"github.com/ducminhle1904/transit-ga/pkg/network"
	"github.com/ducminhle1904/transit-ga/pkg/zones"
)

// Settings collects every tunable of an optimization run
type Settings struct {
	Name           string
	PopulationSize int
	Weights        Weights
	MinTripStops   int
	MaxTripStops   int
	Zone           ZoneOptions
	RetryCount     int
	BreedAttempts  int
	Mutation       MutationConfig
	Cutoff         CutoffSchedule
	Workers        int
}

// DefaultSettings returns the defaults for a population of size
func DefaultSettings(size int) Settings {
	return Settings{
		Name:           "default",
		PopulationSize: size,
		Weights:        DefaultWeights(),
		MinTripStops:   DefaultMinTripStops,
		MaxTripStops:   DefaultMaxTripStops,
		Zone:           DefaultZoneOptions(),
		RetryCount:     DefaultRetryCount,
		BreedAttempts:  DefaultBreedAttempts,
		Cutoff:         ConstantCutoff(DefaultCutoff),
		Workers:        4,
	}
}

// Optimizer bundles a population with the collaborators it was wired with
type Optimizer struct {
	Initial    *network.Network
	Population *Population
	Fitness    *FitnessFunction
	Zones      *ZoneEvaluator
	Breeder    *NetworkBreeder
}

// NewPopulationFromNetwork wires a complete optimizer around an initial
// network: zone evaluator with a freshly drawn stop sample, fitness function
// with the initial network as baseline, breeder, and a seeded population.
func NewPopulationFromNetwork(initial *network.Network, zs []zones.Zone, paths []zones.TransitPath, s Settings, rng *rand.Rand, log Logger) (*Optimizer, error) {
	log = orNop(log)

	evaluator, err := NewZoneEvaluator(initial, zs, paths, s.Zone, log)
	if err != nil {
		return nil, err
	}
	if err := evaluator.SampleStops(rng); err != nil {
		return nil, fmt.Errorf("failed to sample zone stops: %w", err)
	}

	fitness := NewFitnessFunction(initial, evaluator, s.Weights, s.MinTripStops, s.MaxTripStops)
	breeder := NewNetworkBreeder(s.RetryCount, s.Mutation, log)

	nets, err := GenerateInitialPopulation(initial, s.PopulationSize, breeder, rng, log)
	if err != nil {
		return nil, err
	}

	chromosomes := make([]*Chromosome, len(nets))
	for i, n := range nets {
		chromosomes[i] = NewChromosome(newID(rng), n, "", "", 0)
	}

	pop, err := NewPopulation(chromosomes, fitness, breeder, rng, PopulationConfig{
		Name:          s.Name,
		Cutoff:        s.Cutoff,
		Workers:       s.Workers,
		BreedAttempts: s.BreedAttempts,
	}, log)
	if err != nil {
		return nil, err
	}

	log.Info("Population of %d created from %s (initial zone score %.4f)", len(chromosomes), initial, evaluator.InitialScore())
	return &Optimizer{
		Initial:    initial,
		Population: pop,
		Fitness:    fitness,
		Zones:      evaluator,
		Breeder:    breeder,
	}, nil
}
