// Package optimization evolves transit networks with a genetic algorithm
package optimization

import (
	"math/rand"

	"github.com/ducminhle1904/transit-ga/pkg/network"
)

// Logger is the logging surface the optimizer emits events to
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}

func orNop(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

// Breeder recombines parent networks into children
type Breeder interface {
	Breed(a, b *network.Network, id string, rng *rand.Rand) (*network.Network, error)
	BreedPair(a, b *network.Network, idA, idB string, rng *rand.Rand) (*network.Network, *network.Network, error)
}

// FitnessEvaluator scores a network. Implementations must be safe for concurrent use.
type FitnessEvaluator interface {
	Evaluate(net *network.Network) (Fitness, error)
}

// CutoffSchedule returns the elite fraction for a generation (1-based) of maxGenerations
type CutoffSchedule func(generation, maxGenerations int) float64

// Defaults mirror the values the optimizer was tuned with
const (
	DefaultRetryCount      = 100
	DefaultBreedAttempts   = 3
	DefaultZoneRadius      = 900.0
	DefaultZoneEpsilon     = 0.5
	DefaultZoneDistance    = 40.0
	DefaultZoneSampleCount = 3
	DefaultMinTripStops    = 5
	DefaultMaxTripStops    = 90
	DefaultCutoff          = 0.5
	DefaultCacheSize       = 100000
)
