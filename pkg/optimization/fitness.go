package optimization

import (
	"math"

	"github.com/ducminhle1904/transit-ga/pkg/network"
)

// Component names used in round statistics and exports, in column order
const (
	ComponentCoverage         = "coverage_val"
	ComponentRidershipDensity = "ridership_density_val"
	ComponentExtremeTrips     = "extreme_trips_val"
	ComponentZone             = "zone_val"
	ComponentFitness          = "fitness"
)

// ComponentNames lists the tracked fitness components in export order
var ComponentNames = []string{
	ComponentCoverage,
	ComponentRidershipDensity,
	ComponentExtremeTrips,
	ComponentZone,
	ComponentFitness,
}

// Weights are the fitness coefficients. ExtremeTrips is usually negative.
type Weights struct {
	Coverage         float64 `yaml:"coverage" json:"coverage"`
	RidershipDensity float64 `yaml:"ridership_density" json:"ridership_density"`
	Zone             float64 `yaml:"zone" json:"zone"`
	ExtremeTrips     float64 `yaml:"extreme_trips" json:"extreme_trips"`
}

// DefaultWeights returns the coefficients used when none are configured
func DefaultWeights() Weights {
	return Weights{Coverage: 0, RidershipDensity: 1, Zone: 1, ExtremeTrips: -1}
}

// Sum returns the raw sum of the coefficients
func (w Weights) Sum() float64 {
	return w.Coverage + w.RidershipDensity + w.Zone + w.ExtremeTrips
}

// normalizer is the divisor applied to every component. It must stay positive
// or the sign of every component flips, so a raw sum that is not positive
// falls back to the sum of absolute values; all-zero weights divide by one.
func (w Weights) normalizer() float64 {
	if s := w.Sum(); s > 1e-12 {
		return s
	}
	abs := math.Abs(w.Coverage) + math.Abs(w.RidershipDensity) + math.Abs(w.Zone) + math.Abs(w.ExtremeTrips)
	if abs == 0 {
		return 1
	}
	return abs
}

// Fitness is an immutable evaluation result. Components are already divided
// by the weight normalizer, so Total equals their sum.
type Fitness struct {
	Coverage         float64 `json:"coverage_val"`
	RidershipDensity float64 `json:"ridership_density_val"`
	ExtremeTrips     float64 `json:"extreme_trips_val"`
	Zone             float64 `json:"zone_val"`
	Total            float64 `json:"fitness"`
}

// Component returns a component by name
func (f Fitness) Component(name string) float64 {
	switch name {
	case ComponentCoverage:
		return f.Coverage
	case ComponentRidershipDensity:
		return f.RidershipDensity
	case ComponentExtremeTrips:
		return f.ExtremeTrips
	case ComponentZone:
		return f.Zone
	default:
		return f.Total
	}
}

// ZoneScorer scores zone connectivity relative to the baseline network
type ZoneScorer interface {
	Evaluate(net *network.Network) (float64, error)
}

// FitnessFunction scores networks against baseline metrics captured once
type FitnessFunction struct {
	baseline network.Metrics
	zones    ZoneScorer
	weights  Weights
	minStops int
	maxStops int
}

// NewFitnessFunction creates a fitness function. The baseline is snapshotted
// from initial with the same stop-count bounds used for candidates.
func NewFitnessFunction(initial *network.Network, zones ZoneScorer, weights Weights, minStops, maxStops int) *FitnessFunction {
	return &FitnessFunction{
		baseline: network.NewMetrics(initial, minStops, maxStops),
		zones:    zones,
		weights:  weights,
		minStops: minStops,
		maxStops: maxStops,
	}
}

// Baseline returns the captured baseline metrics
func (f *FitnessFunction) Baseline() network.Metrics {
	return f.baseline
}

// Weights returns the configured coefficients
func (f *FitnessFunction) Weights() Weights {
	return f.weights
}

// Evaluate computes the weighted, baseline-relative fitness of a network
func (f *FitnessFunction) Evaluate(net *network.Network) (Fitness, error) {
	coverage := safeRatio(float64(net.Coverage()), f.baseline.Coverage) * f.weights.Coverage
	density := safeRatio(net.RidershipDensity(), f.baseline.RidershipDensity) * f.weights.RidershipDensity
	extreme := safeRatio(float64(net.CountExtremeTrips(f.minStops, f.maxStops)), f.baseline.ExtremeTrips) * f.weights.ExtremeTrips

	zone := 0.0
	if f.zones != nil && f.weights.Zone != 0 {
		score, err := f.zones.Evaluate(net)
		if err != nil {
			return Fitness{}, err
		}
		zone = score * f.weights.Zone
	}

	n := f.weights.normalizer()
	return Fitness{
		Coverage:         coverage / n,
		RidershipDensity: density / n,
		ExtremeTrips:     extreme / n,
		Zone:             zone / n,
		Total:            (coverage + density + extreme + zone) / n,
	}, nil
}

// safeRatio divides value by baseline. A zero baseline yields 1 when value is
// also zero and value itself otherwise.
func safeRatio(value, baseline float64) float64 {
	if baseline == 0 {
		if value == 0 {
			return 1
		}
		return value
	}
	return value / baseline
}
