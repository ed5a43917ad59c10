// Package config provides configuration management for optimization experiments
package config

import (
	"fmt"
	"math"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// Cutoff schedule names
const (
	ScheduleConstant = "constant"
	ScheduleLinear   = "linear"
)

// Common configuration constants
const (
	DefaultPopulationSize = 10
	DefaultGenerations    = 10
	DefaultWorkers        = 4
	DefaultSeed           = 1

	DefaultOutputDir    = "results"
	MetricsCSVFile      = "metrics.csv"
	MetricsXLSXFile     = "metrics.xlsx"
	CheckpointFile      = "population.json"
	BestNetworkFile     = "best_network.json"
	ConfigSnapshotFile  = "config.yml"
	DefaultDatabaseFile = "runs.db"
)

// ExperimentConfig is the full configuration surface of an optimization run
type ExperimentConfig struct {
	Name         string `yaml:"name" validate:"required"`
	NetworkFile  string `yaml:"network_file" validate:"required"`
	ZonesFile    string `yaml:"zones_file,omitempty"`
	PathsFile    string `yaml:"paths_file,omitempty"`
	OutputDir    string `yaml:"output_dir" validate:"required"`
	DatabaseFile string `yaml:"database_file,omitempty"`
	Seed         int64  `yaml:"seed"`

	Population PopulationConfig `yaml:"population"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Zones      ZoneConfig       `yaml:"zones"`
	Breeding   BreedingConfig   `yaml:"breeding"`

	// Batches lists the weight sets swept by the batch runner
	Batches []optimization.Weights `yaml:"batches,omitempty"`
}

// PopulationConfig sizes the population and controls elite selection
type PopulationConfig struct {
	Size        int          `yaml:"size" validate:"min=1"`
	Generations int          `yaml:"generations" validate:"min=1"`
	Workers     int          `yaml:"workers" validate:"min=1"`
	Cutoff      CutoffConfig `yaml:"cutoff"`
}

// CutoffConfig describes the elite fraction per generation. A constant
// schedule uses Fraction; a linear one moves from Min to Max.
type CutoffConfig struct {
	Schedule string  `yaml:"schedule" validate:"oneof=constant linear"`
	Fraction float64 `yaml:"fraction" validate:"gte=0,lte=1"`
	Min      float64 `yaml:"min" validate:"gte=0,lte=1"`
	Max      float64 `yaml:"max" validate:"gte=0,lte=1"`
}

// FitnessConfig holds the fitness weights and trip length bounds
type FitnessConfig struct {
	Weights      optimization.Weights `yaml:"weights"`
	MinTripStops int                  `yaml:"min_trip_stops" validate:"min=1"`
	MaxTripStops int                  `yaml:"max_trip_stops" validate:"gtefield=MinTripStops"`
}

// ZoneConfig tunes the zone evaluator
type ZoneConfig struct {
	Radius          float64 `yaml:"radius" validate:"gt=0"`
	SampleCount     int     `yaml:"sample_count" validate:"min=1"`
	Epsilon         float64 `yaml:"epsilon" validate:"gt=0"`
	DefaultDistance float64 `yaml:"default_distance" validate:"gte=0"`
	CacheSize       int     `yaml:"cache_size" validate:"min=1"`
}

// BreedingConfig controls crossover retries and mutation
type BreedingConfig struct {
	RetryCount    int     `yaml:"retry_count" validate:"min=1"`
	Attempts      int     `yaml:"attempts" validate:"min=1"`
	MutationRate  float64 `yaml:"mutation_rate" validate:"gte=0,lte=1"`
	MutationDelta int     `yaml:"mutation_delta" validate:"gte=0"`
}

// NewDefaultExperimentConfig creates a configuration with the tuned defaults
func NewDefaultExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{
		Name:      "default",
		OutputDir: DefaultOutputDir,
		Seed:      DefaultSeed,
		Population: PopulationConfig{
			Size:        DefaultPopulationSize,
			Generations: DefaultGenerations,
			Workers:     DefaultWorkers,
			Cutoff: CutoffConfig{
				Schedule: ScheduleConstant,
				Fraction: optimization.DefaultCutoff,
				Min:      optimization.DefaultCutoff,
				Max:      optimization.DefaultCutoff,
			},
		},
		Fitness: FitnessConfig{
			Weights:      optimization.DefaultWeights(),
			MinTripStops: optimization.DefaultMinTripStops,
			MaxTripStops: optimization.DefaultMaxTripStops,
		},
		Zones: ZoneConfig{
			Radius:          optimization.DefaultZoneRadius,
			SampleCount:     optimization.DefaultZoneSampleCount,
			Epsilon:         optimization.DefaultZoneEpsilon,
			DefaultDistance: optimization.DefaultZoneDistance,
			CacheSize:       optimization.DefaultCacheSize,
		},
		Breeding: BreedingConfig{
			RetryCount: optimization.DefaultRetryCount,
			Attempts:   optimization.DefaultBreedAttempts,
		},
	}
}

// DefaultBatches returns the nine weight sets of the standard sweep as
// (ridership density, zone, extreme trips) with the extreme trip weight negated
func DefaultBatches() []optimization.Weights {
	triples := [][3]float64{
		{0, 0, 1}, {0, 1, 0}, {1, 0, 0},
		{1, 1, 0}, {1, 0, 1}, {0, 1, 1},
		{2, 1, 1}, {1, 2, 1}, {1, 1, 2},
	}
	batches := make([]optimization.Weights, len(triples))
	for i, t := range triples {
		batches[i] = optimization.Weights{RidershipDensity: t[0], Zone: t[1]}
		if t[2] != 0 {
			batches[i].ExtremeTrips = -t[2]
		}
	}
	return batches
}

// CutoffSchedule builds the configured elite fraction schedule
func (c *ExperimentConfig) CutoffSchedule() optimization.CutoffSchedule {
	if c.Population.Cutoff.Schedule == ScheduleLinear {
		return optimization.LinearCutoff(c.Population.Cutoff.Min, c.Population.Cutoff.Max)
	}
	return optimization.ConstantCutoff(c.Population.Cutoff.Fraction)
}

// minCutoff is the smallest elite fraction the schedule can produce
func (c *ExperimentConfig) minCutoff() float64 {
	if c.Population.Cutoff.Schedule == ScheduleLinear {
		return math.Min(c.Population.Cutoff.Min, c.Population.Cutoff.Max)
	}
	return c.Population.Cutoff.Fraction
}

// Settings converts the configuration into optimizer settings
func (c *ExperimentConfig) Settings() optimization.Settings {
	s := optimization.DefaultSettings(c.Population.Size)
	s.Name = c.Name
	s.Weights = c.Fitness.Weights
	s.MinTripStops = c.Fitness.MinTripStops
	s.MaxTripStops = c.Fitness.MaxTripStops
	s.Zone = optimization.ZoneOptions{
		Radius:          c.Zones.Radius,
		SampleCount:     c.Zones.SampleCount,
		Epsilon:         c.Zones.Epsilon,
		DefaultDistance: c.Zones.DefaultDistance,
		CacheSize:       c.Zones.CacheSize,
	}
	s.RetryCount = c.Breeding.RetryCount
	s.BreedAttempts = c.Breeding.Attempts
	s.Mutation = optimization.MutationConfig{Rate: c.Breeding.MutationRate, Delta: c.Breeding.MutationDelta}
	s.Cutoff = c.CutoffSchedule()
	s.Workers = c.Population.Workers
	return s
}

// WithWeights returns a copy of the configuration using other fitness weights
func (c *ExperimentConfig) WithWeights(w optimization.Weights, name string) *ExperimentConfig {
	cp := *c
	cp.Name = name
	cp.Fitness.Weights = w
	cp.Batches = nil
	return &cp
}

func (c *ExperimentConfig) String() string {
	return fmt.Sprintf("Experiment[%s population=%d generations=%d seed=%d cutoff=%s]",
		c.Name, c.Population.Size, c.Population.Generations, c.Seed, c.Population.Cutoff.Schedule)
}
