package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func validConfig() *ExperimentConfig {
	cfg := NewDefaultExperimentConfig()
	cfg.NetworkFile = "network.json"
	return cfg
}

func TestDefaultExperimentConfig(t *testing.T) {
	cfg := NewDefaultExperimentConfig()
	assert.Equal(t, optimization.DefaultWeights(), cfg.Fitness.Weights)
	assert.Equal(t, 100, cfg.Breeding.RetryCount)
	assert.Equal(t, 900.0, cfg.Zones.Radius)
	assert.Equal(t, 0.5, cfg.Zones.Epsilon)
	assert.Equal(t, 40.0, cfg.Zones.DefaultDistance)
	assert.Equal(t, 3, cfg.Zones.SampleCount)
	assert.Equal(t, 5, cfg.Fitness.MinTripStops)
	assert.Equal(t, 90, cfg.Fitness.MaxTripStops)

	assert.NoError(t, NewExperimentValidator().Validate(validConfig()))
}

func TestExperimentValidator(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExperimentConfig)
		errMsg string
	}{
		{"missing network", func(c *ExperimentConfig) { c.NetworkFile = "" }, "NetworkFile"},
		{"zero population", func(c *ExperimentConfig) { c.Population.Size = 0 }, "Size"},
		{"unknown schedule", func(c *ExperimentConfig) { c.Population.Cutoff.Schedule = "cosine" }, "Schedule"},
		{"trip bounds inverted", func(c *ExperimentConfig) { c.Fitness.MinTripStops = 10; c.Fitness.MaxTripStops = 5 }, "MaxTripStops"},
		{"mutation rate", func(c *ExperimentConfig) { c.Breeding.MutationRate = 1.5 }, "MutationRate"},
		{"zero epsilon", func(c *ExperimentConfig) { c.Zones.Epsilon = 0 }, "Epsilon"},
		{"no elite", func(c *ExperimentConfig) { c.Population.Size = 4; c.Population.Cutoff.Fraction = 0.1 }, "keeps no elite"},
		{"zero fraction", func(c *ExperimentConfig) { c.Population.Cutoff.Fraction = 0 }, "must be positive"},
		{"linear min above max", func(c *ExperimentConfig) {
			c.Population.Cutoff.Schedule = ScheduleLinear
			c.Population.Cutoff.Min = 0.8
			c.Population.Cutoff.Max = 0.2
		}, "exceeds max"},
		{"linear min keeps no elite", func(c *ExperimentConfig) {
			c.Population.Size = 4
			c.Population.Cutoff.Schedule = ScheduleLinear
			c.Population.Cutoff.Min = 0.1
			c.Population.Cutoff.Max = 0.9
		}, "keeps no elite"},
		{"all-zero batch", func(c *ExperimentConfig) { c.Batches = []optimization.Weights{{}} }, "all-zero"},
	}

	v := NewExperimentValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := v.Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCutoffSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Population.Cutoff.Fraction = 0.3
	assert.Equal(t, 0.3, cfg.CutoffSchedule()(1, 10))

	cfg.Population.Cutoff = CutoffConfig{Schedule: ScheduleLinear, Min: 0.2, Max: 0.6}
	schedule := cfg.CutoffSchedule()
	assert.InDelta(t, 0.2, schedule(1, 5), 1e-12)
	assert.InDelta(t, 0.6, schedule(5, 5), 1e-12)
}

func TestSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Name = "sweep"
	cfg.Population.Size = 8
	cfg.Population.Workers = 2
	cfg.Breeding.MutationRate = 0.25
	cfg.Breeding.MutationDelta = 2
	cfg.Zones.SampleCount = 5

	s := cfg.Settings()
	assert.Equal(t, "sweep", s.Name)
	assert.Equal(t, 8, s.PopulationSize)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, optimization.MutationConfig{Rate: 0.25, Delta: 2}, s.Mutation)
	assert.Equal(t, 5, s.Zone.SampleCount)
	assert.Equal(t, cfg.Fitness.Weights, s.Weights)
	assert.Equal(t, 0.5, s.Cutoff(1, 1))
}

func TestDefaultBatches(t *testing.T) {
	batches := DefaultBatches()
	require.Len(t, batches, 9)
	assert.Equal(t, optimization.Weights{ExtremeTrips: -1}, batches[0])
	assert.Equal(t, optimization.Weights{RidershipDensity: 1, Zone: 1, ExtremeTrips: -2}, batches[8])

	cfg := validConfig()
	cfg.Batches = batches
	assert.NoError(t, NewExperimentValidator().Validate(cfg))

	single := cfg.WithWeights(batches[3], "rd1z1et0")
	assert.Equal(t, "rd1z1et0", single.Name)
	assert.Equal(t, batches[3], single.Fitness.Weights)
	assert.Nil(t, single.Batches)
	assert.Len(t, cfg.Batches, 9)
}

func TestConfigManager_LoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yml")
	content := `name: sf-muni
network_file: data/network.json
zones_file: /abs/zones.csv
seed: 7
population:
  size: 6
  generations: 4
  cutoff:
    schedule: linear
    min: 0.25
    max: 0.75
fitness:
  weights:
    ridership_density: 2
    zone: 1
    extreme_trips: -1
batches:
  - ridership_density: 1
  - zone: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m := NewConfigManager().WithLookup(envMap(map[string]string{
		"GA_GENERATIONS":   "12",
		"GA_LAMBDA_ZONE":   "0.5",
		"GA_SEED":          "99",
		"GA_OUTPUT_DIR":    "",
		"GA_MUTATION_RATE": "0.1",
	}))
	cfg, err := m.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sf-muni", cfg.Name)
	assert.Equal(t, filepath.Join(dir, "data/network.json"), cfg.NetworkFile)
	assert.Equal(t, "/abs/zones.csv", cfg.ZonesFile)
	assert.Equal(t, 6, cfg.Population.Size)
	assert.Equal(t, 12, cfg.Population.Generations)
	assert.Equal(t, DefaultWorkers, cfg.Population.Workers)
	assert.Equal(t, ScheduleLinear, cfg.Population.Cutoff.Schedule)
	assert.Equal(t, 2.0, cfg.Fitness.Weights.RidershipDensity)
	assert.Equal(t, 0.5, cfg.Fitness.Weights.Zone)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, 0.1, cfg.Breeding.MutationRate)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Len(t, cfg.Batches, 2)
	assert.Equal(t, 900.0, cfg.Zones.Radius, "keys absent from the file keep their defaults")
}

func TestConfigManager_Errors(t *testing.T) {
	m := NewConfigManager().WithLookup(noEnv)

	_, err := m.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	// defaults alone lack a network file
	_, err = m.LoadConfig("")
	assert.ErrorContains(t, err, "validation failed")

	cfg, err := m.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.NetworkFile)

	bad := NewConfigManager().WithLookup(envMap(map[string]string{"GA_POPULATION_SIZE": "many"}))
	_, err = bad.Load("")
	assert.ErrorContains(t, err, "GA_POPULATION_SIZE")
}

func TestConfigManager_SaveRoundTrip(t *testing.T) {
	m := NewConfigManager().WithLookup(noEnv)
	cfg := validConfig()
	cfg.NetworkFile = "/data/network.json"
	cfg.Batches = DefaultBatches()

	path := filepath.Join(t.TempDir(), "out", ConfigSnapshotFile)
	require.NoError(t, m.SaveConfig(cfg, path))

	loaded, err := m.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
