package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "GA_"

// LookupFunc resolves an environment variable
type LookupFunc func(key string) (string, bool)

// ConfigManager loads, overrides, validates and saves experiment configurations
type ConfigManager struct {
	validator *ExperimentValidator
	lookup    LookupFunc
}

// NewConfigManager creates a manager reading overrides from the process environment
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		validator: NewExperimentValidator(),
		lookup:    os.LookupEnv,
	}
}

// WithLookup replaces the environment lookup
func (m *ConfigManager) WithLookup(lookup LookupFunc) *ConfigManager {
	m.lookup = lookup
	return m
}

// LoadConfig loads a configuration with Load and validates it
func (m *ConfigManager) LoadConfig(configFile string) (*ExperimentConfig, error) {
	cfg, err := m.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Load starts from the defaults, overlays the YAML file when configFile is
// set and applies GA_* environment overrides. Callers layering command line
// flags on top must call ValidateConfig themselves.
func (m *ConfigManager) Load(configFile string) (*ExperimentConfig, error) {
	cfg := NewDefaultExperimentConfig()

	if configFile != "" {
		if err := m.loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := m.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file keep their values
func (m *ConfigManager) loadFromFile(configFile string, cfg *ExperimentConfig) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("could not parse config file: %w", err)
	}

	// relative data paths are resolved against the config file's directory
	base := filepath.Dir(configFile)
	for _, p := range []*string{&cfg.NetworkFile, &cfg.ZonesFile, &cfg.PathsFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from GA_* environment variables
func (m *ConfigManager) ApplyEnv(cfg *ExperimentConfig) error {
	strs := map[string]*string{
		"NAME":          &cfg.Name,
		"NETWORK_FILE":  &cfg.NetworkFile,
		"ZONES_FILE":    &cfg.ZonesFile,
		"PATHS_FILE":    &cfg.PathsFile,
		"OUTPUT_DIR":    &cfg.OutputDir,
		"DATABASE_FILE": &cfg.DatabaseFile,
		"CUTOFF":        &cfg.Population.Cutoff.Schedule,
	}
	for key, dst := range strs {
		if v, ok := m.lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"POPULATION_SIZE": &cfg.Population.Size,
		"GENERATIONS":     &cfg.Population.Generations,
		"WORKERS":         &cfg.Population.Workers,
		"RETRY_COUNT":     &cfg.Breeding.RetryCount,
		"SAMPLE_COUNT":    &cfg.Zones.SampleCount,
	}
	for key, dst := range ints {
		v, ok := m.lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	floats := map[string]*float64{
		"CUTOFF_FRACTION":  &cfg.Population.Cutoff.Fraction,
		"CUTOFF_MIN":       &cfg.Population.Cutoff.Min,
		"CUTOFF_MAX":       &cfg.Population.Cutoff.Max,
		"ZONE_RADIUS":      &cfg.Zones.Radius,
		"MUTATION_RATE":    &cfg.Breeding.MutationRate,
		"LAMBDA_COVERAGE":  &cfg.Fitness.Weights.Coverage,
		"LAMBDA_RIDERSHIP": &cfg.Fitness.Weights.RidershipDensity,
		"LAMBDA_ZONE":      &cfg.Fitness.Weights.Zone,
		"LAMBDA_EXTREME":   &cfg.Fitness.Weights.ExtremeTrips,
		"DEFAULT_DISTANCE": &cfg.Zones.DefaultDistance,
		"ZONE_EPSILON":     &cfg.Zones.Epsilon,
	}
	for key, dst := range floats {
		v, ok := m.lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = f
	}

	if v, ok := m.lookup(EnvPrefix + "SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		cfg.Seed = seed
	}
	return nil
}

// ValidateConfig validates a configuration using the validator
func (m *ConfigManager) ValidateConfig(cfg *ExperimentConfig) error {
	return m.validator.Validate(cfg)
}

// SaveConfig writes cfg as YAML, creating the parent directory
func (m *ConfigManager) SaveConfig(cfg *ExperimentConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
