package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// ExperimentValidator validates experiment configurations: field rules through
// struct tags, then the cross-field rules tags cannot express
type ExperimentValidator struct {
	v *validator.Validate
}

// NewExperimentValidator creates a new experiment validator
func NewExperimentValidator() *ExperimentValidator {
	return &ExperimentValidator{v: validator.New()}
}

// Validate performs comprehensive validation on an experiment configuration
func (ev *ExperimentValidator) Validate(cfg *ExperimentConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	if err := ev.v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid field: %w", err)
	}
	if err := ev.validateCutoff(cfg); err != nil {
		return err
	}
	return ev.validateBatches(cfg)
}

// validateCutoff rejects schedules that would leave no elite at some generation
func (ev *ExperimentValidator) validateCutoff(cfg *ExperimentConfig) error {
	c := cfg.Population.Cutoff
	if c.Schedule == ScheduleConstant && c.Fraction <= 0 {
		return fmt.Errorf("cutoff fraction must be positive, got: %.3f", c.Fraction)
	}
	if c.Schedule == ScheduleLinear && c.Min > c.Max {
		return fmt.Errorf("linear cutoff min %.3f exceeds max %.3f", c.Min, c.Max)
	}

	lowest := cfg.minCutoff()
	if optimization.EliteCount(lowest, cfg.Population.Size) < 1 {
		return fmt.Errorf("cutoff %.3f keeps no elite in a population of %d; need at least %.3f",
			lowest, cfg.Population.Size, 0.5/float64(cfg.Population.Size))
	}
	return nil
}

func (ev *ExperimentValidator) validateBatches(cfg *ExperimentConfig) error {
	for i, w := range cfg.Batches {
		if w.Coverage == 0 && w.RidershipDensity == 0 && w.Zone == 0 && w.ExtremeTrips == 0 {
			return fmt.Errorf("batch %d has all-zero weights", i+1)
		}
	}
	return nil
}
