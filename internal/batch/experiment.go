package batch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/internal/monitoring"
	"github.com/ducminhle1904/transit-ga/internal/recovery"
	"github.com/ducminhle1904/transit-ga/pkg/config"
	"github.com/ducminhle1904/transit-ga/pkg/network"
	"github.com/ducminhle1904/transit-ga/pkg/optimization"
	"github.com/ducminhle1904/transit-ga/pkg/reporting"
	"github.com/ducminhle1904/transit-ga/pkg/store"
	"github.com/ducminhle1904/transit-ga/pkg/zones"
)

// Inputs are the read-only data shared by every experiment of a batch
type Inputs struct {
	Network *network.Network
	Zones   []zones.Zone
	Paths   []zones.TransitPath
}

// LoadInputs reads the initial network and the zone files named by cfg. Without
// zone files the default San Francisco zones and hub-and-spoke paths are used.
func LoadInputs(cfg *config.ExperimentConfig, log network.Logger) (Inputs, error) {
	var in Inputs

	net, err := network.LoadJSON(cfg.NetworkFile, log)
	if err != nil {
		return in, errors.NewIOError("inputs", "load_network", err)
	}
	in.Network = net

	in.Zones = zones.DefaultZones()
	if cfg.ZonesFile != "" {
		if in.Zones, err = zones.LoadCSV(cfg.ZonesFile); err != nil {
			return in, errors.NewIOError("inputs", "load_zones", err)
		}
	}
	in.Paths = zones.DefaultPaths()
	if cfg.PathsFile != "" {
		if in.Paths, err = zones.LoadPathsCSV(cfg.PathsFile); err != nil {
			return in, errors.NewIOError("inputs", "load_paths", err)
		}
	}

	if err := zones.Validate(in.Zones, in.Paths); err != nil {
		return in, errors.WrapError(err, errors.ErrorCategoryConfiguration, "inputs", "validate_zones")
	}
	return in, nil
}

// Options selects the optional outputs of a run
type Options struct {
	WriteXLSX bool
	Store     *store.DB
	Health    *monitoring.HealthChecker
	Recovery  *recovery.RecoveryHandler
	Configs   *config.ConfigManager
	// Console receives the round and summary tables; nil prints nothing
	Console io.Writer
	Log     optimization.Logger
}

// Runner runs single experiments over shared inputs
type Runner struct {
	inputs Inputs
	opts   Options
}

// NewRunner creates a runner
func NewRunner(inputs Inputs, opts Options) *Runner {
	if opts.Log == nil {
		opts.Log = nopLogger{}
	}
	if opts.Recovery == nil {
		opts.Recovery = recovery.NewRecoveryHandler(recovery.DefaultRetryConfig(), opts.Log)
	}
	if opts.Configs == nil {
		opts.Configs = config.NewConfigManager()
	}
	return &Runner{inputs: inputs, opts: opts}
}

// Run evolves one population as configured by cfg and writes its outputs to
// cfg.OutputDir
func (r *Runner) Run(ctx context.Context, cfg *config.ExperimentConfig) (ExperimentResult, error) {
	start := time.Now()
	log := r.opts.Log
	result := ExperimentResult{Name: cfg.Name, OutputDir: cfg.OutputDir}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return result, errors.NewIOError("experiment", "create_output", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	opt, err := optimization.NewPopulationFromNetwork(r.inputs.Network, r.inputs.Zones, r.inputs.Paths, cfg.Settings(), rng, log)
	if err != nil {
		return result, fmt.Errorf("failed to create population for %s: %w", cfg.Name, err)
	}

	initial, err := opt.Fitness.Evaluate(r.inputs.Network)
	if err != nil {
		return result, fmt.Errorf("failed to evaluate initial network: %w", err)
	}

	if h := r.opts.Health; h != nil {
		opt.Population.OnRound(func(m optimization.RoundMetrics) {
			h.RoundCompleted(m.Generation, m.BestFitness)
		})
	}

	log.Info("Starting %s", cfg)
	rounds, err := opt.Population.Run(ctx, cfg.Population.Generations)
	result.Rounds = rounds
	if err != nil {
		if optErr, ok := err.(*errors.OptimizerError); ok {
			monitoring.RecordError(string(optErr.Category))
		}
		return result, fmt.Errorf("run %s stopped at generation %d: %w", cfg.Name, opt.Population.Generation(), err)
	}

	summary := reporting.RunSummary{
		Name:        cfg.Name,
		NetworkID:   r.inputs.Network.ID(),
		Population:  cfg.Population.Size,
		Generations: cfg.Population.Generations,
		Seed:        cfg.Seed,
		Weights:     cfg.Fitness.Weights,
		Initial:     initial,
		Cache:       opt.Zones.CacheStats(),
		OutputDir:   cfg.OutputDir,
	}
	for _, m := range rounds {
		summary.Crossovers += m.CrossoverFailures
		summary.Fallbacks += m.Fallbacks
	}

	if err := r.writeOutputs(ctx, cfg, opt.Population, &summary); err != nil {
		return result, err
	}
	summary.Duration = time.Since(start)
	result.Summary = summary

	if r.opts.Store != nil {
		id, err := r.opts.Store.SaveRun(ctx, store.RunRecord{
			Name:              cfg.Name,
			NetworkID:         summary.NetworkID,
			Seed:              cfg.Seed,
			Population:        cfg.Population.Size,
			Generations:       cfg.Population.Generations,
			Weights:           cfg.Fitness.Weights,
			InitialFitness:    initial.Total,
			BestID:            summary.BestID,
			BestFitness:       summary.BestFitness.Total,
			CrossoverFailures: summary.Crossovers,
			Fallbacks:         summary.Fallbacks,
			Duration:          summary.Duration,
			OutputDir:         cfg.OutputDir,
			StartedAt:         start,
		}, rounds)
		if err != nil {
			log.Warning("Run history not stored: %v", err)
		}
		result.RunID = id
	}

	if w := r.opts.Console; w != nil {
		reporting.PrintRoundsTable(w, rounds)
		reporting.PrintRunSummary(w, summary)
	}

	result.Duration = summary.Duration
	log.Info("Finished %s in %s: best %.4f (initial %.4f)", cfg.Name,
		summary.Duration.Round(time.Millisecond), summary.BestFitness.Total, initial.Total)
	return result, nil
}

// Estimate times n generations of cfg's population without writing outputs
// and extrapolates the mean generation time to cfg's generation count
func (r *Runner) Estimate(ctx context.Context, cfg *config.ExperimentConfig, n int) (perGeneration, total time.Duration, err error) {
	if n <= 0 {
		return 0, 0, errors.NewConfigurationError("experiment", "estimate", fmt.Sprintf("estimate needs at least one generation, got %d", n))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	opt, err := optimization.NewPopulationFromNetwork(r.inputs.Network, r.inputs.Zones, r.inputs.Paths, cfg.Settings(), rng, r.opts.Log)
	if err != nil {
		return 0, 0, err
	}

	rounds, err := opt.Population.Run(ctx, n)
	if err != nil {
		return 0, 0, err
	}

	var elapsed time.Duration
	for _, m := range rounds {
		elapsed += m.Duration
	}
	perGeneration = elapsed / time.Duration(len(rounds))
	return perGeneration, perGeneration * time.Duration(cfg.Population.Generations), nil
}

// writeOutputs writes metrics, checkpoint, best network and the config
// snapshot, retrying transient IO failures
func (r *Runner) writeOutputs(ctx context.Context, cfg *config.ExperimentConfig, pop *optimization.Population, summary *reporting.RunSummary) error {
	dir := cfg.OutputDir
	rounds := pop.Rounds()
	rh := r.opts.Recovery

	if err := rh.ExecuteWithRecovery(ctx, "reporting", "write_csv", func() error {
		return reporting.WriteRoundsCSV(rounds, filepath.Join(dir, config.MetricsCSVFile))
	}); err != nil {
		return err
	}

	if err := rh.ExecuteWithRecovery(ctx, "reporting", "write_best_network", func() error {
		best, err := reporting.WriteBestNetwork(pop, filepath.Join(dir, config.BestNetworkFile))
		if err != nil {
			return err
		}
		summary.BestID = best.ID
		summary.BestLineage = best.Lineage()
		summary.BestFitness, _ = best.Fitness()
		return nil
	}); err != nil {
		return err
	}

	if err := rh.ExecuteWithRecovery(ctx, "reporting", "write_checkpoint", func() error {
		return reporting.WriteCheckpoint(pop, filepath.Join(dir, config.CheckpointFile))
	}); err != nil {
		return err
	}

	if err := rh.ExecuteWithRecovery(ctx, "config", "save_snapshot", func() error {
		return r.opts.Configs.SaveConfig(cfg, filepath.Join(dir, config.ConfigSnapshotFile))
	}); err != nil {
		return err
	}

	if r.opts.WriteXLSX {
		if err := rh.ExecuteWithRecovery(ctx, "reporting", "write_xlsx", func() error {
			return reporting.WriteRoundsXLSX(rounds, *summary, filepath.Join(dir, config.MetricsXLSXFile))
		}); err != nil {
			return err
		}
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}
