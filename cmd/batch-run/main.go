package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ducminhle1904/transit-ga/cmd/common"
	"github.com/ducminhle1904/transit-ga/internal/batch"
	"github.com/ducminhle1904/transit-ga/pkg/config"
	"github.com/ducminhle1904/transit-ga/pkg/reporting"
)

func main() {
	flags := common.RegisterCommonFlags(flag.CommandLine)
	jobs := flag.Int("jobs", 1, "Experiments run concurrently")
	common.NewUsageFormatter("batch-run", "Sweep fitness weight sets over one initial network").
		AddExample("batch-run -network data/initial_network.json -population 10 -generations 100 -output results/sweep",
			"Run the nine default weight sets one after another").
		AddExample("batch-run -config sweep.yml -jobs 3 -db results/runs.db",
			"Run the configured batches three at a time and record them in the run history").
		Install(flag.CommandLine)
	flag.Parse()

	if *flags.Version {
		common.PrintVersion("batch-run")
		return
	}

	if err := run(flags, *jobs); err != nil {
		fmt.Fprintf(os.Stderr, "batch-run: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *common.CommonFlags, workers int) error {
	if err := flags.Validate(); err != nil {
		return err
	}
	if err := common.NewFlagValidator().ValidateInt("jobs", workers, 1, 64).GetError(); err != nil {
		return err
	}
	if _, err := common.LoadEnvFile(*flags.EnvFile); err != nil {
		return err
	}

	cfg, err := common.LoadExperiment(flags)
	if err != nil {
		return err
	}

	log, err := common.NewRunLogger(cfg.OutputDir, cfg.Name, flags)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputs, err := batch.LoadInputs(cfg, log)
	if err != nil {
		log.LogError("Failed to load inputs", err)
		return err
	}

	batches := cfg.Batches
	if len(batches) == 0 {
		batches = config.DefaultBatches()
	}
	log.Info("Running %d batches with population %d for %d generations", len(batches), cfg.Population.Size, cfg.Population.Generations)

	server := common.StartMonitoring(*flags.MetricsAddr, nil, log)
	defer common.StopMonitoring(server)

	history, err := common.OpenHistory(ctx, cfg.DatabaseFile, log)
	if err != nil {
		log.Warning("Run history disabled: %v", err)
	}
	if history != nil {
		defer history.Close()
	}

	runner := batch.NewRunner(inputs, batch.Options{
		WriteXLSX: *flags.XLSX,
		Store:     history,
		Log:       log,
	})

	results, err := batch.RunBatch(ctx, batch.Jobs(cfg, batches), workers, runner.Run, log)
	if err != nil {
		return err
	}

	var summaries []reporting.RunSummary
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			continue
		}
		summaries = append(summaries, r.Summary)
	}
	reporting.PrintBatchTable(os.Stdout, summaries)

	if failed > 0 {
		return fmt.Errorf("%d of %d batches failed", failed, len(results))
	}
	return nil
}
