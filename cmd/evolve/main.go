package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/transit-ga/cmd/common"
	"github.com/ducminhle1904/transit-ga/internal/batch"
	"github.com/ducminhle1904/transit-ga/internal/monitoring"
)

func main() {
	flags := common.RegisterCommonFlags(flag.CommandLine)
	local := registerEvolveFlags(flag.CommandLine)
	usage().Install(flag.CommandLine)
	flag.Parse()

	if *flags.Version {
		common.PrintVersion("evolve")
		return
	}

	if err := run(flags, local); err != nil {
		fmt.Fprintf(os.Stderr, "evolve: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *common.CommonFlags, local *evolveFlags) error {
	if err := flags.Validate(); err != nil {
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
	log.Info("Loaded %s", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputs, err := batch.LoadInputs(cfg, log)
	if err != nil {
		log.LogError("Failed to load inputs", err)
		return err
	}
	log.Info("Initial network: %s", inputs.Network)

	if *local.Estimate > 0 {
		per, total, err := batch.NewRunner(inputs, batch.Options{Log: log}).Estimate(ctx, cfg, *local.Estimate)
		if err != nil {
			return err
		}
		fmt.Printf("%d generations of %d chromosomes: about %s per generation, %s in total\n",
			cfg.Population.Generations, cfg.Population.Size,
			per.Round(time.Millisecond), total.Round(time.Second))
		return nil
	}

	health := monitoring.NewHealthChecker(cfg.Population.Generations)
	server := common.StartMonitoring(*flags.MetricsAddr, health, log)
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
		Health:    health,
		Console:   os.Stdout,
		Log:       log,
	})

	_, err = runner.Run(ctx, cfg)
	health.Finish(err)
	if err != nil {
		log.LogError("Run failed", err)
		return err
	}
	return nil
}
