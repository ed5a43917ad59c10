package main

import (
	"flag"

	"github.com/ducminhle1904/transit-ga/cmd/common"
)

// evolveFlags are the flags specific to a single run
type evolveFlags struct {
	Estimate *int
}

func registerEvolveFlags(fs *flag.FlagSet) *evolveFlags {
	return &evolveFlags{
		Estimate: fs.Int("estimate", 0, "Time N generations and extrapolate the full run time instead of running"),
	}
}

func usage() *common.UsageFormatter {
	return common.NewUsageFormatter("evolve", "Evolve a transit network with a genetic algorithm").
		AddExample("evolve -network data/initial_network.json -population 10 -generations 500",
			"Run with the default zones and weights").
		AddExample("evolve -config experiment.yml -seed 7 -xlsx -db results/runs.db",
			"Run a configured experiment, write an Excel report and record it in the run history").
		AddExample("evolve -config experiment.yml -estimate 3",
			"Estimate the run time from three timed generations").
		AddExample("evolve -config experiment.yml -metrics-addr :9090 -v 2",
			"Expose Prometheus metrics and health while running")
}
