// Package reporting exports optimization results: per-round metrics as CSV and
// XLSX, console tables, and JSON checkpoints of the population.
package reporting

import (
	"time"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// RunSummary describes a finished run for console and history output
type RunSummary struct {
	Name        string
	NetworkID   string
	Population  int
	Generations int
	Seed        int64
	Weights     optimization.Weights
	BestID      string
	BestLineage string
	BestFitness optimization.Fitness
	Initial     optimization.Fitness
	Crossovers  int
	Fallbacks   int
	Cache       optimization.CacheStats
	Duration    time.Duration
	OutputDir   string
}

// Improvement returns the relative change of the best total fitness over the initial network
func (s RunSummary) Improvement() float64 {
	if s.Initial.Total == 0 {
		return 0
	}
	return (s.BestFitness.Total - s.Initial.Total) / s.Initial.Total
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle  int
	NumberStyle  int
	IntegerStyle int
	BestStyle    int
	LabelStyle   int
}

// metricColumns returns the avg/med/stddev column names of every component, in export order
func metricColumns() []string {
	cols := make([]string, 0, 3*len(optimization.ComponentNames))
	for _, name := range optimization.ComponentNames {
		cols = append(cols, "avg_"+name, "med_"+name, "stddev_"+name)
	}
	return cols
}

// metricValues returns the values matching metricColumns for one round
func metricValues(r optimization.RoundMetrics) []float64 {
	vals := make([]float64, 0, 3*len(optimization.ComponentNames))
	for _, name := range optimization.ComponentNames {
		s := r.Stats[name]
		vals = append(vals, s.Mean, s.Median, s.StdDev)
	}
	return vals
}
