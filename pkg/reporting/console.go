package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// PrintRoundsTable renders one line per round: best and mean fitness with the
// mean of every weighted component
func PrintRoundsTable(w io.Writer, rounds []optimization.RoundMetrics) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("GENERATIONS")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Gen", "Best", "Best ID", "Mean", "StdDev", "Density", "Zone", "Extreme", "Coverage", "Fails", "Time"})
	for _, r := range rounds {
		fitness := r.Stats[optimization.ComponentFitness]
		t.AppendRow(table.Row{
			r.Generation,
			fmt.Sprintf("%.4f", r.BestFitness),
			shortID(r.BestID),
			fmt.Sprintf("%.4f", fitness.Mean),
			fmt.Sprintf("%.4f", fitness.StdDev),
			fmt.Sprintf("%.4f", r.Stats[optimization.ComponentRidershipDensity].Mean),
			fmt.Sprintf("%.4f", r.Stats[optimization.ComponentZone].Mean),
			fmt.Sprintf("%.4f", r.Stats[optimization.ComponentExtremeTrips].Mean),
			fmt.Sprintf("%.4f", r.Stats[optimization.ComponentCoverage].Mean),
			fmt.Sprintf("%d/%d", r.CrossoverFailures, r.Fallbacks),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, WidthMax: 10},
	})
	t.Render()
	fmt.Fprintln(w)
}

// PrintRunSummary renders the outcome of a run
func PrintRunSummary(w io.Writer, s RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("RUN SUMMARY")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Run", s.Name},
		{"Initial network", s.NetworkID},
		{"Population", s.Population},
		{"Generations", s.Generations},
		{"Seed", s.Seed},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Weights (cov/rd/z/et)", fmt.Sprintf("%g / %g / %g / %g",
			s.Weights.Coverage, s.Weights.RidershipDensity, s.Weights.Zone, s.Weights.ExtremeTrips)},
		{"Initial fitness", fmt.Sprintf("%.4f", s.Initial.Total)},
		{"Best fitness", fmt.Sprintf("%.4f", s.BestFitness.Total)},
		{"Improvement", fmt.Sprintf("%+.2f%%", s.Improvement()*100)},
		{"Best chromosome", s.BestID},
		{"Lineage", s.BestLineage},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"Crossover failures", s.Crossovers},
		{"Clone fallbacks", s.Fallbacks},
		{"Zone cache hits", fmt.Sprintf("route %d, stop %d", s.Cache.RouteHits, s.Cache.StopHits)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	})
	if s.OutputDir != "" {
		t.AppendRow(table.Row{"Output", s.OutputDir})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, WidthMax: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 60, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Fprintln(w)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintBatchTable renders one line per finished run of a weight sweep
func PrintBatchTable(w io.Writer, runs []RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BATCH RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Run", "Cov", "RD", "Zone", "ET", "Initial", "Best", "Improvement", "Fails", "Time"})
	for _, s := range runs {
		t.AppendRow(table.Row{
			s.Name,
			s.Weights.Coverage,
			s.Weights.RidershipDensity,
			s.Weights.Zone,
			s.Weights.ExtremeTrips,
			fmt.Sprintf("%.4f", s.Initial.Total),
			fmt.Sprintf("%.4f", s.BestFitness.Total),
			fmt.Sprintf("%+.2f%%", s.Improvement()*100),
			fmt.Sprintf("%d/%d", s.Crossovers, s.Fallbacks),
			s.Duration.Round(time.Millisecond).String(),
		})
	}
	t.Render()
	fmt.Fprintln(w)
}
