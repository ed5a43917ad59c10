package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// RoundsHeader is the header row of the metrics export
func RoundsHeader() []string {
	header := []string{"iteration", "best_performer", "best_id", "best_fitness"}
	header = append(header, metricColumns()...)
	header = append(header, "crossover_failures", "fallbacks", "time")
	return header
}

// WriteRoundsCSV writes one row per evaluated round to path
func WriteRoundsCSV(rounds []optimization.RoundMetrics, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeRoundsCSV(f, rounds); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// EncodeRoundsCSV writes the metrics table to w
func EncodeRoundsCSV(w io.Writer, rounds []optimization.RoundMetrics) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RoundsHeader()); err != nil {
		return err
	}

	for _, r := range rounds {
		row := []string{
			strconv.Itoa(r.Generation),
			strconv.Itoa(r.BestIndex),
			r.BestID,
			formatFloat(r.BestFitness),
		}
		for _, v := range metricValues(r) {
			row = append(row, formatFloat(v))
		}
		row = append(row,
			strconv.Itoa(r.CrossoverFailures),
			strconv.Itoa(r.Fallbacks),
			formatFloat(r.Duration.Seconds()),
		)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
