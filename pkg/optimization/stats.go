package optimization

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ComponentStats summarizes one fitness component over a round
type ComponentStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
}

// RoundMetrics is the record appended to the metrics log for each evaluated round
type RoundMetrics struct {
	Generation        int                       `json:"generation"`
	BestIndex         int                       `json:"best_index"`
	BestID            string                    `json:"best_id"`
	BestFitness       float64                   `json:"best_fitness"`
	Stats             map[string]ComponentStats `json:"stats"`
	Evaluated         int                       `json:"evaluated"`
	CrossoverFailures int                       `json:"crossover_failures"`
	Fallbacks         int                       `json:"fallbacks"`
	Duration          time.Duration             `json:"duration"`
}

// Summarize computes mean, median and sample standard deviation. The standard
// deviation of fewer than two values is zero.
func Summarize(values []float64) ComponentStats {
	if len(values) == 0 {
		return ComponentStats{}
	}
	s := ComponentStats{
		Mean:   stat.Mean(values, nil),
		Median: median(values),
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}

// median averages the two middle values for even-length input
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func summarizeRound(fitness []Fitness) map[string]ComponentStats {
	stats := make(map[string]ComponentStats, len(ComponentNames))
	values := make([]float64, len(fitness))
	for _, name := range ComponentNames {
		for i, f := range fitness {
			values[i] = f.Component(name)
		}
		stats[name] = Summarize(values)
	}
	return stats
}
