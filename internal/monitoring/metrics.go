package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generation metrics
	generationCurrent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transit_ga_generation",
			Help: "Current generation of the population",
		},
		[]string{"run"},
	)

	fitnessBest = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transit_ga_best_fitness",
			Help: "Best fitness in the latest evaluated round",
		},
		[]string{"run"},
	)

	fitnessMean = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transit_ga_mean_fitness",
			Help: "Mean fitness in the latest evaluated round",
		},
		[]string{"run"},
	)

	roundDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transit_ga_round_duration_seconds",
			Help:    "Wall-clock duration of one generation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"run"},
	)

	fitnessEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_ga_fitness_evaluations_total",
			Help: "Total number of fitness evaluations performed",
		},
		[]string{"run"},
	)

	// Breeding metrics
	crossoverFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_ga_crossover_failures_total",
			Help: "Total number of breeding events that exhausted crossover sampling",
		},
		[]string{"outcome"},
	)

	// Zone evaluator metrics
	zoneFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_ga_zone_distance_fallbacks_total",
			Help: "Total number of zone distances replaced by the default distance",
		},
		[]string{"source", "target"},
	)

	zoneCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_ga_zone_cache_lookups_total",
			Help: "Zone distance cache lookups by level and result",
		},
		[]string{"level", "result"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_ga_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(generationCurrent)
	prometheus.MustRegister(fitnessBest)
	prometheus.MustRegister(fitnessMean)
	prometheus.MustRegister(roundDuration)
	prometheus.MustRegister(fitnessEvaluations)
	prometheus.MustRegister(crossoverFailures)
	prometheus.MustRegister(zoneFallbacks)
	prometheus.MustRegister(zoneCacheLookups)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordRound records the outcome of an evaluated generation
func RecordRound(run string, generation int, best, mean float64) {
	generationCurrent.WithLabelValues(run).Set(float64(generation))
	fitnessBest.WithLabelValues(run).Set(best)
	fitnessMean.WithLabelValues(run).Set(mean)
}

// ObserveRoundDuration records how long a generation took
func ObserveRoundDuration(run string, d time.Duration) {
	roundDuration.WithLabelValues(run).Observe(d.Seconds())
}

// RecordEvaluations adds to the fitness evaluation counter
func RecordEvaluations(run string, n int) {
	fitnessEvaluations.WithLabelValues(run).Add(float64(n))
}

// RecordCrossoverFailure counts a breeding event that fell back; outcome is "retried" or "cloned"
func RecordCrossoverFailure(outcome string) {
	crossoverFailures.WithLabelValues(outcome).Inc()
}

// RecordZoneFallback counts a zone distance replaced by the default
func RecordZoneFallback(source, target string) {
	zoneFallbacks.WithLabelValues(source, target).Inc()
}

// RecordCacheLookup records a zone cache lookup; level is "route" or "stop"
func RecordCacheLookup(level string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	zoneCacheLookups.WithLabelValues(level, result).Inc()
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
