package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker reports the progress of a running optimization
type HealthChecker struct {
	mu          sync.RWMutex
	started     time.Time
	lastRound   time.Time
	generation  int
	generations int
	bestFitness float64
	done        bool
	errors      []string
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Generation  int       `json:"generation"`
	Generations int       `json:"generations"`
	BestFitness float64   `json:"best_fitness"`
	LastRound   time.Time `json:"last_round"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

func NewHealthChecker(generations int) *HealthChecker {
	return &HealthChecker{
		started:     time.Now(),
		generations: generations,
		errors:      make([]string, 0),
	}
}

// RoundCompleted records the latest finished generation
func (h *HealthChecker) RoundCompleted(generation int, bestFitness float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.generation = generation
	h.bestFitness = bestFitness
	h.lastRound = time.Now()
}

// Finish marks the run complete, recording err when the run failed
func (h *HealthChecker) Finish(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	if err != nil {
		h.errors = append(h.errors, err.Error())
	}
}

// Status returns a snapshot of the run state
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "running"
	switch {
	case len(h.errors) > 0:
		status = "failed"
	case h.done:
		status = "completed"
	}

	return HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		Generation:  h.generation,
		Generations: h.generations,
		BestFitness: h.bestFitness,
		LastRound:   h.lastRound,
		Uptime:      time.Since(h.started).String(),
		Errors:      append([]string(nil), h.errors...),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "failed" {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(health)
}
