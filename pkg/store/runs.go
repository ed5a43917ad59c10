package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// RunRecord is one row of the run history
type RunRecord struct {
	ID                string
	Name              string
	NetworkID         string
	Seed              int64
	Population        int
	Generations       int
	Weights           optimization.Weights
	InitialFitness    float64
	BestID            string
	BestFitness       float64
	CrossoverFailures int
	Fallbacks         int
	Duration          time.Duration
	OutputDir         string
	StartedAt         time.Time
}

// RoundRecord is the stored subset of a round's metrics
type RoundRecord struct {
	Generation        int
	BestID            string
	BestFitness       float64
	MeanFitness       float64
	MedianFitness     float64
	StdDevFitness     float64
	Evaluated         int
	CrossoverFailures int
	Fallbacks         int
	Duration          time.Duration
}

// NewRoundRecord keeps the fitness statistics of a round
func NewRoundRecord(r optimization.RoundMetrics) RoundRecord {
	f := r.Stats[optimization.ComponentFitness]
	return RoundRecord{
		Generation:        r.Generation,
		BestID:            r.BestID,
		BestFitness:       r.BestFitness,
		MeanFitness:       f.Mean,
		MedianFitness:     f.Median,
		StdDevFitness:     f.StdDev,
		Evaluated:         r.Evaluated,
		CrossoverFailures: r.CrossoverFailures,
		Fallbacks:         r.Fallbacks,
		Duration:          r.Duration,
	}
}

const insertRun = `
INSERT INTO runs (
    id, name, network_id, seed, population, generations,
    w_coverage, w_ridership_density, w_zone, w_extreme_trips,
    initial_fitness, best_id, best_fitness, crossover_failures, fallbacks,
    duration_ms, output_dir, started_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertRound = `
INSERT INTO rounds (
    run_id, generation, best_id, best_fitness, mean_fitness, median_fitness,
    stddev_fitness, evaluated, crossover_failures, fallbacks, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SaveRun stores a run with its rounds in one transaction and returns the run
// id, generating one when rec.ID is empty
func (db *DB) SaveRun(ctx context.Context, rec RunRecord, rounds []optimization.RoundMetrics) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, insertRun,
		rec.ID, rec.Name, rec.NetworkID, rec.Seed, rec.Population, rec.Generations,
		rec.Weights.Coverage, rec.Weights.RidershipDensity, rec.Weights.Zone, rec.Weights.ExtremeTrips,
		rec.InitialFitness, rec.BestID, rec.BestFitness, rec.CrossoverFailures, rec.Fallbacks,
		rec.Duration.Milliseconds(), rec.OutputDir, rec.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", rec.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRound)
	if err != nil {
		return "", fmt.Errorf("failed to prepare round insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rounds {
		rr := NewRoundRecord(r)
		_, err := stmt.ExecContext(ctx, rec.ID, rr.Generation, rr.BestID, rr.BestFitness,
			rr.MeanFitness, rr.MedianFitness, rr.StdDevFitness, rr.Evaluated,
			rr.CrossoverFailures, rr.Fallbacks, rr.Duration.Milliseconds())
		if err != nil {
			return "", fmt.Errorf("failed to insert round %d: %w", rr.Generation, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", rec.Name, err)
	}

	db.log.Info("Stored run %s (%s) with %d rounds", rec.Name, rec.ID, len(rounds))
	return rec.ID, nil
}

// ListRuns returns every stored run, most recent first
func (db *DB) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
SELECT id, name, network_id, seed, population, generations,
       w_coverage, w_ridership_density, w_zone, w_extreme_trips,
       initial_fitness, best_id, best_fitness, crossover_failures, fallbacks,
       duration_ms, output_dir, started_at
FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// Rounds returns the stored rounds of a run in generation order
func (db *DB) Rounds(ctx context.Context, runID string) ([]RoundRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
SELECT generation, best_id, best_fitness, mean_fitness, median_fitness, stddev_fitness,
       evaluated, crossover_failures, fallbacks, duration_ms
FROM rounds WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		var r RoundRecord
		var ms int64
		if err := rows.Scan(&r.Generation, &r.BestID, &r.BestFitness, &r.MeanFitness, &r.MedianFitness,
			&r.StdDevFitness, &r.Evaluated, &r.CrossoverFailures, &r.Fallbacks, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var rec RunRecord
	var ms int64
	var started string
	err := rows.Scan(&rec.ID, &rec.Name, &rec.NetworkID, &rec.Seed, &rec.Population, &rec.Generations,
		&rec.Weights.Coverage, &rec.Weights.RidershipDensity, &rec.Weights.Zone, &rec.Weights.ExtremeTrips,
		&rec.InitialFitness, &rec.BestID, &rec.BestFitness, &rec.CrossoverFailures, &rec.Fallbacks,
		&ms, &rec.OutputDir, &started)
	if err != nil {
		return rec, fmt.Errorf("failed to scan run: %w", err)
	}
	rec.Duration = time.Duration(ms) * time.Millisecond
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return rec, fmt.Errorf("run %s has invalid start time %q: %w", rec.ID, started, err)
	}
	return rec, nil
}
