package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ducminhle1904/transit-ga/pkg/network"
	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

// Checkpoint is a JSON snapshot of a population
type Checkpoint struct {
	Name        string                      `json:"name"`
	Generation  int                         `json:"generation"`
	Size        int                         `json:"size"`
	Chromosomes []ChromosomeRecord          `json:"chromosomes"`
	Rounds      []optimization.RoundMetrics `json:"rounds"`
}

// ChromosomeRecord is one chromosome of a checkpoint. Fitness is nil when the
// chromosome was bred after the last evaluation.
type ChromosomeRecord struct {
	ID             string                `json:"id"`
	ParentA        string                `json:"parent_a,omitempty"`
	ParentB        string                `json:"parent_b,omitempty"`
	Generation     int                   `json:"generation"`
	NumTimesParent int                   `json:"num_times_parent"`
	Fitness        *optimization.Fitness `json:"fitness,omitempty"`
	Network        network.Document      `json:"network"`
}

// NewCheckpoint snapshots the population
func NewCheckpoint(pop *optimization.Population) Checkpoint {
	cp := Checkpoint{
		Name:        pop.Name(),
		Generation:  pop.Generation(),
		Size:        pop.Size(),
		Chromosomes: make([]ChromosomeRecord, 0, pop.Size()),
		Rounds:      pop.Rounds(),
	}
	for _, c := range pop.Chromosomes() {
		rec := ChromosomeRecord{
			ID:             c.ID,
			ParentA:        c.ParentA,
			ParentB:        c.ParentB,
			Generation:     c.Generation,
			NumTimesParent: c.NumTimesParent,
			Network:        network.ToDocument(c.Network),
		}
		if f, ok := c.Fitness(); ok {
			rec.Fitness = &f
		}
		cp.Chromosomes = append(cp.Chromosomes, rec)
	}
	return cp
}

// Restore rebuilds the checkpointed chromosomes, restoring cached fitness
func (cp Checkpoint) Restore(log network.Logger) ([]*optimization.Chromosome, error) {
	out := make([]*optimization.Chromosome, 0, len(cp.Chromosomes))
	for _, rec := range cp.Chromosomes {
		net, err := network.FromDocument(rec.Network, log)
		if err != nil {
			return nil, fmt.Errorf("chromosome %s: %w", rec.ID, err)
		}
		c := optimization.NewChromosome(rec.ID, net, rec.ParentA, rec.ParentB, rec.Generation)
		c.NumTimesParent = rec.NumTimesParent
		if rec.Fitness != nil {
			c.SetFitness(*rec.Fitness)
		}
		out = append(out, c)
	}
	return out, nil
}

// WriteCheckpoint writes a JSON checkpoint of the population to path
func WriteCheckpoint(pop *optimization.Population, path string) error {
	return writeJSON(NewCheckpoint(pop), path)
}

// ReadCheckpoint loads a checkpoint written by WriteCheckpoint
func ReadCheckpoint(path string) (Checkpoint, error) {
	var cp Checkpoint
	data, err := os.ReadFile(path)
	if err != nil {
		return cp, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	return cp, nil
}

// WriteBestNetwork writes the best evaluated network of the population as a
// network document and returns its chromosome
func WriteBestNetwork(pop *optimization.Population, path string) (*optimization.Chromosome, error) {
	best, ok := pop.Best()
	if !ok {
		return nil, fmt.Errorf("population %s has no evaluated chromosome", pop.Name())
	}
	if err := network.SaveJSON(best.Network, path); err != nil {
		return nil, err
	}
	return best, nil
}

// writeJSON marshals v to path through a temporary file
func writeJSON(v interface{}, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}
