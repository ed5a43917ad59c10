package optimization

import (
	"fmt"

	"github.com/ducminhle1904/transit-ga/pkg/network"
)

// Chromosome wraps a candidate network with lineage and its cached fitness.
// ID is permanent; RoundIndex is reassigned every evaluation round.
type Chromosome struct {
	ID             string
	Network        *network.Network
	ParentA        string
	ParentB        string
	Generation     int
	RoundIndex     int
	NumTimesParent int

	fitness   Fitness
	evaluated bool
}

// NewChromosome creates a chromosome for a network
func NewChromosome(id string, net *network.Network, parentA, parentB string, generation int) *Chromosome {
	return &Chromosome{
		ID:         id,
		Network:    net,
		ParentA:    parentA,
		ParentB:    parentB,
		Generation: generation,
		RoundIndex: -1,
	}
}

// Fitness returns the cached fitness and whether it has been computed
func (c *Chromosome) Fitness() (Fitness, bool) {
	return c.fitness, c.evaluated
}

// SetFitness caches a fitness result
func (c *Chromosome) SetFitness(f Fitness) {
	c.fitness = f
	c.evaluated = true
}

// Score returns the total fitness, or zero when not yet evaluated
func (c *Chromosome) Score() float64 {
	if !c.evaluated {
		return 0
	}
	return c.fitness.Total
}

// Lineage describes the chromosome's parents
func (c *Chromosome) Lineage() string {
	if c.ParentA == "" && c.ParentB == "" {
		return c.ID
	}
	return fmt.Sprintf("(%s):(%s)", c.ParentA, c.ParentB)
}

func (c *Chromosome) String() string {
	return fmt.Sprintf("Chromosome[%s gen=%d round=%d net=%s]", c.ID, c.Generation, c.RoundIndex, c.Network.ID())
}
