package optimization

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/pkg/network"
)

// Crossover identifies two compatible trips and the stop they are spliced at.
// TripA and TripB index the parent spec lists they were sampled from.
type Crossover struct {
	TripA      int
	TripB      int
	SharedStop string
	IndexA     int
	IndexB     int
}

// MutationConfig controls random trip removal applied to children
type MutationConfig struct {
	Rate  float64
	Delta int
}

// NetworkBreeder splices trips of two parent networks at a shared stop
type NetworkBreeder struct {
	retries  int
	mutation MutationConfig
	log      Logger
}

// NewNetworkBreeder creates a breeder that tries retries random trip pairs per breeding event
func NewNetworkBreeder(retries int, mutation MutationConfig, log Logger) *NetworkBreeder {
	if retries <= 0 {
		retries = DefaultRetryCount
	}
	return &NetworkBreeder{
		retries:  retries,
		mutation: mutation,
		log:      orNop(log),
	}
}

// SampleCrossover draws random trip pairs until one is compatible: distinct trip
// ids, the same direction, and at least one shared stop. The first stop of the
// trip from a that the trip from b also visits is the crossover point.
func (b *NetworkBreeder) SampleCrossover(a, bTrips []network.TripSpec, rng *rand.Rand) (Crossover, error) {
	if len(a) == 0 || len(bTrips) == 0 {
		return Crossover{}, errors.NewSamplingExhaustedError("breeder", "sample_crossover", 0)
	}

	for attempt := 1; attempt <= b.retries; attempt++ {
		ia := rng.Intn(len(a))
		ib := rng.Intn(len(bTrips))
		t1, t2 := a[ia], bTrips[ib]

		if t1.ID == t2.ID || t1.Direction != t2.Direction {
			continue
		}
		shared, ok := network.SharedStop(t1, t2)
		if !ok {
			continue
		}

		i1, _ := t1.IndexOf(shared)
		i2, _ := t2.IndexOf(shared)
		b.log.Debug("Crossover sampled on attempt %d: %s x %s at %s", attempt, t1.ID, t2.ID, shared)
		return Crossover{TripA: ia, TripB: ib, SharedStop: shared, IndexA: i1, IndexB: i2}, nil
	}

	return Crossover{}, errors.NewSamplingExhaustedError("breeder", "sample_crossover", b.retries)
}

// Recombine builds the two child trips of a crossover:
// x = t1[:i1] ++ t2[i2:] and y = t2[:i2] ++ t1[i1:], shapes spliced alike.
func Recombine(t1, t2 network.TripSpec, c Crossover, rng *rand.Rand) (x, y network.TripSpec) {
	x = splice(t1, t2, c.IndexA, c.IndexB, rng)
	y = splice(t2, t1, c.IndexB, c.IndexA, rng)
	return x, y
}

func splice(head, tail network.TripSpec, headEnd, tailStart int, rng *rand.Rand) network.TripSpec {
	h := head.Clone()
	t := tail.Clone()

	child := network.TripSpec{
		ID:        newID(rng),
		RouteID:   newID(rng),
		Headsign:  head.Headsign,
		Direction: head.Direction,
		Stops:     make([]network.Stop, 0, headEnd+len(t.Stops)-tailStart),
	}
	child.Stops = append(child.Stops, h.Stops[:headEnd]...)
	child.Stops = append(child.Stops, t.Stops[tailStart:]...)

	child.Shapes = make([][]network.ShapePoint, 0, len(child.Stops))
	child.Shapes = append(child.Shapes, partitions(h.Shapes, 0, headEnd)...)
	child.Shapes = append(child.Shapes, partitions(t.Shapes, tailStart, len(t.Stops))...)
	return child
}

// partitions returns shapes[from:to], padding missing partitions with empty ones
func partitions(shapes [][]network.ShapePoint, from, to int) [][]network.ShapePoint {
	out := make([][]network.ShapePoint, to-from)
	for i := from; i < to && i < len(shapes); i++ {
		out[i-from] = shapes[i]
	}
	return out
}

// BreedPair produces two complementary children: a without t1 plus x, and b
// without t2 plus y. Parents are not modified.
func (b *NetworkBreeder) BreedPair(a, bNet *network.Network, idA, idB string, rng *rand.Rand) (*network.Network, *network.Network, error) {
	aSpecs := a.Specs()
	bSpecs := bNet.Specs()

	c, err := b.SampleCrossover(aSpecs, bSpecs, rng)
	if err != nil {
		b.log.Warning("Failed to breed networks %s and %s: %v", a.ID(), bNet.ID(), err)
		return nil, nil, err
	}

	x, y := Recombine(aSpecs[c.TripA], bSpecs[c.TripB], c, rng)

	childA := append(without(aSpecs, c.TripA), x)
	childB := append(without(bSpecs, c.TripB), y)
	childA = b.mutate(childA, rng)
	childB = b.mutate(childB, rng)

	return network.NewNetwork(idA, childA, b.log), network.NewNetwork(idB, childB, b.log), nil
}

// Breed produces a single child: a without its sampled trip plus both child
// trips. A trip of a sharing the id of b's sampled trip is kept.
func (b *NetworkBreeder) Breed(a, bNet *network.Network, id string, rng *rand.Rand) (*network.Network, error) {
	aSpecs := a.Specs()
	bSpecs := bNet.Specs()

	c, err := b.SampleCrossover(aSpecs, bSpecs, rng)
	if err != nil {
		b.log.Warning("Failed to breed networks %s and %s: %v", a.ID(), bNet.ID(), err)
		return nil, err
	}

	x, y := Recombine(aSpecs[c.TripA], bSpecs[c.TripB], c, rng)

	child := append(without(aSpecs, c.TripA), x, y)
	child = b.mutate(child, rng)

	return network.NewNetwork(id, child, b.log), nil
}

// mutate removes between 1 and Delta random trips with probability Rate,
// always leaving at least one trip
func (b *NetworkBreeder) mutate(specs []network.TripSpec, rng *rand.Rand) []network.TripSpec {
	if b.mutation.Rate <= 0 || b.mutation.Delta <= 0 || len(specs) <= 1 {
		return specs
	}
	if rng.Float64() >= b.mutation.Rate {
		return specs
	}

	kill := 1 + rng.Intn(b.mutation.Delta)
	if kill > len(specs)-1 {
		kill = len(specs) - 1
	}
	for i := 0; i < kill; i++ {
		idx := rng.Intn(len(specs))
		b.log.Debug("Mutation removed trip %s", specs[idx].ID)
		specs = without(specs, idx)
	}
	return specs
}

func without(specs []network.TripSpec, idx int) []network.TripSpec {
	out := make([]network.TripSpec, 0, len(specs))
	out = append(out, specs[:idx]...)
	return append(out, specs[idx+1:]...)
}

// newID draws a UUID from rng so ids are reproducible under a fixed seed
func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
