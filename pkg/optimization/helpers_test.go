package optimization

import (
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/pkg/network"
	"github.com/ducminhle1904/transit-ga/pkg/zones"
)

func stop(id string, lon, lat float64) network.Stop {
	return network.Stop{ID: id, Name: id, Location: orb.Point{lon, lat}, Ridership: 10}
}

func trip(id, route string, dir network.Direction, stops ...network.Stop) network.TripSpec {
	return network.TripSpec{ID: id, RouteID: route, Direction: dir, Stops: stops}
}

var (
	w1 = stop("W1", -122.500, 37.760)
	w2 = stop("W2", -122.499, 37.761)
	m1 = stop("M1", -122.470, 37.760)
	m2 = stop("M2", -122.450, 37.760)
	m3 = stop("M3", -122.430, 37.760)
	e1 = stop("E1", -122.400, 37.760)
	e2 = stop("E2", -122.401, 37.759)
)

// fixtureNetwork is a corridor between a West and an East zone. From the West
// sample the East zone is 3 hops away via R2 and 4 via R1.
func fixtureNetwork() *network.Network {
	return network.NewNetwork("initial", []network.TripSpec{
		trip("T1", "R1", network.DirectionOutbound, w1, m1, m2, m3, e1),
		trip("T2", "R2", network.DirectionOutbound, w2, m1, m3, e2),
		trip("T3", "R3", network.DirectionOutbound, m2, m3, e1),
		trip("T4", "R1", network.DirectionInbound, e1, m3, m2, m1, w1),
		trip("T5", "R2", network.DirectionInbound, e2, m3, m1, w2),
	}, nil)
}

func fixtureZones() ([]zones.Zone, []zones.TransitPath) {
	zs := []zones.Zone{
		zones.NewZone("West", 37.760, -122.500),
		zones.NewZone("East", 37.760, -122.400),
	}
	return zs, []zones.TransitPath{{From: "West", To: "East", Weight: 1}}
}

func fixtureEvaluator(rng *rand.Rand) *ZoneEvaluator {
	zs, paths := fixtureZones()
	opts := DefaultZoneOptions()
	e, err := NewZoneEvaluator(fixtureNetwork(), zs, paths, opts, nil)
	if err != nil {
		panic(err)
	}
	if err := e.SampleStops(rng); err != nil {
		panic(err)
	}
	return e
}

func fixtureSettings(size int) Settings {
	s := DefaultSettings(size)
	s.Name = "test"
	s.MinTripStops = 3
	s.MaxTripStops = 10
	s.Workers = 2
	return s
}

type stubScorer struct {
	score float64
	err   error
}

func (s stubScorer) Evaluate(*network.Network) (float64, error) {
	return s.score, s.err
}

// failingBreeder never finds a crossover
type failingBreeder struct{}

func (failingBreeder) Breed(a, b *network.Network, id string, rng *rand.Rand) (*network.Network, error) {
	return nil, errors.NewSamplingExhaustedError("breeder", "sample_crossover", 1)
}

func (failingBreeder) BreedPair(a, b *network.Network, idA, idB string, rng *rand.Rand) (*network.Network, *network.Network, error) {
	return nil, nil, errors.NewSamplingExhaustedError("breeder", "sample_crossover", 1)
}

// constantFitness scores every network the same, or by trip count when byTrips is set
type constantFitness struct {
	value   float64
	byTrips bool
}

func (c constantFitness) Evaluate(net *network.Network) (Fitness, error) {
	v := c.value
	if c.byTrips {
		v = float64(net.NumTrips())
	}
	return Fitness{Total: v, RidershipDensity: v}, nil
}

func chromosomesWithScores(scores ...float64) []*Chromosome {
	out := make([]*Chromosome, len(scores))
	for i, s := range scores {
		c := NewChromosome(string(rune('a'+i)), fixtureNetwork(), "", "", 0)
		c.SetFitness(Fitness{Total: s})
		out[i] = c
	}
	return out
}
