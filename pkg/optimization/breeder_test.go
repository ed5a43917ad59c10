package optimization

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/pkg/network"
)

func stopIDs(spec network.TripSpec) []string {
	return spec.StopIDs()
}

func countOf(ids []string, id string) int {
	n := 0
	for _, s := range ids {
		if s == id {
			n++
		}
	}
	return n
}

func TestSampleCrossover_FirstSharedStopOfTripA(t *testing.T) {
	s := func(id string) network.Stop { return stop(id, -122.4, 37.7) }
	t1 := trip("T1", "R1", network.DirectionOutbound, s("S1"), s("S2"), s("S3"), s("S4"))
	t2 := trip("T2", "R2", network.DirectionOutbound, s("S2"), s("S5"), s("S6"))

	b := NewNetworkBreeder(10, MutationConfig{}, nil)
	rng := rand.New(rand.NewSource(1))

	c, err := b.SampleCrossover([]network.TripSpec{t1}, []network.TripSpec{t2}, rng)
	require.NoError(t, err)
	assert.Equal(t, "S2", c.SharedStop)
	assert.Equal(t, 1, c.IndexA)
	assert.Equal(t, 0, c.IndexB)

	x, y := Recombine(t1, t2, c, rng)
	assert.Equal(t, []string{"S1", "S2", "S5", "S6"}, stopIDs(x))
	assert.Equal(t, []string{"S2", "S3", "S4"}, stopIDs(y))
	assert.Len(t, x.Stops, c.IndexA+len(t2.Stops)-c.IndexB)
	assert.Len(t, y.Stops, c.IndexB+len(t1.Stops)-c.IndexA)
	assert.Equal(t, 1, countOf(stopIDs(x), "S2"))
	assert.Equal(t, 1, countOf(stopIDs(y), "S2"))

	// children get fresh identities and inherit the head trip's direction
	assert.NotEqual(t, x.ID, y.ID)
	assert.NotContains(t, []string{"T1", "T2"}, x.ID)
	assert.NotEqual(t, "R1", x.RouteID)
	assert.Equal(t, network.DirectionOutbound, x.Direction)
	assert.Len(t, x.Shapes, len(x.Stops))
	assert.Len(t, y.Shapes, len(y.Stops))

	// sources are untouched
	assert.Equal(t, []string{"S1", "S2", "S3", "S4"}, stopIDs(t1))
	assert.Equal(t, []string{"S2", "S5", "S6"}, stopIDs(t2))
}

func TestSampleCrossover_Exhaustion(t *testing.T) {
	s := func(id string) network.Stop { return stop(id, -122.4, 37.7) }
	b := NewNetworkBreeder(25, MutationConfig{}, nil)
	rng := rand.New(rand.NewSource(2))

	tests := []struct {
		name string
		a    network.TripSpec
		b    network.TripSpec
	}{
		{
			name: "different directions",
			a:    trip("A", "R1", network.DirectionOutbound, s("S1"), s("S2")),
			b:    trip("B", "R2", network.DirectionInbound, s("S2"), s("S1")),
		},
		{
			name: "no shared stops",
			a:    trip("A", "R1", network.DirectionOutbound, s("S1"), s("S2")),
			b:    trip("B", "R2", network.DirectionOutbound, s("S3"), s("S4")),
		},
		{
			name: "same trip id",
			a:    trip("A", "R1", network.DirectionOutbound, s("S1"), s("S2")),
			b:    trip("A", "R1", network.DirectionOutbound, s("S1"), s("S2")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.SampleCrossover([]network.TripSpec{tt.a}, []network.TripSpec{tt.b}, rng)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.ErrorCategorySamplingExhausted))
			assert.False(t, errors.IsFatal(err))
		})
	}

	_, err := b.SampleCrossover(nil, []network.TripSpec{tests[0].a}, rng)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategorySamplingExhausted))
}

func TestBreedPair_ReplacesOneTripPerChild(t *testing.T) {
	a := fixtureNetwork()
	b := fixtureNetwork().Clone("other")
	before := a.Specs()

	breeder := NewNetworkBreeder(100, MutationConfig{}, nil)
	childA, childB, err := breeder.BreedPair(a, b, "1:0", "1:1", rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	assert.Equal(t, "1:0", childA.ID())
	assert.Equal(t, "1:1", childB.ID())
	assert.Equal(t, a.NumTrips(), childA.NumTrips())
	assert.Equal(t, b.NumTrips(), childB.NumTrips())

	// exactly one parent trip was swapped out of each child
	assert.Equal(t, a.NumTrips()-1, sharedTrips(a, childA))
	assert.Equal(t, b.NumTrips()-1, sharedTrips(b, childB))

	assert.Equal(t, before, a.Specs(), "parent must not be modified")
}

func sharedTrips(parent, child *network.Network) int {
	n := 0
	for _, t := range child.Trips() {
		if _, ok := parent.Trip(t.ID); ok {
			n++
		}
	}
	return n
}

func TestBreed_SingleChildDropsSampledTrip(t *testing.T) {
	a := fixtureNetwork()
	b := network.NewNetwork("donor", []network.TripSpec{
		trip("U1", "R9", network.DirectionOutbound, m1, m2, e2),
	}, nil)

	breeder := NewNetworkBreeder(100, MutationConfig{}, nil)
	child, err := breeder.Breed(a, b, "0:1", rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	// U1 is not in a, so only the trip taken from a disappears
	assert.Equal(t, a.NumTrips()+1, child.NumTrips())
	assert.Equal(t, a.NumTrips()-1, sharedTrips(a, child))
	_, ok := child.Trip("U1")
	assert.False(t, ok)
}

func TestBreed_SingleChildKeepsOwnCopyOfDonorTrip(t *testing.T) {
	// P1 x S is the only compatible pair: S x S shares an id
	s := trip("S", "R2", network.DirectionOutbound, m2, m3, e1)
	a := network.NewNetwork("a", []network.TripSpec{
		trip("P1", "R1", network.DirectionOutbound, w1, m1, m2),
		s,
	}, nil)
	b := network.NewNetwork("b", []network.TripSpec{s}, nil)

	breeder := NewNetworkBreeder(100, MutationConfig{}, nil)
	child, err := breeder.Breed(a, b, "0:1", rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	assert.Equal(t, 3, child.NumTrips())
	_, ok := child.Trip("S")
	assert.True(t, ok)
	_, ok = child.Trip("P1")
	assert.False(t, ok)
}

func TestBreed_DeterministicUnderSeed(t *testing.T) {
	breed := func() []string {
		breeder := NewNetworkBreeder(100, MutationConfig{}, nil)
		child, err := breeder.Breed(fixtureNetwork(), fixtureNetwork(), "c", rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		ids := make([]string, 0, child.NumTrips())
		for _, tr := range child.Trips() {
			ids = append(ids, tr.ID)
		}
		return ids
	}
	assert.Equal(t, breed(), breed())
}

func TestBreedPair_MutationRemovesTrips(t *testing.T) {
	breeder := NewNetworkBreeder(100, MutationConfig{Rate: 1, Delta: 1}, nil)
	childA, childB, err := breeder.BreedPair(fixtureNetwork(), fixtureNetwork(), "a", "b", rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	assert.Equal(t, 4, childA.NumTrips())
	assert.Equal(t, 4, childB.NumTrips())
}

func TestMutate_KeepsAtLeastOneTrip(t *testing.T) {
	breeder := NewNetworkBreeder(1, MutationConfig{Rate: 1, Delta: 10}, nil)
	specs := fixtureNetwork().Specs()
	rng := rand.New(rand.NewSource(6))
	for i := 0; i < 20; i++ {
		out := breeder.mutate(specs, rng)
		assert.GreaterOrEqual(t, len(out), 1)
		assert.Less(t, len(out), len(specs))
	}
	assert.Len(t, specs, 5)

	single := specs[:1]
	assert.Len(t, breeder.mutate(single, rng), 1)

	off := NewNetworkBreeder(1, MutationConfig{}, nil)
	assert.Len(t, off.mutate(specs, rng), 5)
}
