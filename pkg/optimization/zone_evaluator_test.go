package optimization

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/pkg/network"
	"github.com/ducminhle1904/transit-ga/pkg/zones"
)

func TestZoneEvaluator_Pools(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))

	west, ok := e.ZoneStops("West")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"W1", "W2"}, west)

	east, ok := e.ZoneStops("East")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"E1", "E2"}, east)

	_, ok = e.ZoneStops("North")
	assert.False(t, ok)
}

func TestZoneEvaluator_SampleStaysInPool(t *testing.T) {
	zs, paths := fixtureZones()
	opts := DefaultZoneOptions()
	opts.SampleCount = 1

	e, err := NewZoneEvaluator(fixtureNetwork(), zs, paths, opts, nil)
	require.NoError(t, err)
	require.NoError(t, e.SampleStops(rand.New(rand.NewSource(7))))

	for _, z := range zs {
		sample, ok := e.Sample(z.Name)
		require.True(t, ok)
		pool, _ := e.ZoneStops(z.Name)
		require.Len(t, sample, 1)
		assert.Contains(t, pool, sample[0])
	}
}

func TestZoneEvaluator_InitialDistances(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))
	initial := fixtureNetwork()

	forward, err := e.Distance(initial, "West", "East")
	require.NoError(t, err)
	assert.Equal(t, 3.0, forward)

	backward, err := e.Distance(initial, "East", "West")
	require.NoError(t, err)
	assert.Equal(t, 3.0, backward)

	assert.Equal(t, 3.0, e.InitialScore())

	score, err := e.Evaluate(initial)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-12)
}

func TestZoneEvaluator_LongerPathsScoreLower(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))

	// without route R2 only the four-hop R1 connects the zones
	n := network.NewNetwork("no-r2", []network.TripSpec{
		trip("T1", "R1", network.DirectionOutbound, w1, m1, m2, m3, e1),
		trip("T3", "R3", network.DirectionOutbound, m2, m3, e1),
		trip("T4", "R1", network.DirectionInbound, e1, m3, m2, m1, w1),
	}, nil)

	raw, err := e.RawDistance(n)
	require.NoError(t, err)
	assert.Equal(t, 4.0, raw)

	score, err := e.Evaluate(n)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, score, 1e-12)
}

func TestZoneEvaluator_UnreachableUsesDefaultDistance(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))
	n := network.NewNetwork("stub", []network.TripSpec{
		trip("T9", "R9", network.DirectionOutbound, w1, m1),
	}, nil)

	for _, pair := range [][2]string{{"West", "East"}, {"East", "West"}} {
		d, err := e.Distance(n, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, DefaultZoneDistance, d)
	}

	score, err := e.Evaluate(n)
	require.NoError(t, err)
	assert.InDelta(t, 3.0/DefaultZoneDistance, score, 1e-12)
}

func TestZoneEvaluator_DistanceIsHopCountOrDefault(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))
	b := NewNetworkBreeder(100, MutationConfig{}, nil)
	rng := rand.New(rand.NewSource(9))

	net := fixtureNetwork()
	for i := 0; i < 10; i++ {
		child, err := b.Breed(net, fixtureNetwork(), "child", rng)
		require.NoError(t, err)

		d, err := e.Distance(child, "West", "East")
		require.NoError(t, err)
		isHops := d >= 0 && d == math.Trunc(d)
		assert.True(t, isHops || d == DefaultZoneDistance, "distance %v", d)
		net = child
	}
}

func TestZoneEvaluator_ScansBothDirections(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))

	// the East stop sits behind W1 on this trip
	n := network.NewNetwork("reverse", []network.TripSpec{
		trip("T1", "R1", network.DirectionOutbound, e1, m2, w1, m1),
	}, nil)

	d, err := e.Distance(n, "West", "East")
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)
}

func TestZoneEvaluator_CacheHitsOnRepeatedEvaluation(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))
	initial := fixtureNetwork()

	first, err := e.Evaluate(initial)
	require.NoError(t, err)
	before := e.CacheStats()

	// a renamed copy keeps identical routes and therefore identical signatures
	second, err := e.Evaluate(initial.Clone("copy"))
	require.NoError(t, err)
	after := e.CacheStats()

	assert.Equal(t, first, second)
	assert.Greater(t, after.StopHits, before.StopHits)
	assert.Equal(t, before.StopMisses, after.StopMisses)

	d1, err := e.Distance(initial, "West", "East")
	require.NoError(t, err)
	d2, err := e.Distance(initial, "West", "East")
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestZoneEvaluator_RouteWithoutVisitingTripIsInconsistent(t *testing.T) {
	e := fixtureEvaluator(rand.New(rand.NewSource(1)))
	n := fixtureNetwork()

	r3, ok := n.Route("R3")
	require.True(t, ok)
	ref, ok := n.StopByID("W1")
	require.True(t, ok)

	_, err := e.routeDistance(n, r3, routeSignature(n, r3), ref, "East", e.index["East"])
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryInconsistentTopology))
	assert.True(t, errors.IsFatal(err))
}

func TestZoneEvaluator_Configuration(t *testing.T) {
	zs, _ := fixtureZones()
	_, err := NewZoneEvaluator(fixtureNetwork(), zs, []zones.TransitPath{{From: "West", To: "Nowhere", Weight: 1}}, DefaultZoneOptions(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryConfiguration))

	e := fixtureEvaluator(rand.New(rand.NewSource(1)))
	_, err = e.Distance(fixtureNetwork(), "West", "Nowhere")
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryConfiguration))
}

func TestCacheKeys(t *testing.T) {
	n := fixtureNetwork()
	r1, _ := n.Route("R1")
	assert.Equal(t, "R1|T1|T4", routeSignature(n, r1))
	assert.Equal(t, stopKey([]string{"b", "a"}, "S", "Z"), stopKey([]string{"a", "b"}, "S", "Z"))
	assert.NotEqual(t, routeKey("R1|T1", "S", "Z"), routeKey("R1|T1|T4", "S", "Z"))
}
