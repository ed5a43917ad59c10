package optimization

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/ducminhle1904/transit-ga/internal/errors"
	"github.com/ducminhle1904/transit-ga/internal/monitoring"
	"github.com/ducminhle1904/transit-ga/pkg/network"
	"github.com/ducminhle1904/transit-ga/pkg/zones"
)

// ZoneOptions configures a ZoneEvaluator
type ZoneOptions struct {
	Radius          float64
	SampleCount     int
	Epsilon         float64
	DefaultDistance float64
	CacheSize       int
}

// DefaultZoneOptions returns the tuned defaults
func DefaultZoneOptions() ZoneOptions {
	return ZoneOptions{
		Radius:          DefaultZoneRadius,
		SampleCount:     DefaultZoneSampleCount,
		Epsilon:         DefaultZoneEpsilon,
		DefaultDistance: DefaultZoneDistance,
		CacheSize:       DefaultCacheSize,
	}
}

// ZoneEvaluator measures how well zones stay connected through a network's
// routes, relative to the initial network.
type ZoneEvaluator struct {
	initial *network.Network
	zones   []zones.Zone
	index   map[string]int
	paths   []zones.TransitPath
	pools   []map[string]struct{}
	poolIDs [][]string
	opts    ZoneOptions
	cache   *DistanceCache
	log     Logger

	mu           sync.RWMutex
	samples      [][]string
	initialScore float64
}

// NewZoneEvaluator builds per-zone stop pools from the initial network. Call
// SampleStops before evaluating.
func NewZoneEvaluator(initial *network.Network, zs []zones.Zone, paths []zones.TransitPath, opts ZoneOptions, log Logger) (*ZoneEvaluator, error) {
	if err := zones.Validate(zs, paths); err != nil {
		return nil, errors.NewConfigurationError("zone_evaluator", "new", err.Error())
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultZoneEpsilon
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultZoneRadius
	}

	e := &ZoneEvaluator{
		initial: initial,
		zones:   zs,
		index:   make(map[string]int, len(zs)),
		paths:   paths,
		pools:   make([]map[string]struct{}, len(zs)),
		poolIDs: make([][]string, len(zs)),
		opts:    opts,
		cache:   NewDistanceCache(opts.CacheSize),
		log:     orNop(log),
		samples: make([][]string, len(zs)),
	}

	for i, z := range zs {
		e.index[z.Name] = i
		radius := z.Radius
		if radius <= 0 {
			radius = opts.Radius
		}
		e.pools[i] = make(map[string]struct{})
		for _, s := range initial.Stops() {
			if s.DistanceTo(z.Location) < radius {
				e.pools[i][s.ID] = struct{}{}
				e.poolIDs[i] = append(e.poolIDs[i], s.ID)
			}
		}
		if len(e.poolIDs[i]) == 0 {
			e.log.Warning("Zone %s has no stops within %.0fm", z.Name, radius)
		}
	}

	return e, nil
}

// ZoneStops returns the stop pool of a zone
func (e *ZoneEvaluator) ZoneStops(zone string) ([]string, bool) {
	i, ok := e.index[zone]
	if !ok {
		return nil, false
	}
	return append([]string(nil), e.poolIDs[i]...), true
}

// Sample returns the currently sampled stops of a zone
func (e *ZoneEvaluator) Sample(zone string) ([]string, bool) {
	i, ok := e.index[zone]
	if !ok {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.samples[i]...), true
}

// SampleStops draws up to SampleCount stops per zone without replacement and
// recomputes the initial zone score against the new sample.
func (e *ZoneEvaluator) SampleStops(rng *rand.Rand) error {
	count := e.opts.SampleCount
	if count <= 0 {
		count = 1
	}

	samples := make([][]string, len(e.zones))
	for i, pool := range e.poolIDs {
		n := count
		if n > len(pool) {
			n = len(pool)
		}
		perm := rng.Perm(len(pool))
		for _, p := range perm[:n] {
			samples[i] = append(samples[i], pool[p])
		}
	}

	e.mu.Lock()
	e.samples = samples
	e.mu.Unlock()

	score, err := e.RawDistance(e.initial)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.initialScore = score
	e.mu.Unlock()

	e.log.Debug("Sampled zone stops, initial zone score %.4f", score)
	return nil
}

// InitialScore returns the raw distance of the initial network for the current sample
func (e *ZoneEvaluator) InitialScore() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialScore
}

// CacheStats reports distance cache usage
func (e *ZoneEvaluator) CacheStats() CacheStats {
	return e.cache.Stats()
}

// Evaluate returns initial score / max(raw distance, epsilon). The initial
// network scores 1 whenever its raw distance exceeds epsilon.
func (e *ZoneEvaluator) Evaluate(net *network.Network) (float64, error) {
	raw, err := e.RawDistance(net)
	if err != nil {
		return 0, err
	}
	return e.InitialScore() / math.Max(raw, e.opts.Epsilon), nil
}

// RawDistance sums, over every path, weight x mean of both directional distances
func (e *ZoneEvaluator) RawDistance(net *network.Network) (float64, error) {
	total := 0.0
	for _, p := range e.paths {
		forward, err := e.Distance(net, p.From, p.To)
		if err != nil {
			return 0, err
		}
		backward, err := e.Distance(net, p.To, p.From)
		if err != nil {
			return 0, err
		}
		total += p.Weight * (forward + backward) / 2
	}
	return total, nil
}

// Distance is the minimum hop count from any sampled source stop still in the
// network to any stop of the target zone, along trips of the routes serving the
// source stop. Unreachable targets yield the configured default distance.
func (e *ZoneEvaluator) Distance(net *network.Network, source, target string) (float64, error) {
	si, ok := e.index[source]
	if !ok {
		return 0, errors.NewConfigurationError("zone_evaluator", "distance", fmt.Sprintf("unknown zone %q", source))
	}
	ti, ok := e.index[target]
	if !ok {
		return 0, errors.NewConfigurationError("zone_evaluator", "distance", fmt.Sprintf("unknown zone %q", target))
	}

	e.mu.RLock()
	sample := e.samples[si]
	e.mu.RUnlock()

	best := math.Inf(1)
	for _, stopID := range sample {
		ref, ok := net.StopByID(stopID)
		if !ok {
			continue
		}
		dists, err := e.stopDistances(net, ref, target, ti)
		if err != nil {
			return 0, err
		}
		for _, d := range dists {
			best = math.Min(best, d)
		}
	}

	if math.IsInf(best, 1) {
		e.log.Warning("Unable to find route from zone %s to %s, using distance %.0f", source, target, e.opts.DefaultDistance)
		monitoring.RecordZoneFallback(source, target)
		return e.opts.DefaultDistance, nil
	}
	return best, nil
}

// stopDistances returns the distance from a stop to the target zone via each route serving it
func (e *ZoneEvaluator) stopDistances(net *network.Network, ref network.StopRef, target string, ti int) ([]float64, error) {
	stop := net.Stop(ref)

	routes := make([]network.Route, 0, len(stop.Routes))
	signatures := make([]string, 0, len(stop.Routes))
	for _, id := range stop.Routes {
		r, ok := net.Route(id)
		if !ok {
			return nil, errors.NewInconsistentTopologyError("zone_evaluator", "distance",
				fmt.Sprintf("stop %s lists route %s missing from network %s", stop.ID, id, net.ID()))
		}
		routes = append(routes, r)
		signatures = append(signatures, routeSignature(net, r))
	}

	key := stopKey(signatures, stop.ID, target)
	if cached, ok := e.cache.StopDistances(key); ok {
		return cached, nil
	}

	dists := make([]float64, 0, len(routes))
	for i, r := range routes {
		d, err := e.routeDistance(net, r, signatures[i], ref, target, ti)
		if err != nil {
			return nil, err
		}
		dists = append(dists, d)
	}

	e.cache.SetStopDistances(key, dists)
	return dists, nil
}

// routeDistance is the minimum over the route's trips that visit the stop
func (e *ZoneEvaluator) routeDistance(net *network.Network, r network.Route, signature string, ref network.StopRef, target string, ti int) (float64, error) {
	stopID := net.Stop(ref).ID
	key := routeKey(signature, stopID, target)
	if cached, ok := e.cache.RouteDistance(key); ok {
		return cached, nil
	}

	best := math.Inf(1)
	visited := false
	for _, trip := range net.RouteTrips(r) {
		idx, ok := trip.IndexOfRef(ref)
		if !ok {
			continue
		}
		visited = true
		best = math.Min(best, e.tripDistance(net, trip, idx, ti))
	}
	if !visited {
		return 0, errors.NewInconsistentTopologyError("zone_evaluator", "route_distance",
			fmt.Sprintf("stop %s claims route %s but no trip of the route visits it", stopID, r.ID))
	}

	e.cache.SetRouteDistance(key, best)
	return best, nil
}

// tripDistance scans outward from idx in both directions and returns the first
// hop count landing on a stop of the target zone, or +Inf
func (e *ZoneEvaluator) tripDistance(net *network.Network, trip network.Trip, idx, ti int) float64 {
	pool := e.pools[ti]
	for hop := 0; idx-hop >= 0 || idx+hop < len(trip.Stops); hop++ {
		if up := idx + hop; up < len(trip.Stops) {
			if _, ok := pool[net.Stop(trip.Stops[up]).ID]; ok {
				return float64(hop)
			}
		}
		if down := idx - hop; down >= 0 {
			if _, ok := pool[net.Stop(trip.Stops[down]).ID]; ok {
				return float64(hop)
			}
		}
	}
	return math.Inf(1)
}
