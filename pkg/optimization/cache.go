package optimization

import (
	"sort"
	"strings"

	"github.com/bluele/gcache"

	"github.com/ducminhle1904/transit-ga/internal/monitoring"
	"github.com/ducminhle1904/transit-ga/pkg/network"
)

// CacheStats reports lookups against the two cache levels
type CacheStats struct {
	RouteHits   uint64
	RouteMisses uint64
	StopHits    uint64
	StopMisses  uint64
}

// DistanceCache memoizes hop distances at two levels:
// (route signature, stop, zone) -> distance and
// (sorted route signatures, stop, zone) -> distances over every route.
// A route signature is the route id plus the ids of the trips the route holds,
// so two networks share an entry only when the route's trips are identical.
type DistanceCache struct {
	routes gcache.Cache
	stops  gcache.Cache
}

// NewDistanceCache creates a cache bounded to size entries per level
func NewDistanceCache(size int) *DistanceCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &DistanceCache{
		routes: gcache.New(size).LRU().Build(),
		stops:  gcache.New(size).LRU().Build(),
	}
}

// RouteDistance looks up a route-level entry
func (c *DistanceCache) RouteDistance(key string) (float64, bool) {
	v, err := c.routes.Get(key)
	monitoring.RecordCacheLookup("route", err == nil)
	if err != nil {
		return 0, false
	}
	return v.(float64), true
}

// SetRouteDistance stores a route-level entry
func (c *DistanceCache) SetRouteDistance(key string, d float64) {
	c.routes.Set(key, d)
}

// StopDistances looks up a stop-level entry
func (c *DistanceCache) StopDistances(key string) ([]float64, bool) {
	v, err := c.stops.Get(key)
	monitoring.RecordCacheLookup("stop", err == nil)
	if err != nil {
		return nil, false
	}
	return v.([]float64), true
}

// SetStopDistances stores a stop-level entry. The slice must not be modified afterwards.
func (c *DistanceCache) SetStopDistances(key string, d []float64) {
	c.stops.Set(key, d)
}

// Stats returns hit and miss counters for both levels
func (c *DistanceCache) Stats() CacheStats {
	return CacheStats{
		RouteHits:   c.routes.HitCount(),
		RouteMisses: c.routes.MissCount(),
		StopHits:    c.stops.HitCount(),
		StopMisses:  c.stops.MissCount(),
	}
}

// Purge drops every entry
func (c *DistanceCache) Purge() {
	c.routes.Purge()
	c.stops.Purge()
}

func routeSignature(net *network.Network, r network.Route) string {
	var sb strings.Builder
	sb.WriteString(r.ID)
	for _, pos := range r.Trips {
		sb.WriteByte('|')
		sb.WriteString(net.Trips()[pos].ID)
	}
	return sb.String()
}

func routeKey(signature, stopID, zone string) string {
	return "r" + signature + "\x00s" + stopID + "\x00tz" + zone
}

func stopKey(signatures []string, stopID, zone string) string {
	sorted := append([]string(nil), signatures...)
	sort.Strings(sorted)
	return "ro" + strings.Join(sorted, " ") + "\x00s" + stopID + "\x00tz" + zone
}
