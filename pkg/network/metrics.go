package network

// Metrics is a frozen snapshot of a network's identity sets and aggregates.
// The fitness function captures one from the initial network as its baseline.
type Metrics struct {
	NetworkID        string
	RouteIDs         []string
	TripIDs          []string
	StopIDs          []string
	Ridership        float64
	Coverage         float64
	RidershipDensity float64
	ExtremeTrips     float64
	NumRoutes        int
}

// NewMetrics snapshots a network. Extreme trips are counted outside [minStops, maxStops].
func NewMetrics(n *Network, minStops, maxStops int) Metrics {
	m := Metrics{
		NetworkID:        n.ID(),
		RouteIDs:         make([]string, 0, n.NumRoutes()),
		TripIDs:          make([]string, 0, n.NumTrips()),
		StopIDs:          make([]string, 0, n.NumStops()),
		Ridership:        n.Ridership(),
		Coverage:         float64(n.Coverage()),
		RidershipDensity: n.RidershipDensity(),
		ExtremeTrips:     float64(n.CountExtremeTrips(minStops, maxStops)),
		NumRoutes:        n.NumRoutes(),
	}
	for _, r := range n.Routes() {
		m.RouteIDs = append(m.RouteIDs, r.ID)
	}
	for _, t := range n.Trips() {
		m.TripIDs = append(m.TripIDs, t.ID)
	}
	for _, s := range n.Stops() {
		m.StopIDs = append(m.StopIDs, s.ID)
	}
	return m
}

// Similarity returns the Dice coefficients of the route, trip and stop id sets
func (m Metrics) Similarity(other Metrics) (routes, trips, stops float64) {
	return dice(m.RouteIDs, other.RouteIDs), dice(m.TripIDs, other.TripIDs), dice(m.StopIDs, other.StopIDs)
}

func dice(a, b []string) float64 {
	if len(a)+len(b) == 0 {
		return 1
	}
	inA := make(map[string]struct{}, len(a))
	for _, id := range a {
		inA[id] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(b))
	for _, id := range b {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := inA[id]; ok {
			shared++
		}
	}
	return float64(2*shared) / float64(len(a)+len(b))
}
