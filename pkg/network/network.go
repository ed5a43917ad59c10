package network

import (
	"fmt"
	"sort"
)

// Network is an immutable snapshot of routes, trips and stops. Stops are
// interned once per network; trips reference them through StopRef handles.
type Network struct {
	id         string
	routes     []Route
	routeIndex map[string]int
	trips      []Trip
	tripIndex  map[string]int
	stops      []Stop
	stopIndex  map[string]StopRef

	ridership        float64
	ridershipDensity float64
}

// NewNetwork builds a network from trip specs, regrouping trips by route id in
// first-seen order and recomputing every derived aggregate. The specs are copied.
func NewNetwork(id string, specs []TripSpec, log Logger) *Network {
	if log == nil {
		log = nopLogger{}
	}

	n := &Network{
		id:         id,
		routeIndex: make(map[string]int),
		tripIndex:  make(map[string]int),
		stopIndex:  make(map[string]StopRef),
	}

	for _, spec := range specs {
		n.addTrip(spec, log)
	}
	n.indexStops()
	n.computeAggregates()

	return n
}

func (n *Network) addTrip(spec TripSpec, log Logger) {
	trip := Trip{
		ID:        spec.ID,
		RouteID:   spec.RouteID,
		Headsign:  spec.Headsign,
		Direction: spec.Direction,
		Stops:     make([]StopRef, len(spec.Stops)),
		Shapes:    alignShapes(spec, log),
	}

	for i, s := range spec.Stops {
		trip.Stops[i] = n.intern(s, log)
	}

	tripPos := len(n.trips)
	if _, exists := n.tripIndex[trip.ID]; exists {
		log.Warning("Duplicate trip id %s in network %s, keeping first for lookups", trip.ID, n.id)
	} else {
		n.tripIndex[trip.ID] = tripPos
	}
	n.trips = append(n.trips, trip)

	routePos, ok := n.routeIndex[trip.RouteID]
	if !ok {
		routePos = len(n.routes)
		n.routeIndex[trip.RouteID] = routePos
		n.routes = append(n.routes, Route{ID: trip.RouteID, Name: trip.RouteID})
	}
	n.routes[routePos].Trips = append(n.routes[routePos].Trips, tripPos)
}

// intern returns the arena handle for a stop id; the first occurrence wins
func (n *Network) intern(s Stop, log Logger) StopRef {
	if ref, ok := n.stopIndex[s.ID]; ok {
		existing := n.stops[ref]
		if existing.Location != s.Location || existing.Ridership != s.Ridership {
			log.Warning("Duplicate stop id %s with conflicting attributes in network %s, keeping first", s.ID, n.id)
		}
		return ref
	}
	ref := StopRef(len(n.stops))
	stop := s.detached()
	stop.TripSequences = make(map[string]int)
	n.stops = append(n.stops, stop)
	n.stopIndex[s.ID] = ref
	return ref
}

// alignShapes keeps one shape partition per stop
func alignShapes(spec TripSpec, log Logger) [][]ShapePoint {
	shapes := cloneShapes(spec.Shapes)
	if len(shapes) == len(spec.Stops) {
		return shapes
	}
	if len(shapes) != 0 {
		log.Warning("Trip %s has %d shape partitions for %d stops, realigning", spec.ID, len(shapes), len(spec.Stops))
	}
	aligned := make([][]ShapePoint, len(spec.Stops))
	copy(aligned, shapes)
	return aligned
}

func (n *Network) indexStops() {
	for _, trip := range n.trips {
		for pos, ref := range trip.Stops {
			stop := &n.stops[ref]
			if !containsString(stop.Routes, trip.RouteID) {
				stop.Routes = append(stop.Routes, trip.RouteID)
			}
			if _, seen := stop.TripSequences[trip.ID]; !seen {
				stop.TripSequences[trip.ID] = pos + 1
			}
		}
	}
	for i := range n.stops {
		sort.Strings(n.stops[i].Routes)
	}
}

func (n *Network) computeAggregates() {
	for _, s := range n.stops {
		n.ridership += s.Ridership
	}
	for _, trip := range n.trips {
		n.ridershipDensity += float64(n.countTransfers(trip)) * n.TripRidership(trip)
	}
}

func (n *Network) countTransfers(trip Trip) int {
	count := 0
	for _, ref := range trip.Stops {
		if n.stops[ref].IsTransfer() {
			count++
		}
	}
	return count
}

// ID returns the network identifier
func (n *Network) ID() string { return n.id }

// Routes returns the routes in first-seen order. Callers must not modify them.
func (n *Network) Routes() []Route { return n.routes }

// Trips returns all trips. Callers must not modify them.
func (n *Network) Trips() []Trip { return n.trips }

// Stops returns the stop arena. Callers must not modify it.
func (n *Network) Stops() []Stop { return n.stops }

// Stop returns the stop behind a handle
func (n *Network) Stop(ref StopRef) Stop { return n.stops[ref] }

// StopByID looks up a stop handle by identifier
func (n *Network) StopByID(id string) (StopRef, bool) {
	ref, ok := n.stopIndex[id]
	return ref, ok
}

// Route looks up a route by identifier
func (n *Network) Route(id string) (Route, bool) {
	pos, ok := n.routeIndex[id]
	if !ok {
		return Route{}, false
	}
	return n.routes[pos], true
}

// Trip looks up a trip by identifier
func (n *Network) Trip(id string) (Trip, bool) {
	pos, ok := n.tripIndex[id]
	if !ok {
		return Trip{}, false
	}
	return n.trips[pos], true
}

// TripIndex returns the position of a trip in Trips()
func (n *Network) TripIndex(id string) (int, bool) {
	pos, ok := n.tripIndex[id]
	return pos, ok
}

// RouteTrips returns the trips of a route
func (n *Network) RouteTrips(r Route) []Trip {
	trips := make([]Trip, 0, len(r.Trips))
	for _, pos := range r.Trips {
		trips = append(trips, n.trips[pos])
	}
	return trips
}

// NumRoutes returns the number of routes
func (n *Network) NumRoutes() int { return len(n.routes) }

// NumTrips returns the number of trips
func (n *Network) NumTrips() int { return len(n.trips) }

// NumStops returns the number of distinct stops
func (n *Network) NumStops() int { return len(n.stops) }

// Ridership is the sum of stop ridership
func (n *Network) Ridership() float64 { return n.ridership }

// Coverage is the number of distinct stops served
func (n *Network) Coverage() int { return len(n.stops) }

// RidershipDensity sums, over trips, transfer stops on the trip times trip ridership
func (n *Network) RidershipDensity() float64 { return n.ridershipDensity }

// TripRidership is the ridership of the stops a trip visits
func (n *Network) TripRidership(trip Trip) float64 {
	total := 0.0
	for _, ref := range trip.Stops {
		total += n.stops[ref].Ridership
	}
	return total
}

// CountExtremeTrips counts trips whose stop count falls outside [minStops, maxStops]
func (n *Network) CountExtremeTrips(minStops, maxStops int) int {
	count := 0
	for _, trip := range n.trips {
		if len(trip.Stops) < minStops || len(trip.Stops) > maxStops {
			count++
		}
	}
	return count
}

// Spec returns a detached deep copy of a trip
func (n *Network) Spec(trip Trip) TripSpec {
	spec := TripSpec{
		ID:        trip.ID,
		RouteID:   trip.RouteID,
		Headsign:  trip.Headsign,
		Direction: trip.Direction,
		Stops:     make([]Stop, len(trip.Stops)),
		Shapes:    cloneShapes(trip.Shapes),
	}
	for i, ref := range trip.Stops {
		spec.Stops[i] = n.stops[ref].detached()
	}
	return spec
}

// Specs returns detached deep copies of every trip, in network order
func (n *Network) Specs() []TripSpec {
	specs := make([]TripSpec, len(n.trips))
	for i, trip := range n.trips {
		specs[i] = n.Spec(trip)
	}
	return specs
}

// Clone rebuilds the network under a new id
func (n *Network) Clone(id string) *Network {
	return NewNetwork(id, n.Specs(), nil)
}

// String implements fmt.Stringer
func (n *Network) String() string {
	return fmt.Sprintf("(TransitNetwork[id: %s, routes: %d, trips: %d, stops: %d, ridership: %.2f])",
		n.id, n.NumRoutes(), n.NumTrips(), n.NumStops(), n.ridership)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
