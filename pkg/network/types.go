package network

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Package network models a simplified transit system: routes made of trips,
// trips made of ordered stops with shape partitions between them.

// Direction is the GTFS direction_id of a trip
type Direction int

const (
	DirectionOutbound Direction = 0
	DirectionInbound  Direction = 1
)

// Logger receives diagnostics produced while building networks
type Logger interface {
	Debug(format string, args ...interface{})
	Warning(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) Warning(string, ...interface{}) {}

// Stop is a geographic stop. Routes and TripSequences are owned by the network
// that interned the stop and are rebuilt every time a network is constructed.
type Stop struct {
	ID            string
	Name          string
	ParentID      string
	Location      orb.Point
	Ridership     float64
	Routes        []string
	TripSequences map[string]int
}

// IsTransfer reports whether more than one distinct route serves the stop
func (s Stop) IsTransfer() bool {
	seen := make(map[string]struct{}, len(s.Routes))
	for _, r := range s.Routes {
		seen[r] = struct{}{}
	}
	return len(seen) > 1
}

// DistanceTo returns the great-circle distance in meters to a point
func (s Stop) DistanceTo(p orb.Point) float64 {
	return geo.DistanceHaversine(s.Location, p)
}

// detached copies the stop's own attributes, dropping network-owned fields
func (s Stop) detached() Stop {
	return Stop{
		ID:        s.ID,
		Name:      s.Name,
		ParentID:  s.ParentID,
		Location:  s.Location,
		Ridership: s.Ridership,
	}
}

// ShapePoint is one vertex of a trip's polyline
type ShapePoint struct {
	Location orb.Point
	Sequence int
}

// StopRef is a handle into a network's stop arena
type StopRef int

// TripSpec is a self-contained trip description. Networks are built from specs
// and hand out deep copies of them, so a spec never aliases network state.
type TripSpec struct {
	ID        string
	RouteID   string
	Headsign  string
	Direction Direction
	Stops     []Stop
	Shapes    [][]ShapePoint
}

// Clone returns a deep copy of the spec
func (t TripSpec) Clone() TripSpec {
	out := TripSpec{
		ID:        t.ID,
		RouteID:   t.RouteID,
		Headsign:  t.Headsign,
		Direction: t.Direction,
		Stops:     make([]Stop, len(t.Stops)),
		Shapes:    cloneShapes(t.Shapes),
	}
	for i, s := range t.Stops {
		out.Stops[i] = s.detached()
	}
	return out
}

// StopIDs returns the ordered stop identifiers of the trip
func (t TripSpec) StopIDs() []string {
	ids := make([]string, len(t.Stops))
	for i, s := range t.Stops {
		ids[i] = s.ID
	}
	return ids
}

// IndexOf returns the first position of a stop id in the trip
func (t TripSpec) IndexOf(stopID string) (int, bool) {
	for i, s := range t.Stops {
		if s.ID == stopID {
			return i, true
		}
	}
	return 0, false
}

// SharedStop returns the first stop of a, in a's order, that b also visits
func SharedStop(a, b TripSpec) (string, bool) {
	inB := make(map[string]struct{}, len(b.Stops))
	for _, s := range b.Stops {
		inB[s.ID] = struct{}{}
	}
	for _, s := range a.Stops {
		if _, ok := inB[s.ID]; ok {
			return s.ID, true
		}
	}
	return "", false
}

// Trip is a trip interned in a network; stops are arena handles
type Trip struct {
	ID        string
	RouteID   string
	Headsign  string
	Direction Direction
	Stops     []StopRef
	Shapes    [][]ShapePoint
}

// IndexOfRef returns the first position of a stop handle in the trip
func (t Trip) IndexOfRef(ref StopRef) (int, bool) {
	for i, r := range t.Stops {
		if r == ref {
			return i, true
		}
	}
	return 0, false
}

// IndexOf returns the first position of a stop id in the trip
func (t Trip) IndexOf(n *Network, stopID string) (int, bool) {
	ref, ok := n.StopByID(stopID)
	if !ok {
		return 0, false
	}
	return t.IndexOfRef(ref)
}

// Route groups the trips sharing a route id; Trips indexes the network's trip list
type Route struct {
	ID    string
	Name  string
	Trips []int
}

func cloneShapes(shapes [][]ShapePoint) [][]ShapePoint {
	if shapes == nil {
		return nil
	}
	out := make([][]ShapePoint, len(shapes))
	for i, part := range shapes {
		out[i] = append([]ShapePoint(nil), part...)
	}
	return out
}
