package network

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
)

// Document is the on-disk form of a network: a stop table plus trips that
// reference stops by id.
type Document struct {
	ID    string         `json:"id"`
	Stops []StopDocument `json:"stops"`
	Trips []TripDocument `json:"trips"`
}

// StopDocument is one row of the stop table
type StopDocument struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	ParentID  string  `json:"parent_id,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Ridership float64 `json:"ridership"`
}

// TripDocument describes a trip. Shapes holds one [lon, lat] polyline per stop.
// When Ridership is set it is spread evenly over the trip's stops on load.
type TripDocument struct {
	ID        string        `json:"id"`
	RouteID   string        `json:"route_id"`
	Headsign  string        `json:"headsign,omitempty"`
	Direction int           `json:"direction"`
	StopIDs   []string      `json:"stop_ids"`
	Shapes    [][]orb.Point `json:"shapes,omitempty"`
	Ridership *float64      `json:"ridership,omitempty"`
}

// AssignTripRidership spreads a trip's ridership evenly over its stops, adding
// to whatever the stops already carry.
func AssignTripRidership(stops []Stop, ridership float64) {
	if len(stops) == 0 {
		return
	}
	share := ridership / float64(len(stops))
	for i := range stops {
		stops[i].Ridership += share
	}
}

// ReadDocument decodes a network document
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode network document: %w", err)
	}
	return doc, nil
}

// FromDocument builds a network from a document. Every stop id a trip names must
// exist in the stop table.
func FromDocument(doc Document, log Logger) (*Network, error) {
	stopTable := make(map[string]Stop, len(doc.Stops))
	for _, s := range doc.Stops {
		if _, dup := stopTable[s.ID]; dup {
			if log != nil {
				log.Warning("Duplicate stop id %s in document %s, keeping first", s.ID, doc.ID)
			}
			continue
		}
		stopTable[s.ID] = Stop{
			ID:        s.ID,
			Name:      s.Name,
			ParentID:  s.ParentID,
			Location:  orb.Point{s.Lon, s.Lat},
			Ridership: s.Ridership,
		}
	}

	// trip-level ridership lands on the shared stop table first so every trip
	// visiting a stop sees the same accumulated value
	for _, t := range doc.Trips {
		if t.Ridership == nil {
			continue
		}
		shares := make([]Stop, len(t.StopIDs))
		AssignTripRidership(shares, *t.Ridership)
		for i, id := range t.StopIDs {
			s, ok := stopTable[id]
			if !ok {
				return nil, fmt.Errorf("trip %s references unknown stop %s", t.ID, id)
			}
			s.Ridership += shares[i].Ridership
			stopTable[id] = s
		}
	}

	specs := make([]TripSpec, 0, len(doc.Trips))
	for _, t := range doc.Trips {
		spec := TripSpec{
			ID:        t.ID,
			RouteID:   t.RouteID,
			Headsign:  t.Headsign,
			Direction: Direction(t.Direction),
			Stops:     make([]Stop, 0, len(t.StopIDs)),
		}
		for _, id := range t.StopIDs {
			s, ok := stopTable[id]
			if !ok {
				return nil, fmt.Errorf("trip %s references unknown stop %s", t.ID, id)
			}
			spec.Stops = append(spec.Stops, s)
		}
		if len(t.Shapes) > 0 {
			spec.Shapes = make([][]ShapePoint, len(t.Shapes))
			seq := 0
			for i, part := range t.Shapes {
				spec.Shapes[i] = make([]ShapePoint, len(part))
				for j, p := range part {
					spec.Shapes[i][j] = ShapePoint{Location: p, Sequence: seq}
					seq++
				}
			}
		}
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("network document %s has no trips", doc.ID)
	}
	return NewNetwork(doc.ID, specs, log), nil
}

// ToDocument converts a network to its on-disk form
func ToDocument(n *Network) Document {
	doc := Document{
		ID:    n.ID(),
		Stops: make([]StopDocument, 0, n.NumStops()),
		Trips: make([]TripDocument, 0, n.NumTrips()),
	}
	for _, s := range n.Stops() {
		doc.Stops = append(doc.Stops, StopDocument{
			ID:        s.ID,
			Name:      s.Name,
			ParentID:  s.ParentID,
			Lat:       s.Location.Lat(),
			Lon:       s.Location.Lon(),
			Ridership: s.Ridership,
		})
	}
	for _, t := range n.Trips() {
		td := TripDocument{
			ID:        t.ID,
			RouteID:   t.RouteID,
			Headsign:  t.Headsign,
			Direction: int(t.Direction),
			StopIDs:   make([]string, len(t.Stops)),
		}
		for i, ref := range t.Stops {
			td.StopIDs[i] = n.Stop(ref).ID
		}
		if hasShapes(t.Shapes) {
			td.Shapes = make([][]orb.Point, len(t.Shapes))
			for i, part := range t.Shapes {
				td.Shapes[i] = make([]orb.Point, len(part))
				for j, p := range part {
					td.Shapes[i][j] = p.Location
				}
			}
		}
		doc.Trips = append(doc.Trips, td)
	}
	return doc
}

func hasShapes(shapes [][]ShapePoint) bool {
	for _, part := range shapes {
		if len(part) > 0 {
			return true
		}
	}
	return false
}

// LoadJSON reads a network document from disk
func LoadJSON(path string, log Logger) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open network file: %w", err)
	}
	defer f.Close()

	doc, err := ReadDocument(f)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, log)
}

// SaveJSON writes a network document, replacing the target atomically
func SaveJSON(n *Network, path string) error {
	data, err := json.MarshalIndent(ToDocument(n), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary network file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to commit network file: %w", err)
	}
	return nil
}
