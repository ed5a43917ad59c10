package zones

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Zone is a named geographic region: a centroid plus a radius of influence in meters.
// A zero Radius means the evaluator's configured default applies.
type Zone struct {
	Name     string
	Location orb.Point
	Radius   float64
	Tags     []string
}

// NewZone creates a zone from latitude/longitude
func NewZone(name string, lat, lon float64, tags ...string) Zone {
	return Zone{Name: name, Location: orb.Point{lon, lat}, Tags: tags}
}

// HasTag reports whether the zone carries a tag
func (z Zone) HasTag(tag string) bool {
	for _, t := range z.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (z Zone) String() string {
	return z.Name
}

// TransitPath is a weighted zone pair whose connectivity contributes to the zone score
type TransitPath struct {
	From   string
	To     string
	Weight float64
}

// The San Francisco zones the optimizer was first tuned against
var (
	InnerRichmond     = NewZone("Inner Richmond", 37.780554, -122.472288, "residential")
	Downtown          = NewZone("Downtown", 37.779743, -122.413583, "downtown", "hub")
	Mission           = NewZone("Mission", 37.752252, -122.418125, "residential")
	WestPortal        = NewZone("West Portal", 37.738030, -122.469079, "residential")
	Embarcadero       = NewZone("Embarcadero", 37.792728, -122.397015, "commercial")
	Chinatown         = NewZone("Chinatown", 37.794521, -122.404864, "commercial")
	PacificHeights    = NewZone("Pacific Heights/Japantown", 37.784542, -122.431252, "residential")
	Dogpatch          = NewZone("Dogpatch", 37.757698, -122.392687, "industrial")
	HaightAshbury     = NewZone("Haight and Ashbury", 37.770224, -122.445421, "residential")
	OuterRichmond     = NewZone("Outer Richmond", 37.775891, -122.496533, "residential")
	IrvingJudahSunset = NewZone("Irving/Judah-Sunset", 37.761713, -122.477040, "residential")
	MarinaDistrict    = NewZone("Marina District", 37.799901, -122.436089, "residential")
)

// DefaultZones returns the four zones used by default runs
func DefaultZones() []Zone {
	return []Zone{InnerRichmond, Downtown, Mission, WestPortal}
}

// AllZones returns every predefined zone
func AllZones() []Zone {
	return []Zone{
		InnerRichmond, Downtown, Mission, WestPortal,
		Embarcadero, Chinatown, PacificHeights, Dogpatch,
		HaightAshbury, OuterRichmond, IrvingJudahSunset, MarinaDistrict,
	}
}

// DefaultPaths connects each default zone to Downtown with equal weight
func DefaultPaths() []TransitPath {
	return HubAndSpoke(Downtown.Name, DefaultZones(), 0.33, nil)
}

// HubAndSpoke builds a path from every non-hub zone to the hub, then appends ring paths
func HubAndSpoke(hub string, zones []Zone, hubWeight float64, ring []TransitPath) []TransitPath {
	paths := make([]TransitPath, 0, len(zones)+len(ring))
	for _, z := range zones {
		if z.Name == hub {
			continue
		}
		paths = append(paths, TransitPath{From: z.Name, To: hub, Weight: hubWeight})
	}
	return append(paths, ring...)
}

// Validate checks that zone names are unique and that every path joins two known
// zones with a non-negative weight
func Validate(zones []Zone, paths []TransitPath) error {
	if len(zones) == 0 {
		return fmt.Errorf("no zones configured")
	}
	known := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if z.Name == "" {
			return fmt.Errorf("zone with empty name")
		}
		if _, dup := known[z.Name]; dup {
			return fmt.Errorf("duplicate zone name %q", z.Name)
		}
		if z.Radius < 0 {
			return fmt.Errorf("zone %q has negative radius", z.Name)
		}
		known[z.Name] = struct{}{}
	}
	for i, p := range paths {
		if _, ok := known[p.From]; !ok {
			return fmt.Errorf("path %d references unknown zone %q", i, p.From)
		}
		if _, ok := known[p.To]; !ok {
			return fmt.Errorf("path %d references unknown zone %q", i, p.To)
		}
		if p.Weight < 0 {
			return fmt.Errorf("path %d (%s -> %s) has negative weight %.4f", i, p.From, p.To, p.Weight)
		}
	}
	return nil
}
