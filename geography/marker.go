package geography

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"orthoglobe/projection"
	"orthoglobe/raster"
)

var (
	ErrInvalidMarker  = errors.New("invalid marker")
	ErrDuplicateColor = errors.New("duplicate marker color")
	ErrReservedColor  = errors.New("marker color is reserved")
)

// Marker is a named geographic point drawn in a unique color.
type Marker struct {
	Name  string
	Coord projection.LonLat
	Color raster.Color
}

// Registry is an immutable, ordered set of markers keyed by color.
type Registry struct {
	markers []Marker
	byKey   map[uint32]int
	byName  map[string]int
}

// NewRegistry validates markers and builds a registry.
//
// Colors must be pairwise distinct and must not collide with any of the reserved
// colors (the globe's own palette), otherwise pixel hit testing would be ambiguous.
func NewRegistry(markers []Marker, reserved ...raster.Color) (*Registry, error) {
	r := &Registry{
		markers: make([]Marker, 0, len(markers)),
		byKey:   make(map[uint32]int, len(markers)),
		byName:  make(map[string]int, len(markers)),
	}
	res := make(map[uint32]bool, len(reserved))
	for _, c := range reserved {
		res[c.Key()] = true
	}
	for i, m := range markers {
		if err := validateMarker(m); err != nil {
			return nil, fmt.Errorf("marker %d: %w", i, err)
		}
		k := m.Color.Key()
		if res[k] {
			return nil, fmt.Errorf("%w: %s uses %s", ErrReservedColor, m.Name, m.Color)
		}
		if j, ok := r.byKey[k]; ok {
			return nil, fmt.Errorf("%w: %s and %s share %s", ErrDuplicateColor, r.markers[j].Name, m.Name, m.Color)
		}
		r.byKey[k] = len(r.markers)
		r.byName[m.Name] = len(r.markers)
		r.markers = append(r.markers, m)
	}
	return r, nil
}

func validateMarker(m Marker) error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidMarker)
	case !finite(m.Coord.Lon) || m.Coord.Lon < -180 || m.Coord.Lon > 180:
		return fmt.Errorf("%w: %s longitude %v", ErrInvalidMarker, m.Name, m.Coord.Lon)
	case !finite(m.Coord.Lat) || m.Coord.Lat < -90 || m.Coord.Lat > 90:
		return fmt.Errorf("%w: %s latitude %v", ErrInvalidMarker, m.Name, m.Coord.Lat)
	case !m.Color.Opaque():
		return fmt.Errorf("%w: %s color must be opaque", ErrInvalidMarker, m.Name)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (r *Registry) Len() int { return len(r.markers) }

// At returns the i-th marker in registration order.
func (r *Registry) At(i int) Marker { return r.markers[i] }

// Markers returns a copy of the markers in registration order.
func (r *Registry) Markers() []Marker {
	out := make([]Marker, len(r.markers))
	copy(out, r.markers)
	return out
}

// ByColor looks up a marker by exact color. Pixels that are not fully opaque
// never match.
func (r *Registry) ByColor(c raster.Color) (Marker, bool) {
	if r == nil || !c.Opaque() {
		return Marker{}, false
	}
	i, ok := r.byKey[c.Key()]
	if !ok {
		return Marker{}, false
	}
	return r.markers[i], true
}

func (r *Registry) ByName(name string) (Marker, bool) {
	if r == nil {
		return Marker{}, false
	}
	i, ok := r.byName[name]
	if !ok {
		return Marker{}, false
	}
	return r.markers[i], true
}

// DefaultMarkers returns the built-in conflict markers.
func DefaultMarkers() []Marker {
	return []Marker{
		{Name: "Syria", Coord: projection.LonLat{Lon: 38.9968, Lat: 34.8021}, Color: raster.MustParseColor("red")},
		{Name: "Vietnam", Coord: projection.LonLat{Lon: 108.2772, Lat: 14.0583}, Color: raster.MustParseColor("blue")},
		{Name: "Afghanistan", Coord: projection.LonLat{Lon: 66.2385, Lat: 33.9391}, Color: raster.MustParseColor("green")},
		{Name: "Iraq", Coord: projection.LonLat{Lon: 43.6793, Lat: 33.2232}, Color: raster.MustParseColor("white")},
		{Name: "Yemen", Coord: projection.LonLat{Lon: 48.5164, Lat: 15.5527}, Color: raster.MustParseColor("yellow")},
		{Name: "Sudan", Coord: projection.LonLat{Lon: 30.2176, Lat: 12.8628}, Color: raster.MustParseColor("orange")},
		{Name: "Colombia", Coord: projection.LonLat{Lon: -74.2973, Lat: 4.5709}, Color: raster.MustParseColor("purple")},
		{Name: "Somalia", Coord: projection.LonLat{Lon: 45.7071, Lat: 5.1521}, Color: raster.MustParseColor("pink")},
		{Name: "Israel-Palestine", Coord: projection.LonLat{Lon: 35.124, Lat: 31.7719}, Color: raster.MustParseColor("cyan")},
		{Name: "Congo", Coord: projection.LonLat{Lon: 23.6471, Lat: -2.8775}, Color: raster.MustParseColor("magenta")},
	}
}

type registryFile struct {
	Markers []markerEntry `yaml:"markers"`
}

type markerEntry struct {
	Name  string  `yaml:"name"`
	Lon   float64 `yaml:"lon"`
	Lat   float64 `yaml:"lat"`
	Color string  `yaml:"color"`
}

// ParseRegistry decodes a YAML marker list:
//
//	markers:
//	  - {name: Syria, lon: 38.9968, lat: 34.8021, color: red}
func ParseRegistry(data []byte, reserved ...raster.Color) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode markers: %w", err)
	}
	markers := make([]Marker, 0, len(f.Markers))
	for i, e := range f.Markers {
		c, err := raster.ParseColor(e.Color)
		if err != nil {
			return nil, fmt.Errorf("marker %d (%s): %w", i, e.Name, err)
		}
		markers = append(markers, Marker{
			Name:  e.Name,
			Coord: projection.LonLat{Lon: e.Lon, Lat: e.Lat},
			Color: c,
		})
	}
	return NewRegistry(markers, reserved...)
}

// LoadRegistryFile reads a YAML marker list from path.
func LoadRegistryFile(path string, reserved ...raster.Color) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data, reserved...)
}
