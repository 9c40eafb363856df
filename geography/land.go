package geography

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"orthoglobe/projection"
)

// Detail selects the resolution of a landmass dataset.
type Detail int

const (
	Coarse Detail = iota // 110m, used while dragging
	Fine                 // 50m, used at rest
)

func (d Detail) String() string {
	switch d {
	case Coarse:
		return "coarse"
	case Fine:
		return "fine"
	}
	return fmt.Sprintf("detail(%d)", int(d))
}

// Ring is a closed sequence of geographic points.
type Ring []projection.LonLat

// Polygon is an exterior ring followed by zero or more holes.
type Polygon []Ring

// Land is an immutable landmass feature.
type Land struct {
	Detail   Detail
	Polygons []Polygon
}

// Points reports the total number of vertices across all rings.
func (l *Land) Points() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, p := range l.Polygons {
		for _, r := range p {
			n += len(r)
		}
	}
	return n
}

// LandSet holds both resolutions of the landmass.
type LandSet struct {
	Coarse *Land
	Fine   *Land
}

// For returns the land for d.
func (s LandSet) For(d Detail) *Land {
	if d == Coarse {
		return s.Coarse
	}
	return s.Fine
}

// LandFromCollection flattens the polygonal geometries of fc into a Land. Line and
// point geometries are skipped.
func LandFromCollection(d Detail, fc *geojson.FeatureCollection) *Land {
	l := &Land{Detail: d}
	if fc == nil {
		return l
	}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		l.appendGeometry(f.Geometry)
	}
	return l
}

func (l *Land) appendGeometry(g *geojson.Geometry) {
	if g == nil {
		return
	}
	switch {
	case g.IsPolygon():
		l.appendPolygon(g.Polygon)
	case g.IsMultiPolygon():
		for _, p := range g.MultiPolygon {
			l.appendPolygon(p)
		}
	case g.IsCollection():
		for _, sub := range g.Geometries {
			l.appendGeometry(sub)
		}
	}
}

func (l *Land) appendPolygon(rings [][][]float64) {
	p := make(Polygon, 0, len(rings))
	for _, r := range rings {
		ring := make(Ring, 0, len(r))
		for _, pos := range r {
			if len(pos) < 2 {
				continue
			}
			ring = append(ring, projection.LonLat{Lon: pos[0], Lat: pos[1]})
		}
		if len(ring) >= 3 {
			p = append(p, ring)
		}
	}
	if len(p) > 0 {
		l.Polygons = append(l.Polygons, p)
	}
}
