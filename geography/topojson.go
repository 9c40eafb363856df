package geography

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

var (
	ErrNotTopology     = errors.New("document is not a topology")
	ErrUnknownObject   = errors.New("topology object not found")
	ErrBadArcIndex     = errors.New("arc index out of range")
	ErrUnsupportedType = errors.New("unsupported geometry type")
)

// Topology is a decoded TopoJSON document.
type Topology struct {
	Type      string                   `json:"type"`
	Transform *TopoTransform           `json:"transform,omitempty"`
	Objects   map[string]*TopoGeometry `json:"objects"`
	Arcs      [][][]float64            `json:"arcs"`

	decoded [][][]float64
}

// TopoTransform dequantizes delta-encoded arc positions.
type TopoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

// TopoGeometry is a geometry object inside a topology.
type TopoGeometry struct {
	Type        string                 `json:"type"`
	ID          interface{}            `json:"id,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	Arcs        json.RawMessage        `json:"arcs,omitempty"`
	Coordinates json.RawMessage        `json:"coordinates,omitempty"`
	Geometries  []*TopoGeometry        `json:"geometries,omitempty"`
}

// DecodeTopology parses a TopoJSON document and resolves its arcs.
func DecodeTopology(data []byte) (*Topology, error) {
	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	if t.Type != "Topology" {
		return nil, fmt.Errorf("%w: type %q", ErrNotTopology, t.Type)
	}
	t.decodeArcs()
	return &t, nil
}

// decodeArcs converts quantized, delta-encoded arcs to absolute positions.
func (t *Topology) decodeArcs() {
	t.decoded = make([][][]float64, len(t.Arcs))
	for i, arc := range t.Arcs {
		out := make([][]float64, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t.Transform == nil {
				out = append(out, []float64{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			out = append(out, []float64{
				x*t.Transform.Scale[0] + t.Transform.Translate[0],
				y*t.Transform.Scale[1] + t.Transform.Translate[1],
			})
		}
		t.decoded[i] = out
	}
}

// ObjectNames lists the named objects of the topology in sorted order.
func (t *Topology) ObjectNames() []string {
	names := make([]string, 0, len(t.Objects))
	for name := range t.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Feature converts the named object to a feature collection, stitching arcs into
// rings. A GeometryCollection becomes one feature per member geometry.
func (t *Topology) Feature(name string) (*geojson.FeatureCollection, error) {
	obj, ok := t.Objects[name]
	if !ok || obj == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObject, name)
	}
	fc := geojson.NewFeatureCollection()
	members := []*TopoGeometry{obj}
	if obj.Type == "GeometryCollection" {
		members = obj.Geometries
	}
	for _, m := range members {
		if m == nil {
			continue
		}
		g, err := t.geometry(m)
		if err != nil {
			return nil, err
		}
		f := geojson.NewFeature(g)
		f.ID = m.ID
		if m.Properties != nil {
			f.Properties = m.Properties
		}
		fc.AddFeature(f)
	}
	return fc, nil
}

func (t *Topology) geometry(o *TopoGeometry) (*geojson.Geometry, error) {
	switch o.Type {
	case "Polygon":
		var arcs [][]int
		if err := unmarshalArcs(o.Arcs, &arcs); err != nil {
			return nil, err
		}
		poly, err := t.polygon(arcs)
		if err != nil {
			return nil, err
		}
		return geojson.NewPolygonGeometry(poly), nil
	case "MultiPolygon":
		var arcs [][][]int
		if err := unmarshalArcs(o.Arcs, &arcs); err != nil {
			return nil, err
		}
		polys := make([][][][]float64, 0, len(arcs))
		for _, p := range arcs {
			poly, err := t.polygon(p)
			if err != nil {
				return nil, err
			}
			polys = append(polys, poly)
		}
		return geojson.NewMultiPolygonGeometry(polys...), nil
	case "LineString":
		var arcs []int
		if err := unmarshalArcs(o.Arcs, &arcs); err != nil {
			return nil, err
		}
		line, err := t.line(arcs)
		if err != nil {
			return nil, err
		}
		return geojson.NewLineStringGeometry(line), nil
	case "MultiLineString":
		var arcs [][]int
		if err := unmarshalArcs(o.Arcs, &arcs); err != nil {
			return nil, err
		}
		lines := make([][][]float64, 0, len(arcs))
		for _, a := range arcs {
			line, err := t.line(a)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
		return geojson.NewMultiLineStringGeometry(lines...), nil
	case "Point":
		var p []float64
		if err := json.Unmarshal(o.Coordinates, &p); err != nil {
			return nil, fmt.Errorf("decode point: %w", err)
		}
		return geojson.NewPointGeometry(t.point(p)), nil
	case "MultiPoint":
		var ps [][]float64
		if err := json.Unmarshal(o.Coordinates, &ps); err != nil {
			return nil, fmt.Errorf("decode multipoint: %w", err)
		}
		for i := range ps {
			ps[i] = t.point(ps[i])
		}
		return geojson.NewMultiPointGeometry(ps...), nil
	case "GeometryCollection":
		gs := make([]*geojson.Geometry, 0, len(o.Geometries))
		for _, m := range o.Geometries {
			g, err := t.geometry(m)
			if err != nil {
				return nil, err
			}
			gs = append(gs, g)
		}
		return geojson.NewCollectionGeometry(gs...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, o.Type)
	}
}

// point dequantizes a standalone (non delta-encoded) position.
func (t *Topology) point(p []float64) []float64 {
	if t.Transform == nil || len(p) < 2 {
		return p
	}
	return []float64{
		p[0]*t.Transform.Scale[0] + t.Transform.Translate[0],
		p[1]*t.Transform.Scale[1] + t.Transform.Translate[1],
	}
}

func (t *Topology) polygon(rings [][]int) ([][][]float64, error) {
	out := make([][][]float64, 0, len(rings))
	for _, r := range rings {
		ring, err := t.line(r)
		if err != nil {
			return nil, err
		}
		for len(ring) > 0 && len(ring) < 4 {
			ring = append(ring, ring[0])
		}
		out = append(out, ring)
	}
	return out, nil
}

// line concatenates arcs; a negative index i refers to arc ^i reversed. The first
// point of each following arc duplicates the last point of the previous one and is
// dropped.
func (t *Topology) line(arcs []int) ([][]float64, error) {
	var points [][]float64
	for _, i := range arcs {
		reverse := i < 0
		if reverse {
			i = ^i
		}
		if i >= len(t.decoded) {
			return nil, fmt.Errorf("%w: %d of %d", ErrBadArcIndex, i, len(t.decoded))
		}
		arc := t.decoded[i]
		if len(points) > 0 {
			points = points[:len(points)-1]
		}
		if reverse {
			for k := len(arc) - 1; k >= 0; k-- {
				points = append(points, arc[k])
			}
		} else {
			points = append(points, arc...)
		}
	}
	return points, nil
}

func unmarshalArcs(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode arcs: %w", err)
	}
	return nil
}

// DecodeCollection accepts a TopoJSON topology or a GeoJSON document and returns
// its features. object selects the topology object; when empty, a topology with a
// single object uses that object and otherwise "land" is assumed.
func DecodeCollection(data []byte, object string) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	switch head.Type {
	case "Topology":
		topo, err := DecodeTopology(data)
		if err != nil {
			return nil, err
		}
		if object == "" {
			object = "land"
			if names := topo.ObjectNames(); len(names) == 1 {
				object = names[0]
			}
		}
		return topo.Feature(object)
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		return fc, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		return geojson.NewFeatureCollection().AddFeature(f), nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrUnsupportedType)
	default:
		g, err := geojson.UnmarshalGeometry(bytes.TrimSpace(data))
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		return geojson.NewFeatureCollection().AddFeature(geojson.NewFeature(g)), nil
	}
}
