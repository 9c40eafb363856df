// Package render draws the globe onto a raster surface in painter's order:
// background, sphere, land, outline, markers, hover highlight.
package render

import (
	"github.com/golang/geo/r2"

	"orthoglobe/geography"
	"orthoglobe/projection"
	"orthoglobe/raster"
)

// labelGap separates a highlighted marker from its label.
const labelGap = 4

// Drawn is a marker as it was painted in a frame.
type Drawn struct {
	Marker geography.Marker
	Point  r2.Point
	Radius float64
}

// Frame records what a Render call painted, in draw order.
type Frame struct {
	Markers []Drawn
	// Highlight is the index into Markers of the hovered marker, or -1.
	Highlight int
}

// Renderer draws globes.
//
// Create it once and reuse it to avoid allocations.
type Renderer struct {
	Style Style

	rz    raster.Rasterizer
	rings [][]r2.Point
	pts   []r2.Point
}

func NewRenderer(style Style) *Renderer {
	return &Renderer{Style: style}
}

// Render paints the globe for the projection's current rotation. land may be nil,
// in which case only the sphere, outline and markers are drawn. highlight names
// the hovered marker; empty means none.
func (r *Renderer) Render(s *raster.Surface, p *projection.Orthographic, land *geography.Land, reg *geography.Registry, highlight string) Frame {
	frame := Frame{Highlight: -1}
	if r == nil || s == nil || p == nil {
		return frame
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return frame
	}
	st := r.Style
	center := p.Translate()

	s.Clear(st.Background)
	raster.FillCircle(s, center, p.Scale(), st.Ocean)
	r.drawLand(s, p, land)
	raster.StrokeCircle(s, center, p.Scale(), st.OutlineWidth, st.Outline)

	if reg == nil {
		return frame
	}
	frame.Markers = make([]Drawn, 0, reg.Len())
	for i := 0; i < reg.Len(); i++ {
		m := reg.At(i)
		pt, ok := p.Project(m.Coord)
		if !ok || !r.inBuffer(pt, w, h) {
			continue
		}
		raster.FillCircle(s, pt, st.MarkerRadius, m.Color)
		if m.Name == highlight {
			frame.Highlight = len(frame.Markers)
		}
		frame.Markers = append(frame.Markers, Drawn{Marker: m, Point: pt, Radius: st.MarkerRadius})
	}

	if frame.Highlight >= 0 {
		d := &frame.Markers[frame.Highlight]
		d.Radius = st.HoverRadius
		raster.FillCircle(s, d.Point, d.Radius, d.Marker.Color)
		x, y := labelOrigin(*d, w)
		raster.DrawText(s, x, y, d.Marker.Name, st.Label)
	}
	return frame
}

// labelOrigin places a marker's label to its right, or to its left when it would
// run off the surface.
func labelOrigin(d Drawn, width int) (x, y int) {
	x = int(d.Point.X+d.Radius) + labelGap
	if tw := raster.TextWidth(d.Marker.Name); x+tw > width {
		x = int(d.Point.X-d.Radius) - labelGap - tw
	}
	return x, int(d.Point.Y) + labelGap
}

func (r *Renderer) drawLand(s *raster.Surface, p *projection.Orthographic, land *geography.Land) {
	if land == nil {
		return
	}
	for _, poly := range land.Polygons {
		r.rings = r.rings[:0]
		r.pts = r.pts[:0]
		for _, ring := range poly {
			start := len(r.pts)
			r.pts = p.ProjectRing(ring, r.pts)
			if len(r.pts)-start >= 3 {
				r.rings = append(r.rings, r.pts[start:len(r.pts):len(r.pts)])
			}
		}
		if len(r.rings) == 0 {
			continue
		}
		r.rz.FillPolygon(s, r.rings, r.Style.Land)
	}
}

func (r *Renderer) inBuffer(pt r2.Point, w, h int) bool {
	b := r.Style.Buffer
	return pt.X >= -b && pt.Y >= -b && pt.X <= float64(w)+b && pt.Y <= float64(h)+b
}
