package raster

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// Pixels are sampled at their centers and either fully covered or untouched; no
// primitive blends with what is already on the target. Marker hit testing relies
// on this to find exact colors.

// FillCircle fills the disk of radius r centered at c.
func FillCircle(t Target, c r2.Point, r float64, col Color) {
	if r <= 0 {
		return
	}
	w, h := t.Size()
	minY := clampInt(int(math.Floor(c.Y-r)), 0, h-1)
	maxY := clampInt(int(math.Ceil(c.Y+r)), 0, h-1)
	rr := r * r
	for y := minY; y <= maxY; y++ {
		dy := float64(y) + 0.5 - c.Y
		rem := rr - dy*dy
		if rem < 0 {
			continue
		}
		half := math.Sqrt(rem)
		x0 := int(math.Ceil(c.X - half - 0.5))
		x1 := int(math.Floor(c.X + half - 0.5))
		if x1 < 0 || x0 >= w {
			continue
		}
		fillSpan(t, y, x0, x1, col)
	}
}

// StrokeCircle draws a ring of the given width centered on the circle of radius r.
func StrokeCircle(t Target, c r2.Point, r, width float64, col Color) {
	if width <= 0 || r <= 0 {
		return
	}
	outer := r + width/2
	inner := r - width/2
	if inner < 0 {
		inner = 0
	}
	w, h := t.Size()
	minY := clampInt(int(math.Floor(c.Y-outer)), 0, h-1)
	maxY := clampInt(int(math.Ceil(c.Y+outer)), 0, h-1)
	minX := clampInt(int(math.Floor(c.X-outer)), 0, w-1)
	maxX := clampInt(int(math.Ceil(c.X+outer)), 0, w-1)
	o2, i2 := outer*outer, inner*inner
	for y := minY; y <= maxY; y++ {
		dy := float64(y) + 0.5 - c.Y
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - c.X
			d := dx*dx + dy*dy
			if d <= o2 && d >= i2 {
				t.SetPixel(x, y, col)
			}
		}
	}
}

// Rasterizer fills polygons with the even-odd rule using scanlines.
//
// Create it once and reuse it to avoid allocations.
type Rasterizer struct {
	xs []float64
}

// FillPolygon fills the area enclosed by rings. Rings are implicitly closed; holes
// are expressed as additional rings.
func (rz *Rasterizer) FillPolygon(t Target, rings [][]r2.Point, col Color) {
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return
	}
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, ring := range rings {
		for _, p := range ring {
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minY, 0) {
		return
	}
	y0 := clampInt(int(math.Floor(minY)), 0, h-1)
	y1 := clampInt(int(math.Ceil(maxY)), 0, h-1)

	for y := y0; y <= y1; y++ {
		yc := float64(y) + 0.5
		rz.xs = rz.xs[:0]
		for _, ring := range rings {
			n := len(ring)
			if n < 3 {
				continue
			}
			for i := 0; i < n; i++ {
				a := ring[i]
				b := ring[(i+1)%n]
				if (a.Y <= yc) == (b.Y <= yc) {
					continue
				}
				rz.xs = append(rz.xs, a.X+(yc-a.Y)*(b.X-a.X)/(b.Y-a.Y))
			}
		}
		if len(rz.xs) < 2 {
			continue
		}
		sort.Float64s(rz.xs)
		for i := 0; i+1 < len(rz.xs); i += 2 {
			x0 := int(math.Ceil(rz.xs[i] - 0.5))
			x1 := int(math.Ceil(rz.xs[i+1]-0.5)) - 1
			if x1 < 0 || x0 >= w || x0 > x1 {
				continue
			}
			fillSpan(t, y, x0, x1, col)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
