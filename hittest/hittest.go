// Package hittest finds the marker under a screen point.
package hittest

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"

	"orthoglobe/geography"
	"orthoglobe/raster"
	"orthoglobe/render"
)

// Mode selects the hit testing strategy.
type Mode uint8

const (
	// Pixel samples the rendered surface and matches the exact marker color.
	// Blended edge pixels miss.
	Pixel Mode = iota
	// Index checks the positions recorded in the last frame.
	Index
)

func (m Mode) String() string {
	switch m {
	case Pixel:
		return "pixel"
	case Index:
		return "index"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pixel":
		return Pixel, nil
	case "index":
		return Index, nil
	}
	return Pixel, fmt.Errorf("unknown hit mode %q", s)
}

// Tester answers hit queries against the most recent frame.
type Tester struct {
	Mode     Mode
	Registry *geography.Registry
}

// HitTest returns the marker drawn at pt. surface and frame must come from the
// same Render call.
func (t Tester) HitTest(surface raster.Sampler, frame render.Frame, pt r2.Point) (geography.Marker, bool) {
	if t.Mode == Index {
		return ByIndex(frame, pt)
	}
	return ByPixel(surface, t.Registry, pt)
}

// ByPixel looks up the color of the pixel containing pt.
func ByPixel(surface raster.Sampler, reg *geography.Registry, pt r2.Point) (geography.Marker, bool) {
	if surface == nil || reg == nil {
		return geography.Marker{}, false
	}
	if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
		return geography.Marker{}, false
	}
	c, ok := surface.At(int(math.Floor(pt.X)), int(math.Floor(pt.Y)))
	if !ok {
		return geography.Marker{}, false
	}
	return reg.ByColor(c)
}

// ByIndex returns the last drawn marker whose disk contains pt. The highlighted
// marker is painted after all others, so it is checked first.
func ByIndex(frame render.Frame, pt r2.Point) (geography.Marker, bool) {
	if h := frame.Highlight; h >= 0 && h < len(frame.Markers) {
		if d := frame.Markers[h]; pt.Sub(d.Point).Norm() <= d.Radius {
			return d.Marker, true
		}
	}
	for i := len(frame.Markers) - 1; i >= 0; i-- {
		d := frame.Markers[i]
		if pt.Sub(d.Point).Norm() <= d.Radius {
			return d.Marker, true
		}
	}
	return geography.Marker{}, false
}
