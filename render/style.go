package render

import (
	"fmt"

	"orthoglobe/geography"
	"orthoglobe/raster"
)

// Fidelity selects which landmass resolution a frame is drawn with.
type Fidelity uint8

const (
	Coarse Fidelity = iota
	Fine
)

func (f Fidelity) String() string {
	switch f {
	case Coarse:
		return "coarse"
	case Fine:
		return "fine"
	}
	return fmt.Sprintf("fidelity(%d)", uint8(f))
}

// Detail maps the fidelity to the matching geography resolution.
func (f Fidelity) Detail() geography.Detail {
	if f == Coarse {
		return geography.Coarse
	}
	return geography.Fine
}

// Style holds the globe palette and sizes, in pixels.
type Style struct {
	Background raster.Color
	Ocean      raster.Color
	Land       raster.Color
	Outline    raster.Color
	Label      raster.Color

	MarkerRadius float64
	HoverRadius  float64
	OutlineWidth float64
	// Buffer is how far outside the surface a marker may project and still be
	// drawn.
	Buffer float64
}

func DefaultStyle() Style {
	return Style{
		Background:   raster.Transparent,
		Ocean:        raster.RGB(0x39, 0x87, 0xC9),
		Land:         raster.RGB(0x00, 0x00, 0x00),
		Outline:      raster.RGB(0x00, 0x00, 0x00),
		Label:        raster.RGB(0xF5, 0xF5, 0xF5),
		MarkerRadius: 3,
		HoverRadius:  8,
		OutlineWidth: 5,
		Buffer:       400,
	}
}

// Reserved lists the opaque colors the globe itself paints. Marker colors must
// avoid them.
func (s Style) Reserved() []raster.Color {
	out := make([]raster.Color, 0, 5)
	for _, c := range []raster.Color{s.Background, s.Ocean, s.Land, s.Outline, s.Label} {
		if c.Opaque() {
			out = append(out, c)
		}
	}
	return out
}

// Validate reports sizes that cannot be drawn.
func (s Style) Validate() error {
	switch {
	case s.MarkerRadius <= 0:
		return fmt.Errorf("marker radius must be positive, got %v", s.MarkerRadius)
	case s.HoverRadius < s.MarkerRadius:
		return fmt.Errorf("hover radius %v smaller than marker radius %v", s.HoverRadius, s.MarkerRadius)
	case s.OutlineWidth < 0:
		return fmt.Errorf("outline width must not be negative, got %v", s.OutlineWidth)
	case s.Buffer < 0:
		return fmt.Errorf("buffer must not be negative, got %v", s.Buffer)
	}
	return nil
}
