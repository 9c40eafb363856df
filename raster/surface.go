package raster

import (
	"image"
	"image/color"

	"tinygo.org/x/drivers"
)

// Surface is an RGBA8 raster of fixed size.
//
// Redraws overwrite the pixel buffer in place; it is never reallocated. A Surface
// has a single writer (the renderer) and is read back by hit testing and by the
// host when presenting a frame.
type Surface struct {
	img *image.RGBA
}

// NewSurface allocates a w×h surface cleared to Transparent.
func NewSurface(w, h int) *Surface {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (s *Surface) Size() (w, h int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image exposes the backing buffer for presentation (PNG encoding, window upload).
// Callers must not retain it across redraws if they need a stable snapshot.
func (s *Surface) Image() *image.RGBA { return s.img }

// Pix returns the raw RGBA bytes, row-major with Stride bytes per row.
func (s *Surface) Pix() []byte { return s.img.Pix }

func (s *Surface) Stride() int { return s.img.Stride }

func (s *Surface) Clear(c Color) {
	pix := s.img.Pix
	if len(pix) == 0 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

func (s *Surface) SetPixel(x, y int, c Color) {
	w, h := s.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	off := y*s.img.Stride + x*4
	p := s.img.Pix[off : off+4 : off+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// FillSpan fills pixels x0..x1 (inclusive) of row y.
func (s *Surface) FillSpan(y, x0, x1 int, c Color) {
	w, h := s.Size()
	if y < 0 || y >= h {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= w {
		x1 = w - 1
	}
	if x0 > x1 {
		return
	}
	row := s.img.Pix[y*s.img.Stride:]
	for x := x0; x <= x1; x++ {
		off := x * 4
		row[off], row[off+1], row[off+2], row[off+3] = c.R, c.G, c.B, c.A
	}
}

// At returns the pixel at (x, y); ok is false outside the surface.
func (s *Surface) At(x, y int) (c Color, ok bool) {
	w, h := s.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return Color{}, false
	}
	off := y*s.img.Stride + x*4
	p := s.img.Pix[off : off+4 : off+4]
	return Color{R: p[0], G: p[1], B: p[2], A: p[3]}, true
}

// Displayer adapts the surface to a driver display so tinyfont can draw on it.
func (s *Surface) Displayer() *Displayer { return &Displayer{s: s} }

var _ drivers.Displayer = (*Displayer)(nil)

// Displayer is a drivers.Displayer view of a Surface.
type Displayer struct {
	s *Surface
}

func (d *Displayer) Size() (x, y int16) {
	w, h := d.s.Size()
	return int16(w), int16(h)
}

func (d *Displayer) SetPixel(x, y int16, c color.RGBA) {
	d.s.SetPixel(int(x), int(y), Color{R: c.R, G: c.G, B: c.B, A: c.A})
}

func (d *Displayer) Display() error { return nil }
