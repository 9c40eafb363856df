package raster

// Target is a minimal pixel target for software rendering.
//
// Implementations should clip out-of-bounds coordinates.
type Target interface {
	Size() (w, h int)
	SetPixel(x, y int, c Color)
	Clear(c Color)
}

// Sampler reads back pixels from a rendered target.
type Sampler interface {
	At(x, y int) (Color, bool)
}

// spanFiller is implemented by targets that can fill a horizontal run faster than
// pixel by pixel.
type spanFiller interface {
	FillSpan(y, x0, x1 int, c Color)
}

func fillSpan(t Target, y, x0, x1 int, c Color) {
	if sf, ok := t.(spanFiller); ok {
		sf.FillSpan(y, x0, x1, c)
		return
	}
	for x := x0; x <= x1; x++ {
		t.SetPixel(x, y, c)
	}
}
