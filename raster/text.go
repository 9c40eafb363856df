package raster

import (
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// LabelFont is the bitmap font used for marker labels.
var LabelFont tinyfont.Fonter = &proggy.TinySZ8pt7b

// DrawText writes s with its baseline at (x, y). Glyph pixels are set without
// blending.
func DrawText(s *Surface, x, y int, text string, c Color) {
	if s == nil || text == "" {
		return
	}
	tinyfont.WriteLine(s.Displayer(), LabelFont, int16(x), int16(y), text, c.RGBA8())
}

// TextWidth returns the advance width of text in pixels.
func TextWidth(text string) int {
	_, outbox := tinyfont.LineWidth(LabelFont, text)
	return int(outbox)
}
