package raster

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is an RGBA color in 8-bit channels.
type Color struct {
	R, G, B, A uint8
}

func RGB(r, g, b uint8) Color     { return Color{R: r, G: g, B: b, A: 0xFF} }
func RGBA(r, g, b, a uint8) Color { return Color{R: r, G: g, B: b, A: a} }

// Transparent is the color of a cleared surface.
var Transparent = Color{}

// Key packs the RGB channels into a single lookup key. Alpha is ignored.
func (c Color) Key() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Opaque reports whether the color is fully opaque.
func (c Color) Opaque() bool { return c.A == 0xFF }

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// RGBA8 converts to the premultiplied color type used by drivers and fonts.
func (c Color) RGBA8() color.RGBA {
	if c.A == 0xFF {
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
	}
	mul := func(ch uint8) uint8 { return uint8(uint32(ch) * uint32(c.A) / 0xFF) }
	return color.RGBA{R: mul(c.R), G: mul(c.G), B: mul(c.B), A: c.A}
}

// ErrBadColor is returned when a color string cannot be parsed.
var ErrBadColor = errors.New("bad color")

// namedColors covers the CSS keywords used by marker registries.
var namedColors = map[string]Color{
	"black":   RGB(0x00, 0x00, 0x00),
	"white":   RGB(0xFF, 0xFF, 0xFF),
	"red":     RGB(0xFF, 0x00, 0x00),
	"green":   RGB(0x00, 0x80, 0x00),
	"lime":    RGB(0x00, 0xFF, 0x00),
	"blue":    RGB(0x00, 0x00, 0xFF),
	"yellow":  RGB(0xFF, 0xFF, 0x00),
	"orange":  RGB(0xFF, 0xA5, 0x00),
	"purple":  RGB(0x80, 0x00, 0x80),
	"pink":    RGB(0xFF, 0xC0, 0xCB),
	"cyan":    RGB(0x00, 0xFF, 0xFF),
	"magenta": RGB(0xFF, 0x00, 0xFF),
	"gray":    RGB(0x80, 0x80, 0x80),
	"brown":   RGB(0xA5, 0x2A, 0x2A),
}

// ParseColor parses #rgb, #rrggbb or a CSS color keyword.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// MustParseColor is ParseColor for compile-time constants.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
