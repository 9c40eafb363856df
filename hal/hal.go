// Package hal is the host layer the globe runs on: a pixel sink, pointer input
// and a line logger, backed either by a desktop window or by a headless ticker.
package hal

import (
	"github.com/golang/geo/r2"

	"orthoglobe/drag"
)

type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

type PixelFormat uint8

const (
	// PixelFormatRGBA8888 is 8-bit alpha-premultiplied RGBA, 4 bytes per pixel.
	PixelFormatRGBA8888 PixelFormat = iota + 1
)

type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int

	// Buffer returns the framebuffer memory. Writers must call Present when done.
	Buffer() []byte

	ClearRGB(r, g, b uint8)
	Present() error
}

type Display interface {
	Framebuffer() Framebuffer
}

// PointerEvent is either a gesture sample or, when Hover is set, the position of
// a pointer with no button or touch held.
type PointerEvent struct {
	Gesture drag.PointerEvent
	Hover   bool
	At      r2.Point
}

type Pointer interface {
	Events() <-chan PointerEvent
}

type Input interface {
	Pointer() Pointer
}

type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
}
