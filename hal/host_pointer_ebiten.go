//go:build cgo

package hal

import (
	"github.com/golang/geo/r2"
	"github.com/hajimehoshi/ebiten/v2"
)

type pointerPoller struct {
	p       *hostPointer
	touches []ebiten.TouchID
	held    []r2.Point
}

// poll samples touches, or the left mouse button when no finger is down.
func (pp *pointerPoller) poll(width, height int) {
	pp.p.flush()
	if !ebiten.IsFocused() {
		pp.p.cancel()
		return
	}
	pp.held = pp.held[:0]
	pp.touches = ebiten.AppendTouchIDs(pp.touches[:0])
	for _, id := range pp.touches {
		x, y := ebiten.TouchPosition(id)
		pp.held = append(pp.held, r2.Point{X: float64(x), Y: float64(y)})
	}

	x, y := ebiten.CursorPosition()
	cursor := r2.Point{X: float64(x), Y: float64(y)}
	if len(pp.held) == 0 && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		pp.held = append(pp.held, cursor)
	}
	inside := x >= 0 && y >= 0 && x < width && y < height
	pp.p.feed(pp.held, cursor, inside)
}
