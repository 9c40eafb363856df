package hal

import (
	"github.com/golang/geo/r2"

	"orthoglobe/drag"
)

const pointerQueue = 64

// hostPointer never drops a gesture boundary. Events that do not fit in the
// channel wait in pending; a queued move or hover is replaced by a newer one.
type hostPointer struct {
	ch      chan PointerEvent
	pending []PointerEvent
	tracker gestureTracker
}

func newHostPointer() *hostPointer {
	return &hostPointer{ch: make(chan PointerEvent, pointerQueue)}
}

func (p *hostPointer) Events() <-chan PointerEvent { return p.ch }

func (p *hostPointer) emit(ev PointerEvent) {
	p.flush()
	if len(p.pending) == 0 {
		select {
		case p.ch <- ev:
			return
		default:
		}
	}
	if n := len(p.pending); n > 0 && supersedes(p.pending[n-1], ev) {
		p.pending[n-1] = ev
		return
	}
	p.pending = append(p.pending, ev)
}

// flush moves pending events into the channel, in order, while there is room.
func (p *hostPointer) flush() {
	for len(p.pending) > 0 {
		select {
		case p.ch <- p.pending[0]:
			p.pending = p.pending[1:]
		default:
			return
		}
	}
}

// supersedes reports whether next can take the place of queued. Moves only
// replace moves with the same pointer count, so re-anchoring is preserved.
func supersedes(queued, next PointerEvent) bool {
	if queued.Hover || next.Hover {
		return queued.Hover && next.Hover
	}
	return queued.Gesture.Phase == drag.Move && next.Gesture.Phase == drag.Move &&
		len(queued.Gesture.Pointers) == len(next.Gesture.Pointers)
}

// feed turns one poll of the held pointers and the cursor into events.
func (p *hostPointer) feed(held []r2.Point, cursor r2.Point, inside bool) {
	p.flush()
	for _, ev := range p.tracker.update(held, cursor, inside) {
		p.emit(ev)
	}
}

func (p *hostPointer) cancel() {
	if ev, ok := p.tracker.cancel(); ok {
		p.emit(ev)
	}
}

// gestureTracker derives gesture phases from successive polls of the held
// pointers. A gesture starts when the first pointer goes down and ends when the
// last one is released; anything in between is a move.
type gestureTracker struct {
	held     []r2.Point
	hover    r2.Point
	hovering bool
}

func (t *gestureTracker) update(held []r2.Point, cursor r2.Point, inside bool) []PointerEvent {
	var out []PointerEvent
	switch {
	case len(t.held) == 0 && len(held) == 0:
		if inside && (!t.hovering || cursor != t.hover) {
			out = append(out, PointerEvent{Hover: true, At: cursor})
		}
		t.hover, t.hovering = cursor, inside
		return out
	case len(t.held) == 0:
		out = append(out, gesture(drag.Start, held))
	case len(held) == 0:
		out = append(out, gesture(drag.End, t.held))
	case !samePoints(held, t.held):
		out = append(out, gesture(drag.Move, held))
	}
	t.held = append(t.held[:0], held...)
	t.hovering = false
	return out
}

func (t *gestureTracker) cancel() (PointerEvent, bool) {
	if len(t.held) == 0 {
		return PointerEvent{}, false
	}
	ev := gesture(drag.Cancel, t.held)
	t.held = t.held[:0]
	return ev, true
}

func gesture(phase drag.Phase, pts []r2.Point) PointerEvent {
	return PointerEvent{Gesture: drag.PointerEvent{
		Phase:    phase,
		Pointers: append([]r2.Point(nil), pts...),
	}}
}

func samePoints(a, b []r2.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
