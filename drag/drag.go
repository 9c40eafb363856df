// Package drag turns pointer gestures into globe rotations.
//
// A gesture grabs the point of the sphere under the pointer and keeps it under the
// pointer as it moves. With two or more pointers the gesture also twists the globe
// about the view axis.
package drag

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"orthoglobe/projection"
	"orthoglobe/render"
	"orthoglobe/versor"
)

// reanchorW is the delta rotation's W component below which a gesture re-anchors
// on the current pointer position. It keeps the grabbed point away from the
// antipode, where the minimal rotation is unstable.
const reanchorW = 0.7

type Phase uint8

const (
	Start Phase = iota
	Move
	End
	Cancel
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Move:
		return "move"
	case End:
		return "end"
	case Cancel:
		return "cancel"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// PointerEvent is one sample of all active pointers in screen coordinates.
type PointerEvent struct {
	Phase    Phase
	Pointers []r2.Point
}

// Session is the anchor of a gesture in progress.
type Session struct {
	V0       r3.Vector
	Q0       versor.Quat
	R0       versor.Rotation
	Pointers int
	A0       float64
	// Anchored is false while the pointer has not touched the sphere yet.
	Anchored bool
}

// Begin anchors a gesture at the pointers' centroid under the projection's
// current rotation.
func Begin(p *projection.Orthographic, pointers []r2.Point) Session {
	r0 := p.Rotation()
	s := Session{
		Q0:       versor.FromRotation(r0),
		R0:       r0,
		Pointers: len(pointers),
		A0:       angle(pointers),
	}
	if c, ok := p.Unproject(centroid(pointers)); ok {
		s.V0 = versor.Cartesian(c.Lon, c.Lat)
		s.Anchored = true
	}
	return s
}

// Move rotates p so the anchored point follows the pointers. It returns the
// session to use for the next sample, whether p changed, and whether the session
// was re-anchored.
//
// A change in the number of pointers re-anchors without rotating. Samples off the
// sphere leave p untouched.
func (s Session) Move(p *projection.Orthographic, pointers []r2.Point) (next Session, moved, reanchored bool) {
	if len(pointers) != s.Pointers || !s.Anchored {
		return Begin(p, pointers), false, true
	}
	ref := p.WithRotation(s.R0)
	c, ok := ref.Unproject(centroid(pointers))
	if !ok {
		return s, false, false
	}
	delta := versor.Delta(s.V0, versor.Cartesian(c.Lon, c.Lat))
	q1 := s.Q0.Mul(delta)
	twisted := false
	if s.Pointers > 1 {
		if d := (angle(pointers) - s.A0) / 2; d != 0 {
			q1 = versor.Twist(d).Mul(q1)
			twisted = true
		}
	}
	if delta == versor.Identity && !twisted {
		return s, false, false
	}
	p.SetVersor(q1)
	if delta.W < reanchorW {
		return Begin(p, pointers), true, true
	}
	return s, true, false
}

func centroid(pointers []r2.Point) r2.Point {
	if len(pointers) == 0 {
		return r2.Point{X: math.NaN(), Y: math.NaN()}
	}
	var sum r2.Point
	for _, pt := range pointers {
		sum = sum.Add(pt)
	}
	return sum.Mul(1 / float64(len(pointers)))
}

// angle is the direction from the first pointer to the second, in radians.
func angle(pointers []r2.Point) float64 {
	if len(pointers) < 2 {
		return 0
	}
	d := pointers[1].Sub(pointers[0])
	return math.Atan2(d.Y, d.X)
}

// RedrawSink receives redraw requests.
type RedrawSink interface {
	RequestRedraw(f render.Fidelity)
}

type State uint8

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Controller runs the Idle/Dragging state machine for one projection.
type Controller struct {
	proj *projection.Orthographic
	sink RedrawSink

	state   State
	session Session

	// OnReanchor, if set, is called each time a gesture re-anchors because its
	// rotation grew too large.
	OnReanchor func()
}

func NewController(p *projection.Orthographic, sink RedrawSink) *Controller {
	return &Controller{proj: p, sink: sink}
}

func (c *Controller) State() State { return c.state }

// Session returns the active gesture session, valid while Dragging.
func (c *Controller) Session() Session { return c.session }

// Handle applies one pointer event and reports whether it was consumed. Events
// other than Start are ignored while Idle.
func (c *Controller) Handle(ev PointerEvent) bool {
	switch ev.Phase {
	case Start:
		if len(ev.Pointers) == 0 {
			return false
		}
		c.session = Begin(c.proj, ev.Pointers)
		c.state = Dragging
		return true
	case Move:
		if c.state != Dragging || len(ev.Pointers) == 0 {
			return false
		}
		prev := c.session.Pointers
		next, moved, reanchored := c.session.Move(c.proj, ev.Pointers)
		c.session = next
		if moved && reanchored && prev == len(ev.Pointers) && c.OnReanchor != nil {
			c.OnReanchor()
		}
		c.request(render.Coarse)
		return true
	case End, Cancel:
		if c.state != Dragging {
			return false
		}
		c.state = Idle
		c.session = Session{}
		c.request(render.Fine)
		return true
	}
	return false
}

func (c *Controller) request(f render.Fidelity) {
	if c.sink != nil {
		c.sink.RequestRedraw(f)
	}
}
