package globe

import "orthoglobe/render"

// redrawQueue is a single-slot mailbox of redraw requests, drained once per
// event-loop turn. Requests made in the same turn coalesce; a pending Fine
// request is never replaced by a Coarse one.
//
// It is only touched from the event loop and needs no locking.
type redrawQueue struct {
	pending  bool
	fidelity render.Fidelity
}

func (q *redrawQueue) RequestRedraw(f render.Fidelity) {
	if q.pending && q.fidelity == render.Fine {
		return
	}
	q.fidelity = f
	q.pending = true
}

func (q *redrawQueue) take() (render.Fidelity, bool) {
	if !q.pending {
		return 0, false
	}
	q.pending = false
	return q.fidelity, true
}

func (q *redrawQueue) reset() { *q = redrawQueue{} }
