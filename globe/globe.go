// Package globe ties geography loading, projection, rendering, dragging and hit
// testing into one interactive globe.
//
// A Globe is driven from a single event loop: HandlePointer and Hover feed input,
// Step runs one turn (consume the load result, then draw at most once). The only
// background work is the one-shot geography load started by Start.
package globe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"orthoglobe/drag"
	"orthoglobe/geography"
	"orthoglobe/hittest"
	"orthoglobe/projection"
	"orthoglobe/raster"
	"orthoglobe/render"
	"orthoglobe/versor"
)

var (
	ErrNoSource   = errors.New("no geography source")
	ErrBadSurface = errors.New("invalid surface size")
)

// Observer receives globe events, typically to export them as metrics.
type Observer interface {
	Redraw(f render.Fidelity, d time.Duration)
	HitTest(hit bool)
	LoadFailure()
	Reanchor()
}

type nopObserver struct{}

func (nopObserver) Redraw(render.Fidelity, time.Duration) {}
func (nopObserver) HitTest(bool)                          {}
func (nopObserver) LoadFailure()                          {}
func (nopObserver) Reanchor()                             {}

// Options configures a Globe.
type Options struct {
	Width, Height int
	Scale         float64
	Translate     r2.Point
	Rotation      versor.Rotation
	Style         render.Style

	// Registry defaults to the built-in markers.
	Registry *geography.Registry
	Source   geography.Source
	HitMode  hittest.Mode

	Logger   *zap.Logger
	Observer Observer
	// OnLoadFailure is called once, from Step, if the geography cannot be loaded.
	OnLoadFailure func(error)
}

// DefaultOptions returns the stock canvas geometry and style. Source must still
// be set.
func DefaultOptions() Options {
	return Options{
		Width:     1050,
		Height:    1200,
		Scale:     480,
		Translate: r2.Point{X: 520, Y: 600},
		Style:     render.DefaultStyle(),
	}
}

type loadResult struct {
	land geography.LandSet
	err  error
}

// Globe is one interactive globe instance.
type Globe struct {
	id       string
	log      *zap.Logger
	observer Observer
	onFail   func(error)

	source   geography.Source
	registry *geography.Registry
	proj     projection.Orthographic
	surface  *raster.Surface
	renderer *render.Renderer
	tester   hittest.Tester
	queue    redrawQueue

	cancel  context.CancelFunc
	results chan loadResult
	started bool
	closed  bool

	land  geography.LandSet
	ready bool
	err   error
	drag  *drag.Controller

	frame    render.Frame
	fidelity render.Fidelity
	drawn    bool
	hover    string
}

// New builds a globe. Nothing is loaded or drawn until Start and Step.
func New(opts Options) (*Globe, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSurface, opts.Width, opts.Height)
	}
	if opts.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", opts.Scale)
	}
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if err := opts.Style.Validate(); err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}
	reg := opts.Registry
	if reg == nil {
		var err error
		reg, err = geography.NewRegistry(geography.DefaultMarkers(), opts.Style.Reserved()...)
		if err != nil {
			return nil, err
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	id := uuid.NewString()
	g := &Globe{
		id:       id,
		log:      log.With(zap.String("globe", id)),
		observer: obs,
		onFail:   opts.OnLoadFailure,
		source:   opts.Source,
		registry: reg,
		proj:     projection.NewOrthographic(opts.Scale, opts.Translate),
		surface:  raster.NewSurface(opts.Width, opts.Height),
		renderer: render.NewRenderer(opts.Style),
		tester:   hittest.Tester{Mode: opts.HitMode, Registry: reg},
		fidelity: render.Fine,
	}
	g.proj.SetRotation(opts.Rotation)
	return g, nil
}

// Start launches the geography load. Calling it again, or after Close, does
// nothing.
func (g *Globe) Start(ctx context.Context) {
	if g.started || g.closed {
		return
	}
	g.started = true
	ctx, g.cancel = context.WithCancel(ctx)
	g.results = make(chan loadResult, 1)
	g.log.Debug("loading geography")

	go func(src geography.Source, out chan<- loadResult) {
		land, err := geography.LoadLand(ctx, src)
		out <- loadResult{land: land, err: err}
	}(g.source, g.results)
}

// Step runs one event-loop turn and reports whether the surface was redrawn.
func (g *Globe) Step() bool {
	if g.closed {
		return false
	}
	g.poll()
	f, ok := g.queue.take()
	if !ok || !g.ready {
		return false
	}
	g.draw(f)
	return true
}

func (g *Globe) poll() {
	if g.results == nil {
		return
	}
	var res loadResult
	select {
	case res = <-g.results:
	default:
		return
	}
	g.results = nil

	if res.err != nil {
		g.err = res.err
		g.log.Error("geography load failed", zap.Error(res.err))
		g.observer.LoadFailure()
		if g.onFail != nil {
			g.onFail(res.err)
		}
		return
	}

	g.land = res.land
	g.ready = true
	g.drag = drag.NewController(&g.proj, &g.queue)
	g.drag.OnReanchor = g.observer.Reanchor
	g.log.Debug("geography loaded",
		zap.Int("coarse_points", g.land.Coarse.Points()),
		zap.Int("fine_points", g.land.Fine.Points()))
	g.queue.RequestRedraw(render.Fine)
}

func (g *Globe) draw(f render.Fidelity) {
	start := time.Now()
	g.frame = g.renderer.Render(g.surface, &g.proj, g.land.For(f.Detail()), g.registry, g.hover)
	g.observer.Redraw(f, time.Since(start))
	g.fidelity = f
	g.drawn = true
}

// HandlePointer forwards a pointer event to the drag controller. It reports false
// while the geography is not loaded, after a load failure and after Close.
func (g *Globe) HandlePointer(ev drag.PointerEvent) bool {
	if g.closed || !g.ready {
		return false
	}
	before := g.drag.State()
	handled := g.drag.Handle(ev)
	if after := g.drag.State(); after != before {
		g.log.Debug("gesture "+after.String(), zap.Int("pointers", len(ev.Pointers)))
	}
	return handled
}

// Hover hit-tests pt against the last drawn frame. When the hovered marker
// changes, a redraw at the current fidelity is queued to update the highlight.
func (g *Globe) Hover(pt r2.Point) (geography.Marker, bool) {
	if g.closed || !g.drawn {
		return geography.Marker{}, false
	}
	m, ok := g.tester.HitTest(g.surface, g.frame, pt)
	g.observer.HitTest(ok)
	name := ""
	if ok {
		name = m.Name
	}
	if name != g.hover {
		g.hover = name
		g.queue.RequestRedraw(g.fidelity)
	}
	return m, ok
}

// HitTest queries the last drawn frame without changing the hover state.
func (g *Globe) HitTest(pt r2.Point) (geography.Marker, bool) {
	if !g.drawn {
		return geography.Marker{}, false
	}
	m, ok := g.tester.HitTest(g.surface, g.frame, pt)
	g.observer.HitTest(ok)
	return m, ok
}

// Close cancels a pending load. A load that resolves afterwards is discarded and
// the globe never draws again.
func (g *Globe) Close() {
	if g.closed {
		return
	}
	g.closed = true
	if g.cancel != nil {
		g.cancel()
	}
	g.results = nil
	g.queue.reset()
	g.log.Debug("closed")
}

func (g *Globe) ID() string { return g.id }

// Err returns the load failure, if any.
func (g *Globe) Err() error { return g.err }

func (g *Globe) Ready() bool  { return g.ready && !g.closed }
func (g *Globe) Closed() bool { return g.closed }

// Surface is the pixel buffer the globe draws into. It is overwritten by Step.
func (g *Globe) Surface() *raster.Surface { return g.surface }

// Projection returns a copy of the current projection state.
func (g *Globe) Projection() projection.Orthographic { return g.proj }

// Frame describes the last drawn frame.
func (g *Globe) Frame() render.Frame { return g.frame }

// Fidelity is the fidelity of the last drawn frame.
func (g *Globe) Fidelity() render.Fidelity { return g.fidelity }

// Hovered is the name of the hovered marker, or empty.
func (g *Globe) Hovered() string { return g.hover }

func (g *Globe) Registry() *geography.Registry { return g.registry }

// Dragging reports whether a gesture is in progress.
func (g *Globe) Dragging() bool { return g.drag != nil && g.drag.State() == drag.Dragging }
