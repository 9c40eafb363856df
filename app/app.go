// Package app assembles a globe from configuration and runs it on a HAL.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/geo/r2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"orthoglobe/geography"
	"orthoglobe/globe"
	"orthoglobe/hal"
	"orthoglobe/hittest"
	"orthoglobe/internal/config"
	"orthoglobe/internal/metrics"
	"orthoglobe/render"
	"orthoglobe/versor"
)

const (
	fetchTimeout    = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	settleInterval  = 5 * time.Millisecond
)

var ErrSurfaceMismatch = errors.New("framebuffer does not match the globe surface")

// App owns one globe and the services around it.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
	globe   *globe.Globe
	loadErr error
}

// New builds the globe described by cfg. Metrics are registered on reg, or on
// the global registry when reg is nil. Nothing is loaded until Bind or Start.
func New(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, err
	}

	style := StyleFromConfig(cfg)
	var registry *geography.Registry
	if cfg.MarkersFile != "" {
		registry, err = geography.LoadRegistryFile(cfg.MarkersFile, style.Reserved()...)
		if err != nil {
			return nil, fmt.Errorf("markers: %w", err)
		}
	}
	mode, err := hittest.ParseMode(cfg.HitMode)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, metrics: collector}
	opts := globe.Options{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Scale:     cfg.Scale,
		Translate: r2.Point{X: cfg.TranslateX, Y: cfg.TranslateY},
		Rotation: versor.Rotation{
			Lambda: cfg.Rotation.Lambda,
			Phi:    cfg.Rotation.Phi,
			Gamma:  cfg.Rotation.Gamma,
		},
		Style:    style,
		Registry: registry,
		Source:   SourceFromConfig(cfg),
		HitMode:  mode,
		Logger:   log,
		Observer: collector,
		OnLoadFailure: func(err error) {
			a.loadErr = err
		},
	}
	if a.globe, err = globe.New(opts); err != nil {
		return nil, err
	}
	return a, nil
}

// StyleFromConfig applies the configured sizes to the default style.
func StyleFromConfig(cfg *config.Config) render.Style {
	s := render.DefaultStyle()
	s.MarkerRadius = cfg.MarkerRadius
	s.HoverRadius = cfg.HoverRadius
	s.OutlineWidth = cfg.OutlineWidth
	s.Buffer = cfg.Buffer
	return s
}

// SourceFromConfig returns a cached source reading the configured landmass
// documents from disk or over HTTP.
func SourceFromConfig(cfg *config.Config) geography.Source {
	return geography.NewCache(geography.TopoSource{
		Coarse: cfg.Land.Coarse,
		Fine:   cfg.Land.Fine,
		Object: cfg.Land.Object,
		Fetcher: geography.SchemeFetcher{
			HTTP: geography.HTTPFetcher{Client: &http.Client{Timeout: fetchTimeout}},
		},
	})
}

func (a *App) Globe() *globe.Globe          { return a.globe }
func (a *App) Metrics() *metrics.Collector { return a.metrics }

// LoadErr returns the geography load failure once Step has observed it.
func (a *App) LoadErr() error { return a.loadErr }

// HostConfig sizes a HAL to the globe surface.
func (a *App) HostConfig() hal.HostConfig {
	return hal.HostConfig{Width: a.cfg.Width, Height: a.cfg.Height, Logger: a.log}
}

// Start begins loading the geography.
func (a *App) Start(ctx context.Context) { a.globe.Start(ctx) }

// Close stops the globe. Pending loads are discarded.
func (a *App) Close() { a.globe.Close() }

// Bind starts the globe and returns the HAL step function: each call drains
// pointer input, runs one globe turn and presents the surface if it was redrawn.
// A globe settled before Bind is presented on the first call.
func (a *App) Bind(ctx context.Context, h hal.HAL) func() error {
	a.Start(ctx)
	fb := h.Display().Framebuffer()
	events := h.Input().Pointer().Events()
	logger := h.Logger()
	presented := false

	return func() error {
		for drained := false; !drained; {
			select {
			case ev := <-events:
				if a.dispatch(ev) {
					logger.WriteLineString(hoverLine(a.globe.Hovered()))
				}
			default:
				drained = true
			}
		}
		if !a.globe.Step() && (presented || !a.globe.Ready()) {
			return nil
		}
		presented = true
		return a.present(fb)
	}
}

// dispatch routes one pointer input to the globe and reports whether the
// hovered marker changed.
func (a *App) dispatch(ev hal.PointerEvent) bool {
	if !ev.Hover {
		if !a.globe.HandlePointer(ev.Gesture) && !a.globe.Ready() {
			a.log.Debug("gesture dropped before geography loaded", zap.Stringer("phase", ev.Gesture.Phase))
		}
		return false
	}
	before := a.globe.Hovered()
	a.globe.Hover(ev.At)
	return a.globe.Hovered() != before
}

func hoverLine(name string) string {
	if name == "" {
		return "hover: none"
	}
	return "hover: " + name
}

// Settle runs globe turns until the geography has loaded and been drawn, or the
// load failed.
func (a *App) Settle(ctx context.Context) error {
	a.Start(ctx)
	t := time.NewTicker(settleInterval)
	defer t.Stop()
	for {
		a.globe.Step()
		if a.loadErr != nil {
			return a.loadErr
		}
		if a.globe.Ready() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Replay feeds a pointer script to a settled globe, one globe turn per entry.
func (a *App) Replay(script hal.Script) {
	for _, ev := range script {
		if ev != nil && a.dispatch(*ev) {
			a.log.Info(hoverLine(a.globe.Hovered()))
		}
		a.globe.Step()
	}
	a.globe.Step()
}

func (a *App) present(fb hal.Framebuffer) error {
	s := a.globe.Surface()
	w, h := s.Size()
	if fb.Format() != hal.PixelFormatRGBA8888 || fb.Width() != w || fb.Height() != h {
		return fmt.Errorf("%w: %dx%d", ErrSurfaceMismatch, fb.Width(), fb.Height())
	}
	dst, stride := fb.Buffer(), fb.StrideBytes()
	for y := 0; y < h; y++ {
		copy(dst[y*stride:y*stride+w*4], s.Pix()[y*s.Stride():])
	}
	return fb.Present()
}

// ServeMetrics exposes /metrics on the configured address until ctx is done.
// It returns immediately when no address is configured.
func (a *App) ServeMetrics(ctx context.Context) error {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.log.Info("serving metrics", zap.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
