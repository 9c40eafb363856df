// Package metrics exports globe activity to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orthoglobe/render"
)

// Collector bundles the globe's Prometheus metrics. It satisfies globe.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	Redraws      *prometheus.CounterVec
	RenderTime   *prometheus.HistogramVec
	HitTests     *prometheus.CounterVec
	LoadFailures prometheus.Counter
	Reanchors    prometheus.Counter
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the existing
// collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	redraws, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_redraws_total",
		Help: "Number of globe redraws, labeled by fidelity.",
	}, []string{"fidelity"}))
	if err != nil {
		return nil, err
	}
	renderTime, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "globe_render_duration_seconds",
		Help:    "Time spent rendering one globe frame.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.02, 0.04, 0.08, 0.16, 0.32},
	}, []string{"fidelity"}))
	if err != nil {
		return nil, err
	}
	hits, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_hit_tests_total",
		Help: "Number of marker hit tests, labeled by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_load_failures_total",
		Help: "Number of geography loads that failed.",
	}))
	if err != nil {
		return nil, err
	}
	reanchors, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_drag_reanchors_total",
		Help: "Number of drag gestures re-anchored after a large rotation.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Redraws:      redraws,
		RenderTime:   renderTime,
		HitTests:     hits,
		LoadFailures: failures,
		Reanchors:    reanchors,
	}, nil
}

func (c *Collector) Redraw(f render.Fidelity, d time.Duration) {
	if c == nil {
		return
	}
	c.Redraws.WithLabelValues(f.String()).Inc()
	c.RenderTime.WithLabelValues(f.String()).Observe(d.Seconds())
}

func (c *Collector) HitTest(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.HitTests.WithLabelValues(result).Inc()
}

func (c *Collector) LoadFailure() {
	if c != nil {
		c.LoadFailures.Inc()
	}
}

func (c *Collector) Reanchor() {
	if c != nil {
		c.Reanchors.Inc()
	}
}

// Handler exposes a /metrics handler for the collector's registry.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return c, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return existing, nil
	}
	return c, nil
}
