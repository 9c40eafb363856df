package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orthoglobe/render"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.Redraw(render.Coarse, 2*time.Millisecond)
	c.Redraw(render.Coarse, 3*time.Millisecond)
	c.Redraw(render.Fine, 10*time.Millisecond)
	c.HitTest(true)
	c.HitTest(false)
	c.HitTest(false)
	c.LoadFailure()
	c.Reanchor()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Redraws.WithLabelValues("coarse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Redraws.WithLabelValues("fine")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HitTests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.HitTests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LoadFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Reanchors))
	assert.Equal(t, 2, testutil.CollectAndCount(c.RenderTime))
}

func TestCollectorReusesRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	require.NoError(t, err)
	b, err := NewCollector(reg)
	require.NoError(t, err)

	a.Reanchor()
	b.Reanchor()
	assert.Equal(t, 2.0, testutil.ToFloat64(a.Reanchors))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Redraw(render.Fine, time.Millisecond)
	c.HitTest(true)
	c.LoadFailure()
	c.Reanchor()
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.Redraw(render.Fine, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `globe_redraws_total{fidelity="fine"} 1`), string(body))
}
