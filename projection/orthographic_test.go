package projection

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orthoglobe/versor"
)

func newTestProjection() Orthographic {
	return NewOrthographic(480, r2.Point{X: 400, Y: 300})
}

func TestProjectCenterAtIdentity(t *testing.T) {
	p := newTestProjection()
	pt, ok := p.Project(LonLat{})
	require.True(t, ok)
	assert.InDelta(t, 400, pt.X, 1e-9)
	assert.InDelta(t, 300, pt.Y, 1e-9)

	north, ok := p.Project(LonLat{Lat: 90})
	require.True(t, ok)
	assert.InDelta(t, 400, north.X, 1e-9)
	assert.InDelta(t, 300-480, north.Y, 1e-9)

	east, ok := p.Project(LonLat{Lon: 90})
	require.True(t, ok)
	assert.InDelta(t, 400+480, east.X, 1e-9)
}

func TestProjectIsDeterministic(t *testing.T) {
	a := newTestProjection()
	b := newTestProjection()
	c := LonLat{Lon: 38.9968, Lat: 34.8021}
	pa, oka := a.Project(c)
	pb, okb := b.Project(c)
	require.True(t, oka)
	require.True(t, okb)
	assert.Equal(t, pa, pb)
	pa2, _ := a.Project(c)
	assert.Equal(t, pa, pa2)
}

func TestProjectFarHemisphereMisses(t *testing.T) {
	p := newTestProjection()
	_, ok := p.Project(LonLat{Lon: 180})
	assert.False(t, ok)
	_, ok = p.Project(LonLat{Lon: 120, Lat: 10})
	assert.False(t, ok)
	_, ok = p.Project(LonLat{Lon: math.NaN()})
	assert.False(t, ok)

	p.SetRotation(versor.Rotation{Lambda: 180})
	_, ok = p.Project(LonLat{Lon: 0})
	assert.False(t, ok)
	_, ok = p.Project(LonLat{Lon: 180})
	assert.True(t, ok)
}

func TestUnprojectOutsideSilhouetteMisses(t *testing.T) {
	p := newTestProjection()
	_, ok := p.Unproject(r2.Point{X: 400 + 481, Y: 300})
	assert.False(t, ok)
	_, ok = p.Unproject(r2.Point{X: 0, Y: 0})
	assert.False(t, ok)
	assert.False(t, p.Contains(r2.Point{X: 0, Y: 0}))
	assert.True(t, p.Contains(r2.Point{X: 400, Y: 300}))
}

func TestUnprojectInvertsProject(t *testing.T) {
	rotations := []versor.Rotation{
		{},
		{Lambda: -40, Phi: -30},
		{Lambda: 100, Phi: 20, Gamma: 15},
	}
	for _, r := range rotations {
		p := newTestProjection()
		p.SetRotation(r)
		for lon := -180.0; lon < 180; lon += 15 {
			for lat := -75.0; lat <= 75; lat += 15 {
				c := LonLat{Lon: lon, Lat: lat}
				if p.View(c).Z < 0.05 {
					continue
				}
				pt, ok := p.Project(c)
				require.True(t, ok)
				back, ok := p.Unproject(pt)
				require.True(t, ok)
				assert.InDelta(t, c.Lat, back.Lat, 1e-6, "lat for %+v under %+v", c, r)
				assert.InDelta(t, 0, angleDiff(c.Lon, back.Lon), 1e-6, "lon for %+v under %+v", c, r)
			}
		}
	}
}

func TestRotationLambdaShiftsLongitude(t *testing.T) {
	p := newTestProjection()
	p.SetRotation(versor.Rotation{Lambda: 90})
	pt, ok := p.Project(LonLat{Lon: -90})
	require.True(t, ok)
	assert.InDelta(t, 400, pt.X, 1e-9)
	assert.InDelta(t, 300, pt.Y, 1e-9)
}

func TestRotationPhiBringsPoleIntoView(t *testing.T) {
	p := newTestProjection()
	p.SetRotation(versor.Rotation{Phi: -90})
	pt, ok := p.Project(LonLat{Lat: 90})
	require.True(t, ok)
	assert.InDelta(t, 400, pt.X, 1e-6)
	assert.InDelta(t, 300, pt.Y, 1e-6)
}

func TestWithRotationLeavesReceiverUntouched(t *testing.T) {
	p := newTestProjection()
	p.SetRotation(versor.Rotation{Lambda: 10})
	q := p.WithRotation(versor.Rotation{Lambda: 50})
	assert.Equal(t, 10.0, p.Rotation().Lambda)
	assert.Equal(t, 50.0, q.Rotation().Lambda)
}

func TestSetVersorMatchesRotation(t *testing.T) {
	p := newTestProjection()
	r := versor.Rotation{Lambda: 20, Phi: -10, Gamma: 5}
	p.SetVersor(versor.FromRotation(r))
	got := p.Rotation()
	assert.InDelta(t, r.Lambda, got.Lambda, 1e-9)
	assert.InDelta(t, r.Phi, got.Phi, 1e-9)
	assert.InDelta(t, r.Gamma, got.Gamma, 1e-9)
	assert.True(t, p.Versor().ApproxEqual(versor.FromRotation(r), 1e-9))
}

func TestProjectRingFullyVisible(t *testing.T) {
	p := newTestProjection()
	ring := []LonLat{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	pts := p.ProjectRing(ring, nil)
	require.Len(t, pts, 4)
	first, _ := p.Project(ring[0])
	assert.Equal(t, first, pts[0])
}

func TestProjectRingFullyHidden(t *testing.T) {
	p := newTestProjection()
	ring := []LonLat{{170, 0}, {175, 0}, {175, 5}, {170, 5}}
	assert.Empty(t, p.ProjectRing(ring, nil))
}

func TestProjectRingClipsAtHorizon(t *testing.T) {
	p := newTestProjection()
	ring := []LonLat{{60, -20}, {120, -20}, {120, 20}, {60, 20}}
	pts := p.ProjectRing(ring, nil)
	require.NotEmpty(t, pts)

	onHorizon := 0
	for _, pt := range pts {
		d := pt.Sub(p.Translate()).Norm()
		assert.LessOrEqual(t, d, p.Scale()+1e-6)
		if math.Abs(d-p.Scale()) < 1e-6 {
			onHorizon++
		}
	}
	// Two crossing points plus the traced horizon between them.
	assert.GreaterOrEqual(t, onHorizon, 3)
}

func TestProjectRingDegenerate(t *testing.T) {
	p := newTestProjection()
	assert.Empty(t, p.ProjectRing([]LonLat{{0, 0}, {1, 1}}, nil))
	assert.Empty(t, p.ProjectRing(nil, nil))
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	}
	if d < -180 {
		d += 360
	}
	return d
}
