// Package projection implements the orthographic globe projection.
//
// Geographic coordinates are longitude/latitude in degrees. Screen coordinates are
// pixels with Y growing downwards. The projection state is a value: scale and
// translation are fixed at construction; only the rotation changes.
package projection

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"orthoglobe/versor"
)

const (
	radians = math.Pi / 180
	degrees = 180 / math.Pi
	tau     = 2 * math.Pi

	// arcStep is the angular resolution used when tracing the horizon between the
	// exit and entry points of a clipped ring.
	arcStep = 2 * radians
)

// LonLat is a geographic coordinate in degrees.
type LonLat struct {
	Lon, Lat float64
}

// Orthographic is a rotatable orthographic projection of the unit sphere.
type Orthographic struct {
	scale     float64
	translate r2.Point
	rotation  versor.Rotation
	rot       rotator
}

// NewOrthographic returns a projection with identity rotation. scale is the sphere
// radius in pixels and translate is the screen position of the sphere center.
func NewOrthographic(scale float64, translate r2.Point) Orthographic {
	return Orthographic{
		scale:     scale,
		translate: translate,
		rot:       newRotator(versor.Rotation{}),
	}
}

func (p *Orthographic) Scale() float64            { return p.scale }
func (p *Orthographic) Translate() r2.Point       { return p.translate }
func (p *Orthographic) Rotation() versor.Rotation { return p.rotation }

// Versor returns the unit quaternion equivalent of the current rotation.
func (p *Orthographic) Versor() versor.Quat { return versor.FromRotation(p.rotation) }

// SetVersor sets the rotation from a quaternion, normalizing it first.
func (p *Orthographic) SetVersor(q versor.Quat) { p.SetRotation(q.Normalize().Rotation()) }

// SetRotation sets the rotation from Euler angles in degrees.
func (p *Orthographic) SetRotation(r versor.Rotation) {
	p.rotation = r
	p.rot = newRotator(r)
}

// WithRotation returns a copy of p using rotation r. p is left untouched.
func (p Orthographic) WithRotation(r versor.Rotation) Orthographic {
	p.SetRotation(r)
	return p
}

// Project maps a geographic coordinate to the screen.
//
// ok is false for points on the far hemisphere and for non-finite input.
func (p *Orthographic) Project(c LonLat) (pt r2.Point, ok bool) {
	v := p.View(c)
	if !(v.Z >= 0) {
		return r2.Point{}, false
	}
	pt = p.screen(v)
	if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
		return r2.Point{}, false
	}
	return pt, true
}

// Unproject maps a screen point back to a geographic coordinate.
//
// ok is false when pt lies outside the sphere's silhouette.
func (p *Orthographic) Unproject(pt r2.Point) (c LonLat, ok bool) {
	if p.scale <= 0 {
		return LonLat{}, false
	}
	x := (pt.X - p.translate.X) / p.scale
	y := (p.translate.Y - pt.Y) / p.scale
	z2 := x*x + y*y
	if !(z2 <= 1) {
		return LonLat{}, false
	}
	lambda := math.Atan2(x, math.Sqrt(1-z2))
	phi := math.Asin(clamp(y, -1, 1))
	lambda, phi = p.rot.inverse(lambda, phi)
	return LonLat{Lon: lambda * degrees, Lat: phi * degrees}, true
}

// Contains reports whether pt lies within the sphere's silhouette.
func (p *Orthographic) Contains(pt r2.Point) bool {
	d := pt.Sub(p.translate)
	return d.Dot(d) <= p.scale*p.scale
}

// View returns the rotated unit vector of c in view space: X to the right, Y up and
// Z towards the viewer. Points with Z < 0 are on the far hemisphere.
func (p *Orthographic) View(c LonLat) r3.Vector {
	lambda, phi := p.rot.forward(c.Lon*radians, c.Lat*radians)
	cosPhi := math.Cos(phi)
	return r3.Vector{
		X: cosPhi * math.Sin(lambda),
		Y: math.Sin(phi),
		Z: cosPhi * math.Cos(lambda),
	}
}

// ProjectRing projects a closed ring clipped to the visible hemisphere and appends
// the screen points to dst.
//
// Edges crossing the horizon are cut where their great circle meets the view plane
// and consecutive exit/entry points are joined along the horizon. A ring that is
// entirely on the far side produces no points.
func (p *Orthographic) ProjectRing(ring []LonLat, dst []r2.Point) []r2.Point {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	if n < 3 {
		return dst
	}

	views := make([]r3.Vector, n)
	start := -1
	hidden := 0
	for i := 0; i < n; i++ {
		views[i] = p.View(ring[i])
		if views[i].Z >= 0 {
			if start < 0 {
				start = i
			}
		} else {
			hidden++
		}
	}
	if start < 0 {
		return dst
	}
	if hidden == 0 {
		for _, v := range views {
			dst = append(dst, p.screen(v))
		}
		return dst
	}

	var exit r3.Vector
	haveExit := false
	for i := 0; i < n; i++ {
		a := views[(start+i)%n]
		b := views[(start+i+1)%n]
		ain, bin := a.Z >= 0, b.Z >= 0
		if ain {
			dst = append(dst, p.screen(a))
		}
		switch {
		case ain && !bin:
			exit = horizon(a, b)
			haveExit = true
			dst = append(dst, p.screen(exit))
		case !ain && bin:
			entry := horizon(a, b)
			if haveExit {
				dst = p.appendHorizonArc(dst, exit, entry)
				haveExit = false
			}
			dst = append(dst, p.screen(entry))
		}
	}
	return dst
}

func (p *Orthographic) screen(v r3.Vector) r2.Point {
	return r2.Point{
		X: p.translate.X + p.scale*v.X,
		Y: p.translate.Y - p.scale*v.Y,
	}
}

// appendHorizonArc appends the points strictly between from and to along the
// shorter arc of the horizon circle.
func (p *Orthographic) appendHorizonArc(dst []r2.Point, from, to r3.Vector) []r2.Point {
	a0 := math.Atan2(from.Y, from.X)
	a1 := math.Atan2(to.Y, to.X)
	d := a1 - a0
	for d > math.Pi {
		d -= tau
	}
	for d < -math.Pi {
		d += tau
	}
	steps := int(math.Abs(d) / arcStep)
	for i := 1; i < steps; i++ {
		a := a0 + d*float64(i)/float64(steps)
		dst = append(dst, p.screen(r3.Vector{X: math.Cos(a), Y: math.Sin(a)}))
	}
	return dst
}

// horizon returns the point where the great circle through a and b crosses the
// view plane, given that a and b lie on opposite sides of it.
func horizon(a, b r3.Vector) r3.Vector {
	t := a.Z / (a.Z - b.Z)
	v := a.Add(b.Sub(a).Mul(t))
	v.Z = 0
	l := math.Hypot(v.X, v.Y)
	if l == 0 {
		return r3.Vector{X: 1}
	}
	return r3.Vector{X: v.X / l, Y: v.Y / l}
}

// rotator applies the spherical rotation encoded by Euler angles, matching the
// conventions of versor.Rotation: a longitude shift followed by a pitch/roll.
type rotator struct {
	dLambda   float64
	phiGamma  bool
	cosDPhi   float64
	sinDPhi   float64
	cosDGamma float64
	sinDGamma float64
}

func newRotator(r versor.Rotation) rotator {
	dPhi := r.Phi * radians
	dGamma := r.Gamma * radians
	return rotator{
		dLambda:   math.Mod(r.Lambda*radians, tau),
		phiGamma:  dPhi != 0 || dGamma != 0,
		cosDPhi:   math.Cos(dPhi),
		sinDPhi:   math.Sin(dPhi),
		cosDGamma: math.Cos(dGamma),
		sinDGamma: math.Sin(dGamma),
	}
}

func (r rotator) forward(lambda, phi float64) (float64, float64) {
	lambda = wrapLambda(lambda + r.dLambda)
	if !r.phiGamma {
		return lambda, phi
	}
	cosPhi := math.Cos(phi)
	x := math.Cos(lambda) * cosPhi
	y := math.Sin(lambda) * cosPhi
	z := math.Sin(phi)
	k := z*r.cosDPhi + x*r.sinDPhi
	return math.Atan2(y*r.cosDGamma-k*r.sinDGamma, x*r.cosDPhi-z*r.sinDPhi),
		math.Asin(clamp(k*r.cosDGamma+y*r.sinDGamma, -1, 1))
}

func (r rotator) inverse(lambda, phi float64) (float64, float64) {
	if r.phiGamma {
		cosPhi := math.Cos(phi)
		x := math.Cos(lambda) * cosPhi
		y := math.Sin(lambda) * cosPhi
		z := math.Sin(phi)
		k := z*r.cosDGamma - y*r.sinDGamma
		lambda = math.Atan2(y*r.cosDGamma+z*r.sinDGamma, x*r.cosDPhi+k*r.sinDPhi)
		phi = math.Asin(clamp(k*r.cosDPhi-x*r.sinDPhi, -1, 1))
	}
	return wrapLambda(lambda - r.dLambda), phi
}

func wrapLambda(l float64) float64 {
	if l > math.Pi {
		return l - tau
	}
	if l < -math.Pi {
		return l + tau
	}
	return l
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
