// Package versor implements unit quaternions (versors) for rotating the globe.
//
// The conventions follow the ones used by orthographic map projections: a rotation
// is described by three Euler angles in degrees, Lambda (yaw about the polar axis),
// Phi (pitch) and Gamma (roll about the view axis). Quaternion components are stored
// as W (real part) followed by X, Y, Z.
package versor

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

const (
	radians = math.Pi / 180
	degrees = 180 / math.Pi
)

// Quat is a quaternion. Rotations are represented by unit quaternions.
type Quat struct {
	W, X, Y, Z float64
}

// Identity is the rotation that leaves every vector in place.
var Identity = Quat{W: 1}

// Rotation holds the three Euler angles, in degrees, consumed by a projection.
type Rotation struct {
	Lambda, Phi, Gamma float64
}

// FromRotation returns the unit quaternion equivalent to the Euler angles r.
func FromRotation(r Rotation) Quat {
	l := r.Lambda / 2 * radians
	p := r.Phi / 2 * radians
	g := r.Gamma / 2 * radians
	sl, cl := math.Sin(l), math.Cos(l)
	sp, cp := math.Sin(p), math.Cos(p)
	sg, cg := math.Sin(g), math.Cos(g)
	return Quat{
		W: cl*cp*cg + sl*sp*sg,
		X: sl*cp*cg - cl*sp*sg,
		Y: cl*sp*cg + sl*cp*sg,
		Z: cl*cp*sg - sl*sp*cg,
	}
}

// Rotation returns the Euler angles, in degrees, encoded by q.
//
// q is expected to be a unit quaternion; the pitch term is clamped so that small
// drift from unit length cannot produce NaN.
func (q Quat) Rotation() Rotation {
	return Rotation{
		Lambda: math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y)) * degrees,
		Phi:    math.Asin(clamp(2*(q.W*q.Y-q.Z*q.X), -1, 1)) * degrees,
		Gamma:  math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z)) * degrees,
	}
}

// Mul returns the Hamilton product q*o.
//
// Composition is not commutative: Mul(q0, delta) applies delta expressed in the
// frame of q0.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Conj returns the conjugate of q, which is its inverse when q is a unit quaternion.
func (q Quat) Conj() Quat { return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z} }

// Inverse returns the multiplicative inverse of q.
func (q Quat) Inverse() Quat {
	n := q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z
	if n == 0 {
		return Quat{}
	}
	c := q.Conj()
	return Quat{W: c.W / n, X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// Norm returns the magnitude of q.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize returns q scaled to unit length. The zero quaternion maps to Identity.
func (q Quat) Normalize() Quat {
	n := q.Norm()
	if n == 0 {
		return Identity
	}
	return Quat{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// ApproxEqual reports whether q and o encode the same rotation within eps.
// q and -q describe the same rotation.
func (q Quat) ApproxEqual(o Quat, eps float64) bool {
	same := math.Abs(q.W-o.W) <= eps && math.Abs(q.X-o.X) <= eps &&
		math.Abs(q.Y-o.Y) <= eps && math.Abs(q.Z-o.Z) <= eps
	flip := math.Abs(q.W+o.W) <= eps && math.Abs(q.X+o.X) <= eps &&
		math.Abs(q.Y+o.Y) <= eps && math.Abs(q.Z+o.Z) <= eps
	return same || flip
}

// Cartesian returns the unit vector for a longitude/latitude pair in degrees.
func Cartesian(lon, lat float64) r3.Vector {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)).Vector
}

// Delta returns the minimal rotation taking unit vector v0 onto v1.
//
// Parallel vectors (including a zero-length move) yield Identity. The axis is
// remapped into the Euler frame used by Rotation, so Mul(q0, Delta(v0, v1))
// can be converted back to projection angles directly.
func Delta(v0, v1 r3.Vector) Quat {
	return DeltaAlpha(v0, v1, 1)
}

// DeltaAlpha is Delta scaled by alpha in [0, 1], useful for tweening.
func DeltaAlpha(v0, v1 r3.Vector, alpha float64) Quat {
	w := v0.Cross(v1)
	l := w.Norm()
	if l == 0 {
		return Identity
	}
	t := alpha * math.Acos(clamp(v0.Dot(v1), -1, 1)) / 2
	s := math.Sin(t)
	return Quat{
		W: math.Cos(t),
		X: w.Z / l * s,
		Y: -w.Y / l * s,
		Z: w.X / l * s,
	}
}

// Twist returns the rotation about the view axis used for two-finger twists,
// where d is half the change in angle between the two pointers, in radians.
func Twist(d float64) Quat {
	s := -math.Sin(d)
	c := sign(math.Cos(d))
	return Quat{W: math.Sqrt(1 - s*s), Z: c * s}
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

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
