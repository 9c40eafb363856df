package versor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestIdentityRotation(t *testing.T) {
	q := FromRotation(Rotation{})
	require.True(t, q.ApproxEqual(Identity, eps), "got %+v", q)
	assert.Equal(t, Rotation{}, Identity.Rotation())
}

func TestRotationRoundTrip(t *testing.T) {
	cases := []Rotation{
		{Lambda: 10, Phi: 20, Gamma: 30},
		{Lambda: -170, Phi: -45, Gamma: 5},
		{Lambda: 179, Phi: 89, Gamma: -179},
		{Lambda: 38.9968, Phi: -34.8021, Gamma: 0},
	}
	for _, r := range cases {
		got := FromRotation(r).Rotation()
		assert.InDelta(t, r.Lambda, got.Lambda, 1e-7, "lambda for %+v", r)
		assert.InDelta(t, r.Phi, got.Phi, 1e-7, "phi for %+v", r)
		assert.InDelta(t, r.Gamma, got.Gamma, 1e-7, "gamma for %+v", r)
	}
}

func TestQuaternionRoundTripPreservesRotation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		q := Quat{W: rng.NormFloat64(), X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Normalize()
		back := FromRotation(q.Rotation())
		require.True(t, back.ApproxEqual(q, 1e-7), "case %d: %+v -> %+v", i, q, back)
	}
}

func TestRepeatedCompositionKeepsUnitNorm(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	q := Identity
	for i := 0; i < 10_000; i++ {
		v0 := Cartesian(rng.Float64()*360-180, rng.Float64()*180-90)
		v1 := Cartesian(rng.Float64()*360-180, rng.Float64()*180-90)
		q = q.Mul(Delta(v0, v1))
		require.InDelta(t, 1, q.Norm(), 1e-9, "step %d", i)
	}
}

func TestDeltaThenInverseRestoresStart(t *testing.T) {
	q0 := FromRotation(Rotation{Lambda: -40, Phi: 12, Gamma: 3})
	delta := Delta(Cartesian(10, 20), Cartesian(35, -5))

	q1 := q0.Mul(delta)
	require.False(t, q1.ApproxEqual(q0, 1e-6))

	back := q1.Mul(delta.Inverse())
	assert.True(t, back.ApproxEqual(q0, eps), "got %+v want %+v", back, q0)
	assert.True(t, q1.Mul(delta.Conj()).ApproxEqual(q0, eps))
}

func TestMulIsNotCommutative(t *testing.T) {
	a := FromRotation(Rotation{Lambda: 30})
	b := FromRotation(Rotation{Phi: 40})
	assert.False(t, a.Mul(b).ApproxEqual(b.Mul(a), 1e-6))
}

func TestDeltaZeroLengthIsIdentity(t *testing.T) {
	v := Cartesian(12, 34)
	assert.Equal(t, Identity, Delta(v, v))
}

func TestDeltaAlongEquatorIsYaw(t *testing.T) {
	d := Delta(Cartesian(0, 0), Cartesian(25, 0))
	r := Identity.Mul(d).Rotation()
	assert.InDelta(t, 25, r.Lambda, 1e-9)
	assert.InDelta(t, 0, r.Phi, 1e-9)
	assert.InDelta(t, 0, r.Gamma, 1e-9)
}

func TestDeltaAlphaHalfway(t *testing.T) {
	d := DeltaAlpha(Cartesian(0, 0), Cartesian(40, 0), 0.5)
	assert.InDelta(t, 20, Identity.Mul(d).Rotation().Lambda, 1e-9)
}

func TestCartesian(t *testing.T) {
	v := Cartesian(90, 0)
	assert.InDelta(t, 0, v.X, eps)
	assert.InDelta(t, 1, v.Y, eps)
	assert.InDelta(t, 0, v.Z, eps)

	n := Cartesian(0, 90)
	assert.InDelta(t, 1, n.Z, eps)
}

func TestTwistRollsAboutViewAxis(t *testing.T) {
	r := Twist(-math.Pi / 8).Rotation()
	assert.InDelta(t, 0, r.Lambda, 1e-9)
	assert.InDelta(t, 0, r.Phi, 1e-9)
	assert.InDelta(t, 45, r.Gamma, 1e-9)
	assert.InDelta(t, 1, Twist(0.3).Norm(), eps)
}

func TestNormalizeZero(t *testing.T) {
	assert.Equal(t, Identity, Quat{}.Normalize())
	assert.Equal(t, Quat{}, Quat{}.Inverse())
}
