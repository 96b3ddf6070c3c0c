package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Epsilon guards divisions and normalizations against degenerate inputs.
const Epsilon = 1e-9

type number interface {
	constraints.Integer | constraints.Float
}

// Clamp restricts a to [low, high].
func Clamp[T number](a, low, high T) T {
	return Max(low, Min(a, high))
}

func Min[T number](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T number](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Cross returns the z component of the 3D cross product of two planar vectors.
func Cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossVS returns v x s, the vector v rotated by -90 degrees and scaled by s.
func CrossVS(v mgl64.Vec2, s float64) mgl64.Vec2 {
	return mgl64.Vec2{s * v[1], -s * v[0]}
}

// CrossSV returns s x v, the vector v rotated by +90 degrees and scaled by s.
func CrossSV(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v[1], s * v[0]}
}

// Normalize returns the unit vector of v and its length. A vector shorter than
// Epsilon is returned unchanged with a zero length.
func Normalize(v mgl64.Vec2) (mgl64.Vec2, float64) {
	length := v.Len()
	if length < Epsilon {
		return v, 0
	}
	return v.Mul(1.0 / length), length
}

// IsValid reports whether x is a finite number.
func IsValid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// MinVec returns the component-wise minimum.
func MinVec(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{math.Min(a[0], b[0]), math.Min(a[1], b[1])}
}

// MaxVec returns the component-wise maximum.
func MaxVec(a, b mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{math.Max(a[0], b[0]), math.Max(a[1], b[1])}
}
