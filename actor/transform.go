package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and an orientation in 2D space
type Transform struct {
	Position mgl64.Vec2
	R        mgl64.Mat2
}

// NewTransform creates a transform at position rotated by angle radians
func NewTransform(position mgl64.Vec2, angle float64) Transform {
	return Transform{
		Position: position,
		R:        mgl64.Rotate2D(angle),
	}
}

// IdentityTransform is the transform at the origin with no rotation
func IdentityTransform() Transform {
	return Transform{R: mgl64.Ident2()}
}

// Apply maps a local point into world space
func (xf Transform) Apply(v mgl64.Vec2) mgl64.Vec2 {
	return xf.Position.Add(xf.R.Mul2x1(v))
}

// ApplyInverse maps a world point into local space
func (xf Transform) ApplyInverse(v mgl64.Vec2) mgl64.Vec2 {
	return xf.R.Transpose().Mul2x1(v.Sub(xf.Position))
}

// Rotate rotates a local direction into world space
func (xf Transform) Rotate(v mgl64.Vec2) mgl64.Vec2 {
	return xf.R.Mul2x1(v)
}

// InverseRotate rotates a world direction into local space
func (xf Transform) InverseRotate(v mgl64.Vec2) mgl64.Vec2 {
	return xf.R.Transpose().Mul2x1(v)
}

// Angle extracts the rotation angle in (-pi, pi]
func (xf Transform) Angle() float64 {
	return math.Atan2(xf.R[1], xf.R[0])
}
