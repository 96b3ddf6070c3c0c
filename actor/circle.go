package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Circle is a solid disc centered on LocalPosition in body space
type Circle struct {
	LocalPosition mgl64.Vec2
	R             float64

	vertex      [1]mgl64.Vec2
	sweepRadius float64
}

// NewCircle creates a circle of the given radius at a local offset
func NewCircle(localPosition mgl64.Vec2, radius float64) *Circle {
	if !(radius > 0) {
		panic("actor: circle radius must be positive")
	}
	c := &Circle{LocalPosition: localPosition, R: radius}
	c.vertex[0] = localPosition
	return c
}

func (c *Circle) Type() ShapeType { return ShapeTypeCircle }

func (c *Circle) ComputeAABB(xf Transform) AABB {
	p := xf.Apply(c.LocalPosition)
	r := mgl64.Vec2{c.R, c.R}
	return AABB{Min: p.Sub(r), Max: p.Add(r)}
}

func (c *Circle) ComputeSweptAABB(xf1, xf2 Transform) AABB {
	return sweptAABB(c, xf1, xf2)
}

func (c *Circle) ComputeMass(density float64) MassData {
	mass := density * math.Pi * c.R * c.R

	// Inertia about the local origin
	return MassData{
		Mass:   mass,
		Center: c.LocalPosition,
		I:      mass * (0.5*c.R*c.R + c.LocalPosition.Dot(c.LocalPosition)),
	}
}

func (c *Circle) TestPoint(xf Transform, p mgl64.Vec2) bool {
	d := p.Sub(xf.Apply(c.LocalPosition))
	return d.Dot(d) <= c.R*c.R
}

// TestSegment solves |s + t*d| = r for the smallest t, see Collision Detection in Interactive 3D
// Environments by Gino van den Bergen, section 3.1.2.
func (c *Circle) TestSegment(xf Transform, segment Segment, maxLambda float64) (SegmentCollide, float64, mgl64.Vec2) {
	position := xf.Apply(c.LocalPosition)
	s := segment.P1.Sub(position)
	b := s.Dot(s) - c.R*c.R

	// Does the segment start inside the circle?
	if b < 0.0 {
		return SegmentStartsInside, 0, mgl64.Vec2{}
	}

	d := segment.P2.Sub(segment.P1)
	cc := s.Dot(d)
	rr := d.Dot(d)
	sigma := cc*cc - rr*b

	// Check for negative discriminant and short segment
	if sigma < 0.0 || rr < Epsilon {
		return SegmentMiss, 0, mgl64.Vec2{}
	}

	// Find the point of intersection of the line with the circle
	a := -(cc + math.Sqrt(sigma))

	// Is the intersection point on the segment?
	if 0.0 <= a && a <= maxLambda*rr {
		a /= rr
		normal, _ := Normalize(s.Add(d.Mul(a)))
		return SegmentHit, a, normal
	}

	return SegmentMiss, 0, mgl64.Vec2{}
}

func (c *Circle) UpdateSweepRadius(center mgl64.Vec2) {
	c.sweepRadius = c.LocalPosition.Sub(center).Len() + c.R
}

func (c *Circle) SweepRadius() float64 { return c.sweepRadius }

func (c *Circle) Vertices() []mgl64.Vec2 {
	c.vertex[0] = c.LocalPosition
	return c.vertex[:]
}

func (c *Circle) Radius() float64 { return c.R }
