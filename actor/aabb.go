package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// IsValid checks that the box is not inverted and holds finite numbers
func (a AABB) IsValid() bool {
	d := a.Max.Sub(a.Min)
	return d[0] >= 0 && d[1] >= 0 &&
		IsValid(a.Min[0]) && IsValid(a.Min[1]) && IsValid(a.Max[0]) && IsValid(a.Max[1])
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y()
}

// Contains checks if other lies entirely inside the AABB
func (a AABB) Contains(other AABB) bool {
	return a.Min.X() <= other.Min.X() && a.Min.Y() <= other.Min.Y() &&
		other.Max.X() <= a.Max.X() && other.Max.Y() <= a.Max.Y()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on both axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Combine returns the smallest AABB holding both boxes
func (a AABB) Combine(other AABB) AABB {
	return AABB{Min: MinVec(a.Min, other.Min), Max: MaxVec(a.Max, other.Max)}
}

// Extend grows the box by margin on every side
func (a AABB) Extend(margin float64) AABB {
	r := mgl64.Vec2{margin, margin}
	return AABB{Min: a.Min.Sub(r), Max: a.Max.Add(r)}
}

// Center returns the midpoint of the box
func (a AABB) Center() mgl64.Vec2 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// TestSegment is a slab test: it reports whether the segment from p1 to p2 crosses the box
func (a AABB) TestSegment(p1, p2 mgl64.Vec2) bool {
	tmin, tmax := 0.0, 1.0
	d := p2.Sub(p1)

	for i := 0; i < 2; i++ {
		if math.Abs(d[i]) < Epsilon {
			// Parallel to the slab
			if p1[i] < a.Min[i] || a.Max[i] < p1[i] {
				return false
			}
			continue
		}

		inv := 1.0 / d[i]
		t1 := (a.Min[i] - p1[i]) * inv
		t2 := (a.Max[i] - p1[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}

	return true
}
