package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Edge is a line segment from V1 to V2. It has no area and therefore no mass;
// it is meant for static ground and walls.
type Edge struct {
	V1, V2 mgl64.Vec2

	vertices [2]mgl64.Vec2
	normals  [2]mgl64.Vec2
	length   float64

	sweepRadius float64
}

// NewEdge creates an edge. It panics if both vertices coincide.
func NewEdge(v1, v2 mgl64.Vec2) *Edge {
	n, length := Normalize(CrossVS(v2.Sub(v1), 1.0))
	if length < Epsilon {
		panic("actor: edge has zero length")
	}

	return &Edge{
		V1:       v1,
		V2:       v2,
		vertices: [2]mgl64.Vec2{v1, v2},
		normals:  [2]mgl64.Vec2{n, n.Mul(-1)},
		length:   length,
	}
}

func (e *Edge) Type() ShapeType { return ShapeTypeEdge }

// Normal is the unit normal on the right side of V1 -> V2
func (e *Edge) Normal() mgl64.Vec2 { return e.normals[0] }

func (e *Edge) Length() float64 { return e.length }

func (e *Edge) Vertices() []mgl64.Vec2 { return e.vertices[:] }

func (e *Edge) Radius() float64 { return 0 }

// hull views the edge as a two sided polygon with two vertices
func (e *Edge) hull() hull {
	return hull{vertices: e.vertices[:], normals: e.normals[:]}
}

func (e *Edge) ComputeAABB(xf Transform) AABB {
	v1 := xf.Apply(e.V1)
	v2 := xf.Apply(e.V2)
	return AABB{Min: MinVec(v1, v2), Max: MaxVec(v1, v2)}
}

func (e *Edge) ComputeSweptAABB(xf1, xf2 Transform) AABB {
	return sweptAABB(e, xf1, xf2)
}

func (e *Edge) ComputeMass(density float64) MassData {
	return MassData{Center: e.V1.Add(e.V2).Mul(0.5)}
}

func (e *Edge) TestPoint(xf Transform, p mgl64.Vec2) bool {
	return false
}

// TestSegment intersects two segments. Both faces of the edge can be hit; the returned
// normal faces the incoming segment.
func (e *Edge) TestSegment(xf Transform, segment Segment, maxLambda float64) (SegmentCollide, float64, mgl64.Vec2) {
	const slop = 100.0 * Epsilon

	r := segment.P2.Sub(segment.P1)
	v1 := xf.Apply(e.V1)
	d := xf.Apply(e.V2).Sub(v1)
	n := CrossVS(d, 1.0)
	if r.Dot(n) > 0.0 {
		n = n.Mul(-1)
	}

	denom := -r.Dot(n)

	// Ignore parallel segments
	if denom > slop {
		// Does the segment intersect the infinite line of this edge?
		b := segment.P1.Sub(v1)
		a := b.Dot(n)

		if 0.0 <= a && a <= maxLambda*denom {
			// Parameter of the intersection along v1 -> v2
			mu := Cross(b, r) / Cross(d, r)

			// Does the segment intersect this edge?
			if -slop <= mu && mu <= 1.0+slop {
				normal, _ := Normalize(n)
				return SegmentHit, a / denom, normal
			}
		}
	}

	return SegmentMiss, 0, mgl64.Vec2{}
}

func (e *Edge) UpdateSweepRadius(center mgl64.Vec2) {
	e.sweepRadius = math.Max(e.V1.Sub(center).Len(), e.V2.Sub(center).Len())
}

func (e *Edge) SweepRadius() float64 { return e.sweepRadius }
