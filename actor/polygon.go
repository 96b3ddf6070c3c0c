package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxPolygonVertices bounds the vertex count of a convex polygon
const MaxPolygonVertices = 8

// hull is the convex outline shared by polygons and edges for the SAT routines
type hull struct {
	vertices []mgl64.Vec2
	normals  []mgl64.Vec2
}

// Polygon is a convex polygon with counter-clockwise winding
type Polygon struct {
	vertices [MaxPolygonVertices]mgl64.Vec2
	normals  [MaxPolygonVertices]mgl64.Vec2
	count    int
	centroid mgl64.Vec2

	sweepRadius float64
}

// NewPolygon creates a convex polygon. The vertices must wind counter-clockwise.
// It panics on fewer than 3 or more than MaxPolygonVertices vertices, on degenerate
// edges and on concave or clockwise outlines.
func NewPolygon(vertices []mgl64.Vec2) *Polygon {
	count := len(vertices)
	if count < 3 || count > MaxPolygonVertices {
		panic("actor: polygon vertex count out of range")
	}

	p := &Polygon{count: count}
	copy(p.vertices[:], vertices)

	// Compute normals. Ensure the edges have non-zero length.
	for i := 0; i < count; i++ {
		next := (i + 1) % count
		edge := p.vertices[next].Sub(p.vertices[i])
		n, length := Normalize(CrossVS(edge, 1.0))
		if length < Epsilon {
			panic("actor: polygon has a degenerate edge")
		}
		p.normals[i] = n
	}

	// Ensure the polygon is convex and the winding is counter-clockwise
	for i := 0; i < count; i++ {
		next := (i + 1) % count
		edge := p.vertices[next].Sub(p.vertices[i])
		for j := 0; j < count; j++ {
			if j == i || j == next {
				continue
			}
			if Cross(edge, p.vertices[j].Sub(p.vertices[i])) <= 0.0 {
				panic("actor: polygon must be convex with counter-clockwise winding")
			}
		}
	}

	p.centroid = p.ComputeMass(1.0).Center
	return p
}

// NewBox creates an axis-aligned box centered on the body origin
func NewBox(hx, hy float64) *Polygon {
	return NewOrientedBox(hx, hy, mgl64.Vec2{}, 0)
}

// NewOrientedBox creates a box with half extents hx, hy, rotated by angle around center
func NewOrientedBox(hx, hy float64, center mgl64.Vec2, angle float64) *Polygon {
	xf := NewTransform(center, angle)
	return NewPolygon([]mgl64.Vec2{
		xf.Apply(mgl64.Vec2{-hx, -hy}),
		xf.Apply(mgl64.Vec2{hx, -hy}),
		xf.Apply(mgl64.Vec2{hx, hy}),
		xf.Apply(mgl64.Vec2{-hx, hy}),
	})
}

// CoreVertices writes to dst the vertices of the polygon with every edge moved inward
// by skin, and returns them with the skin actually applied: a thin polygon is shrunk by
// at most half the distance from its centroid to its closest edge.
func (p *Polygon) CoreVertices(dst []mgl64.Vec2, skin float64) ([]mgl64.Vec2, float64) {
	inRadius := math.MaxFloat64
	for i := 0; i < p.count; i++ {
		inRadius = math.Min(inRadius, p.normals[i].Dot(p.vertices[i].Sub(p.centroid)))
	}
	skin = math.Min(skin, 0.5*inRadius)

	dst = dst[:0]
	for i := 0; i < p.count; i++ {
		n1 := p.normals[(i+p.count-1)%p.count]
		n2 := p.normals[i]

		// The vertex moves by d with dot(d, n1) = dot(d, n2) = -skin
		m := mgl64.Mat2{n1.X(), n2.X(), n1.Y(), n2.Y()}
		d := m.Inv().Mul2x1(mgl64.Vec2{-skin, -skin})
		dst = append(dst, p.vertices[i].Add(d))
	}

	return dst, skin
}

func (p *Polygon) Type() ShapeType { return ShapeTypePolygon }

func (p *Polygon) Vertices() []mgl64.Vec2 { return p.vertices[:p.count] }

func (p *Polygon) Normals() []mgl64.Vec2 { return p.normals[:p.count] }

func (p *Polygon) Centroid() mgl64.Vec2 { return p.centroid }

func (p *Polygon) Radius() float64 { return 0 }

func (p *Polygon) hull() hull {
	return hull{vertices: p.vertices[:p.count], normals: p.normals[:p.count]}
}

func (p *Polygon) ComputeAABB(xf Transform) AABB {
	lower := xf.Apply(p.vertices[0])
	upper := lower
	for i := 1; i < p.count; i++ {
		v := xf.Apply(p.vertices[i])
		lower = MinVec(lower, v)
		upper = MaxVec(upper, v)
	}
	return AABB{Min: lower, Max: upper}
}

func (p *Polygon) ComputeSweptAABB(xf1, xf2 Transform) AABB {
	return sweptAABB(p, xf1, xf2)
}

// ComputeMass splits the polygon into a fan of triangles rooted at the local origin
// and accumulates their area, centroid and second moment.
func (p *Polygon) ComputeMass(density float64) MassData {
	var center mgl64.Vec2
	area := 0.0
	I := 0.0

	const inv3 = 1.0 / 3.0

	for i := 0; i < p.count; i++ {
		// Triangle vertices, the first one is the origin
		p2 := p.vertices[i]
		p3 := p.vertices[(i+1)%p.count]

		e1 := p2
		e2 := p3

		D := Cross(e1, e2)

		triangleArea := 0.5 * D
		area += triangleArea

		// Area weighted centroid
		center = center.Add(p2.Add(p3).Mul(triangleArea * inv3))

		ex1, ey1 := e1.X(), e1.Y()
		ex2, ey2 := e2.X(), e2.Y()

		intx2 := inv3 * 0.25 * (ex1*ex1 + ex2*ex1 + ex2*ex2)
		inty2 := inv3 * 0.25 * (ey1*ey1 + ey2*ey1 + ey2*ey2)

		I += D * (intx2 + inty2)
	}

	if area > Epsilon {
		center = center.Mul(1.0 / area)
	}

	return MassData{
		Mass:   density * area,
		Center: center,
		I:      density * I,
	}
}

func (p *Polygon) TestPoint(xf Transform, point mgl64.Vec2) bool {
	pLocal := xf.ApplyInverse(point)
	for i := 0; i < p.count; i++ {
		if p.normals[i].Dot(pLocal.Sub(p.vertices[i])) > 0.0 {
			return false
		}
	}
	return true
}

// TestSegment clips the segment against every half-space of the polygon
func (p *Polygon) TestSegment(xf Transform, segment Segment, maxLambda float64) (SegmentCollide, float64, mgl64.Vec2) {
	lower, upper := 0.0, maxLambda

	p1 := xf.ApplyInverse(segment.P1)
	p2 := xf.ApplyInverse(segment.P2)
	d := p2.Sub(p1)
	index := -1

	for i := 0; i < p.count; i++ {
		// p = p1 + a * d
		// dot(normal, p - v) = 0
		// dot(normal, p1 - v) + a * dot(normal, d) = 0
		numerator := p.normals[i].Dot(p.vertices[i].Sub(p1))
		denominator := p.normals[i].Dot(d)

		if math.Abs(denominator) < Epsilon {
			if numerator < 0.0 {
				return SegmentMiss, 0, mgl64.Vec2{}
			}
		} else if denominator < 0.0 && numerator < lower*denominator {
			// The segment enters this half-space
			lower = numerator / denominator
			index = i
		} else if denominator > 0.0 && numerator < upper*denominator {
			// The segment exits this half-space
			upper = numerator / denominator
		}

		if upper < lower {
			return SegmentMiss, 0, mgl64.Vec2{}
		}
	}

	if index >= 0 {
		return SegmentHit, lower, xf.Rotate(p.normals[index])
	}

	return SegmentStartsInside, 0, mgl64.Vec2{}
}

func (p *Polygon) UpdateSweepRadius(center mgl64.Vec2) {
	p.sweepRadius = 0.0
	for i := 0; i < p.count; i++ {
		p.sweepRadius = math.Max(p.sweepRadius, p.vertices[i].Sub(center).Len())
	}
}

func (p *Polygon) SweepRadius() float64 { return p.sweepRadius }
