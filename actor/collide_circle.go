package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CollideCircles computes the manifold of two discs given by their local centers and radii
func CollideCircles(m *Manifold, c1 mgl64.Vec2, r1 float64, xf1 Transform, c2 mgl64.Vec2, r2 float64, xf2 Transform) {
	m.PointCount = 0

	p1 := xf1.Apply(c1)
	p2 := xf2.Apply(c2)

	d := p2.Sub(p1)
	distSqr := d.Dot(d)
	radiusSum := r1 + r2
	if distSqr > radiusSum*radiusSum {
		return
	}

	var separation float64
	var normal mgl64.Vec2
	if distSqr < Epsilon {
		// Concentric, pick an arbitrary normal
		separation = -radiusSum
		normal = mgl64.Vec2{0, 1}
	} else {
		dist := math.Sqrt(distSqr)
		separation = dist - radiusSum
		normal = d.Mul(1.0 / dist)
	}

	m.PointCount = 1
	m.Normal = normal

	p1 = p1.Add(normal.Mul(r1))
	p2 = p2.Sub(normal.Mul(r2))
	p := p1.Add(p2).Mul(0.5)

	m.Points[0] = ManifoldPoint{
		LocalPoint1: xf1.ApplyInverse(p),
		LocalPoint2: xf2.ApplyInverse(p),
		Separation:  separation,
	}
}

// CollidePolygonAndCircle computes the manifold of a convex hull (polygon or edge) and a disc
func CollidePolygonAndCircle(m *Manifold, h hull, xf1 Transform, c mgl64.Vec2, radius float64, xf2 Transform) {
	m.PointCount = 0

	// Compute circle position in the frame of the polygon
	cWorld := xf2.Apply(c)
	cLocal := xf1.ApplyInverse(cWorld)

	// Find the min separating edge
	normalIndex := 0
	separation := -math.MaxFloat64
	for i := range h.vertices {
		s := h.normals[i].Dot(cLocal.Sub(h.vertices[i]))
		if s > radius {
			// Early out
			return
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	// If the center is inside the polygon ...
	if separation < Epsilon && (len(h.vertices) > 2 || withinEdge(h, cLocal)) {
		m.PointCount = 1
		m.Normal = xf1.Rotate(h.normals[normalIndex])
		position := cWorld.Sub(m.Normal.Mul(radius))
		m.Points[0] = ManifoldPoint{
			LocalPoint1: xf1.ApplyInverse(position),
			LocalPoint2: xf2.ApplyInverse(position),
			Separation:  separation - radius,
			ID:          ContactID{IncidentEdge: uint8(normalIndex), IncidentVertex: nullFeature},
		}
		return
	}

	// Project the circle center onto the edge segment
	vertIndex1 := normalIndex
	vertIndex2 := (vertIndex1 + 1) % len(h.vertices)
	v1 := h.vertices[vertIndex1]
	e, length := Normalize(h.vertices[vertIndex2].Sub(v1))

	id := ContactID{IncidentEdge: nullFeature, IncidentVertex: nullFeature}

	var p mgl64.Vec2
	u := cLocal.Sub(v1).Dot(e)
	if u <= 0.0 {
		p = v1
		id.IncidentVertex = uint8(vertIndex1)
	} else if u >= length {
		p = h.vertices[vertIndex2]
		id.IncidentVertex = uint8(vertIndex2)
	} else {
		p = v1.Add(e.Mul(u))
		id.IncidentEdge = uint8(vertIndex1)
	}

	d, dist := Normalize(cLocal.Sub(p))
	if dist > radius || dist < Epsilon {
		return
	}

	m.PointCount = 1
	m.Normal = xf1.Rotate(d)
	position := cWorld.Sub(m.Normal.Mul(radius))
	m.Points[0] = ManifoldPoint{
		LocalPoint1: xf1.ApplyInverse(position),
		LocalPoint2: xf2.ApplyInverse(position),
		Separation:  dist - radius,
		ID:          id,
	}
}

// withinEdge reports whether p projects inside a two vertex hull
func withinEdge(h hull, p mgl64.Vec2) bool {
	e := h.vertices[1].Sub(h.vertices[0])
	u := p.Sub(h.vertices[0]).Dot(e)
	return u >= 0.0 && u <= e.Dot(e)
}
