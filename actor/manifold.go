package actor

import "github.com/go-gl/mathgl/mgl64"

// MaxManifoldPoints is the number of contact points between two convex shapes in 2D
const MaxManifoldPoints = 2

const nullFeature = 0xFF

// ContactID identifies the features that produced a contact point, so impulses
// can be matched across steps for warm starting
type ContactID struct {
	ReferenceEdge  uint8
	IncidentEdge   uint8
	IncidentVertex uint8
	Flip           bool
}

// ManifoldPoint is a contact point. Both local points map to the same world point
// at the time the manifold was computed.
type ManifoldPoint struct {
	LocalPoint1 mgl64.Vec2 // in the frame of shape 1's body
	LocalPoint2 mgl64.Vec2 // in the frame of shape 2's body
	Separation  float64    // negative when penetrating

	NormalImpulse  float64
	TangentImpulse float64
	ID             ContactID
}

// Manifold describes how two shapes touch
type Manifold struct {
	Points     [MaxManifoldPoints]ManifoldPoint
	Normal     mgl64.Vec2 // world space, from shape 1 to shape 2
	PointCount int
}

// CanCollide reports whether a collide routine exists for the pair of types, and whether
// the shapes must be swapped so the one with the lower type comes first.
func CanCollide(a, b ShapeType) (ok bool, swap bool) {
	swap = a > b
	if swap {
		a, b = b, a
	}

	switch {
	case a == ShapeTypeEdge && b == ShapeTypeEdge:
		return false, false
	case a == ShapeTypePoint && b == ShapeTypePoint:
		return false, false
	}

	return true, swap
}

// Collide computes the manifold of two shapes. The pair must be in the order given by
// CanCollide. Impulses in m are reset; matching them with the previous manifold is the
// caller's job.
func Collide(m *Manifold, s1 ShapeInterface, xf1 Transform, s2 ShapeInterface, xf2 Transform) {
	m.PointCount = 0

	switch shape1 := s1.(type) {
	case *Polygon:
		switch shape2 := s2.(type) {
		case *Polygon:
			CollidePolygons(m, shape1.hull(), xf1, shape2.hull(), xf2)
		case *Edge:
			CollidePolygons(m, shape1.hull(), xf1, shape2.hull(), xf2)
		case *Circle, *Point:
			CollidePolygonAndCircle(m, shape1.hull(), xf1, s2.Vertices()[0], s2.Radius(), xf2)
		}
	case *Edge:
		switch s2.(type) {
		case *Circle, *Point:
			CollidePolygonAndCircle(m, shape1.hull(), xf1, s2.Vertices()[0], s2.Radius(), xf2)
		}
	case *Circle:
		switch s2.(type) {
		case *Circle, *Point:
			CollideCircles(m, shape1.LocalPosition, shape1.R, xf1, s2.Vertices()[0], s2.Radius(), xf2)
		}
	}
}
