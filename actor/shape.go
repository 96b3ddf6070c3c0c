package actor

import "github.com/go-gl/mathgl/mgl64"

// ShapeType represents the type of collision shape
type ShapeType int

// The order matters: a contact always stores the shape with the lower type first.
const (
	ShapeTypePolygon ShapeType = iota
	ShapeTypeEdge
	ShapeTypeCircle
	ShapeTypePoint
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypePolygon:
		return "polygon"
	case ShapeTypeEdge:
		return "edge"
	case ShapeTypeCircle:
		return "circle"
	case ShapeTypePoint:
		return "point"
	default:
		return "unknown"
	}
}

// SegmentCollide is the outcome of a segment test against a shape
type SegmentCollide int

const (
	SegmentMiss SegmentCollide = iota
	SegmentStartsInside
	SegmentHit
)

// Segment is a directed line segment, used by raycasts
type Segment struct {
	P1, P2 mgl64.Vec2
}

// MassData holds the mass properties of a shape. I is the rotational inertia about
// the shape origin, not about the center of mass.
type MassData struct {
	Mass   float64
	Center mgl64.Vec2
	I      float64
}

// Material holds the surface and density properties of a shape
type Material struct {
	Density     float64
	Friction    float64
	Restitution float64 // 0= no rebound, 1= perfect restitution
}

// FilterData holds the collision filtering bits of a shape
type FilterData struct {
	CategoryBits uint16
	MaskBits     uint16
	// Shapes in the same non-zero group always collide (positive) or never collide (negative)
	GroupIndex int16
}

// DefaultFilter collides with everything
func DefaultFilter() FilterData {
	return FilterData{CategoryBits: 0x0001, MaskBits: 0xFFFF}
}

// ShapeInterface is the capability set the engine needs from a collision shape
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB calculates the axis-aligned bounding box of the shape at the given transform
	ComputeAABB(xf Transform) AABB
	// ComputeSweptAABB bounds the shape over the motion from xf1 to xf2
	ComputeSweptAABB(xf1, xf2 Transform) AABB
	// ComputeMass calculates mass data for the shape given a density
	ComputeMass(density float64) MassData
	TestPoint(xf Transform, p mgl64.Vec2) bool
	// TestSegment casts the segment against the shape. On a hit it returns the fraction
	// along the segment and the world surface normal.
	TestSegment(xf Transform, segment Segment, maxLambda float64) (SegmentCollide, float64, mgl64.Vec2)
	// UpdateSweepRadius stores the largest distance from center, the body center of mass,
	// to any point of the shape
	UpdateSweepRadius(center mgl64.Vec2)
	SweepRadius() float64
	// Vertices and Radius describe the shape as a rounded convex hull for distance queries
	Vertices() []mgl64.Vec2
	Radius() float64
}

// sweptAABB bounds a shape at two transforms
func sweptAABB(s ShapeInterface, xf1, xf2 Transform) AABB {
	return s.ComputeAABB(xf1).Combine(s.ComputeAABB(xf2))
}
