package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ShapeDef describes a shape to attach to a body
type ShapeDef struct {
	Geometry actor.ShapeInterface
	Material actor.Material
	Filter   actor.FilterData
	// A sensor reports its contacts but is never solved
	IsSensor bool
	UserData any
}

// DefaultShapeDef returns a massless shape definition with a little friction that
// collides with everything
func DefaultShapeDef(geometry actor.ShapeInterface) ShapeDef {
	return ShapeDef{
		Geometry: geometry,
		Material: actor.Material{Friction: 0.2},
		Filter:   actor.DefaultFilter(),
	}
}

// Shape binds a geometry to a body, with its material and collision filter
type Shape struct {
	Geometry actor.ShapeInterface
	Material actor.Material
	Filter   actor.FilterData
	IsSensor bool
	UserData any

	body    *Body
	next    *Shape
	proxyID int

	// swept AABB of the current step, written by the synchronization workers
	aabb actor.AABB
}

func newShape(body *Body, def ShapeDef) *Shape {
	return &Shape{
		Geometry: def.Geometry,
		Material: def.Material,
		Filter:   def.Filter,
		IsSensor: def.IsSensor,
		UserData: def.UserData,
		body:     body,
		proxyID:  NULL_PROXY,
	}
}

func (s *Shape) GetBody() *Body { return s.body }

func (s *Shape) GetNext() *Shape { return s.next }

func (s *Shape) Type() actor.ShapeType { return s.Geometry.Type() }

// ProxyID returns NULL_PROXY while the body is frozen
func (s *Shape) ProxyID() int { return s.proxyID }

// TestPoint reports whether the world point p is inside the shape
func (s *Shape) TestPoint(p mgl64.Vec2) bool {
	return s.Geometry.TestPoint(s.body.Transform, p)
}

// TestSegment casts a world segment against the shape
func (s *Shape) TestSegment(segment actor.Segment, maxLambda float64) (actor.SegmentCollide, float64, mgl64.Vec2) {
	return s.Geometry.TestSegment(s.body.Transform, segment, maxLambda)
}

// ComputeAABB returns the tight AABB of the shape at the current body transform
func (s *Shape) ComputeAABB() actor.AABB {
	return s.Geometry.ComputeAABB(s.body.Transform)
}

func (s *Shape) createProxy(bp *BroadPhase, aabb actor.AABB) {
	s.proxyID = bp.CreateProxy(aabb, s)
}

func (s *Shape) destroyProxy(bp *BroadPhase) {
	if s.proxyID == NULL_PROXY {
		return
	}
	bp.DestroyProxy(s.proxyID)
	s.proxyID = NULL_PROXY
}
