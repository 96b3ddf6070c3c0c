package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DestructionListener is told about joints and shapes destroyed implicitly, when the
// body they belong to is destroyed
type DestructionListener interface {
	SayGoodbyeJoint(joint *Joint)
	SayGoodbyeShape(shape *Shape)
}

// BoundaryListener is told when a body leaves the world bounds. The body is frozen:
// it keeps moving but has no proxies, and so no contacts, until it comes back.
type BoundaryListener interface {
	Violation(body *Body)
}

// ContactPoint describes a manifold point to a ContactListener
type ContactPoint struct {
	ShapeA, ShapeB *Shape
	Position       mgl64.Vec2 // world position
	Velocity       mgl64.Vec2 // velocity of the point on B relative to A
	Normal         mgl64.Vec2 // from A to B
	Separation     float64
	Friction       float64
	Restitution    float64
	ID             actor.ContactID
}

// ContactListener is called synchronously while contacts are updated, the world is
// locked. Points are matched across steps by their ContactID.
type ContactListener interface {
	Add(point ContactPoint)
	Persist(point ContactPoint)
	Remove(point ContactPoint)
}

// ContactFilter decides which shapes collide and which shapes raycasts see
type ContactFilter interface {
	ShouldCollide(shapeA, shapeB *Shape) bool
	RayCollide(userData any, shape *Shape) bool
}

// DefaultContactFilter applies the group, category and mask bits of the shapes
type DefaultContactFilter struct{}

// ShouldCollide lets shapes of the same non-zero group always collide when the group is
// positive and never when it is negative. Otherwise the category of each shape must be
// in the mask of the other.
func (DefaultContactFilter) ShouldCollide(shapeA, shapeB *Shape) bool {
	return shouldCollide(shapeA.Filter, shapeB.Filter)
}

// RayCollide filters the shape against the FilterData passed as raycast user data, if any
func (DefaultContactFilter) RayCollide(userData any, shape *Shape) bool {
	filter, ok := userData.(actor.FilterData)
	if !ok {
		return true
	}
	return shouldCollide(filter, shape.Filter)
}

func shouldCollide(filterA, filterB actor.FilterData) bool {
	if filterA.GroupIndex == filterB.GroupIndex && filterA.GroupIndex != 0 {
		return filterA.GroupIndex > 0
	}

	return filterA.MaskBits&filterB.CategoryBits != 0 && filterA.CategoryBits&filterB.MaskBits != 0
}
