package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is the persistent state of two shapes whose fat AABBs overlap. It caches the
// manifold so impulses can be warm started across steps.
type Contact struct {
	shapeA, shapeB *Shape
	manifold       actor.Manifold

	Friction    float64
	Restitution float64

	prev, next   *Contact
	nodeA, nodeB ContactEdge

	touching   bool
	islandFlag bool
	toiFlag    bool // toi holds a valid time of impact
	nonSolid   bool // a sensor is involved
	slow       bool // two dynamic bodies, neither is a bullet

	toi float64
}

// newContact orders the shapes so the collide routine for their types applies
func newContact(shapeA, shapeB *Shape) *Contact {
	if _, swap := actor.CanCollide(shapeA.Type(), shapeB.Type()); swap {
		shapeA, shapeB = shapeB, shapeA
	}

	c := &Contact{
		shapeA:      shapeA,
		shapeB:      shapeB,
		Friction:    constraint.MixFriction(shapeA.Material.Friction, shapeB.Material.Friction),
		Restitution: constraint.MixRestitution(shapeA.Material.Restitution, shapeB.Material.Restitution),
		nonSolid:    shapeA.IsSensor || shapeB.IsSensor,
		toi:         1.0,
	}
	c.slow = c.isSlow()

	return c
}

func (c *Contact) GetShapeA() *Shape { return c.shapeA }

func (c *Contact) GetShapeB() *Shape { return c.shapeB }

func (c *Contact) GetNext() *Contact { return c.next }

// Manifold returns the cached manifold. Normal points from shape A to shape B.
func (c *Contact) Manifold() *actor.Manifold { return &c.manifold }

func (c *Contact) IsTouching() bool { return c.touching }

// IsSolid reports whether the contact is solved, that is no sensor is involved
func (c *Contact) IsSolid() bool { return !c.nonSolid }

func (c *Contact) isSlow() bool {
	bodyA := c.shapeA.body
	bodyB := c.shapeB.body
	return !(bodyA.IsStatic() || bodyB.IsStatic() || bodyA.IsBullet || bodyB.IsBullet)
}

// update recomputes the manifold at the current transforms. Impulses of points whose
// feature ids persist are carried over, and the listener hears about every added,
// persisting and removed point.
func (c *Contact) update(listener ContactListener) {
	old := c.manifold
	bodyA := c.shapeA.body
	bodyB := c.shapeB.body

	actor.Collide(&c.manifold, c.shapeA.Geometry, bodyA.Transform, c.shapeB.Geometry, bodyB.Transform)
	c.slow = c.isSlow()

	var matched [actor.MaxManifoldPoints]bool
	for i := 0; i < c.manifold.PointCount; i++ {
		mp := &c.manifold.Points[i]
		mp.NormalImpulse = 0
		mp.TangentImpulse = 0

		found := false
		for j := 0; j < old.PointCount; j++ {
			if matched[j] || old.Points[j].ID != mp.ID {
				continue
			}
			mp.NormalImpulse = old.Points[j].NormalImpulse
			mp.TangentImpulse = old.Points[j].TangentImpulse
			matched[j] = true
			found = true
			break
		}

		if listener == nil {
			continue
		}
		if found {
			listener.Persist(c.contactPoint(mp, c.manifold.Normal))
		} else {
			listener.Add(c.contactPoint(mp, c.manifold.Normal))
		}
	}

	if listener != nil {
		for j := 0; j < old.PointCount; j++ {
			if !matched[j] {
				listener.Remove(c.contactPoint(&old.Points[j], old.Normal))
			}
		}
	}

	c.touching = c.manifold.PointCount > 0
}

// removeAll reports every cached point as removed, before the contact is destroyed
func (c *Contact) removeAll(listener ContactListener) {
	if listener == nil {
		return
	}
	for i := 0; i < c.manifold.PointCount; i++ {
		listener.Remove(c.contactPoint(&c.manifold.Points[i], c.manifold.Normal))
	}
}

func (c *Contact) contactPoint(mp *actor.ManifoldPoint, normal mgl64.Vec2) ContactPoint {
	bodyA := c.shapeA.body
	bodyB := c.shapeB.body

	position := bodyA.GetWorldPoint(mp.LocalPoint1)
	velocity := bodyB.GetLinearVelocityFromWorldPoint(position).Sub(bodyA.GetLinearVelocityFromWorldPoint(position))

	return ContactPoint{
		ShapeA:      c.shapeA,
		ShapeB:      c.shapeB,
		Position:    position,
		Velocity:    velocity,
		Normal:      normal,
		Separation:  mp.Separation,
		Friction:    c.Friction,
		Restitution: c.Restitution,
		ID:          mp.ID,
	}
}

// solverInput hands the contact to the contact solver
func (c *Contact) solverInput() constraint.ContactInput {
	return constraint.ContactInput{
		BodyA:       &c.shapeA.body.RigidBody,
		BodyB:       &c.shapeB.body.RigidBody,
		Manifold:    &c.manifold,
		Friction:    c.Friction,
		Restitution: c.Restitution,
	}
}
