package feather2d

import (
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyDef describes a body to create. A body is static until SetMassFromShapes gives
// it mass.
type BodyDef struct {
	Position        mgl64.Vec2
	Angle           float64
	LinearVelocity  mgl64.Vec2
	AngularVelocity float64
	LinearDamping   float64
	AngularDamping  float64

	AllowSleep    bool
	IsSleeping    bool
	FixedRotation bool
	// A bullet takes part in continuous collision against other dynamic bodies
	IsBullet bool

	UserData any
}

// DefaultBodyDef returns an awake body at the origin that is allowed to sleep
func DefaultBodyDef() BodyDef {
	return BodyDef{AllowSleep: true}
}

// JointEdge links a body to a joint and to the other body of that joint
type JointEdge struct {
	Other *Body
	Joint *Joint

	prev, next *JointEdge
}

func (je *JointEdge) GetNext() *JointEdge { return je.next }

// ContactEdge links a body to a contact and to the other body of that contact
type ContactEdge struct {
	Other   *Body
	Contact *Contact

	prev, next *ContactEdge
}

func (ce *ContactEdge) GetNext() *ContactEdge { return ce.next }

// Body is a rigid body owned by a World, with its shapes and its edges in the
// contact and joint graph
type Body struct {
	actor.RigidBody

	AllowSleep    bool
	FixedRotation bool
	IsBullet      bool
	UserData      any

	world      *World
	prev, next *Body

	shapeList   *Shape
	shapeCount  int
	jointList   *JointEdge
	contactList *ContactEdge

	sleeping   bool
	frozen     bool
	islandFlag bool
}

func newBody(def BodyDef, world *World) *Body {
	b := &Body{
		RigidBody:     *actor.NewRigidBody(def.Position, def.Angle),
		AllowSleep:    def.AllowSleep,
		FixedRotation: def.FixedRotation,
		IsBullet:      def.IsBullet,
		UserData:      def.UserData,
		world:         world,
		sleeping:      def.IsSleeping,
	}
	b.LinearVelocity = def.LinearVelocity
	b.AngularVelocity = def.AngularVelocity
	b.LinearDamping = def.LinearDamping
	b.AngularDamping = def.AngularDamping

	return b
}

func (b *Body) GetWorld() *World { return b.world }

func (b *Body) GetNext() *Body { return b.next }

func (b *Body) GetShapeList() *Shape { return b.shapeList }

func (b *Body) ShapeCount() int { return b.shapeCount }

func (b *Body) GetJointList() *JointEdge { return b.jointList }

func (b *Body) GetContactList() *ContactEdge { return b.contactList }

func (b *Body) IsSleeping() bool { return b.sleeping }

// IsFrozen reports whether the body is outside the world bounds
func (b *Body) IsFrozen() bool { return b.frozen }

// isAwake reports whether the body can move this step
func (b *Body) isAwake() bool {
	return !b.IsStatic() && !b.sleeping
}

// WakeUp puts the body back in the simulation and resets its sleep timer
func (b *Body) WakeUp() {
	b.sleeping = false
	b.SleepTime = 0
}

// PutToSleep stops the body. The sweep collapses onto the current pose so a sleeping
// body is seen as still by continuous collision.
func (b *Body) PutToSleep() {
	b.sleeping = true
	b.Sleep()
	b.Sweep.C0 = b.Sweep.C
	b.Sweep.A0 = b.Sweep.A
}

// ApplyForce wakes the body and accumulates a force at a world point
func (b *Body) ApplyForce(force mgl64.Vec2, point mgl64.Vec2) {
	if b.IsStatic() {
		return
	}
	b.WakeUp()
	b.RigidBody.ApplyForce(force, point)
}

// ApplyTorque wakes the body and accumulates a torque
func (b *Body) ApplyTorque(torque float64) {
	if b.IsStatic() {
		return
	}
	b.WakeUp()
	b.RigidBody.ApplyTorque(torque)
}

// ApplyImpulse wakes the body and changes its velocity immediately
func (b *Body) ApplyImpulse(impulse mgl64.Vec2, point mgl64.Vec2) {
	if b.IsStatic() {
		return
	}
	b.WakeUp()
	b.RigidBody.ApplyImpulse(impulse, point)
}

// SetTransform teleports the body and moves its proxies. It returns false when the body
// is frozen, or gets frozen by the move.
func (b *Body) SetTransform(position mgl64.Vec2, angle float64) bool {
	assert(!b.world.locked, "SetTransform called while the world is locked")
	if b.frozen {
		return false
	}

	b.RigidBody.SetTransform(position, angle)

	for s := b.shapeList; s != nil; s = s.next {
		s.aabb = s.Geometry.ComputeAABB(b.Transform)
	}
	b.world.synchronizeBody(b)
	b.world.broadPhase.Commit()

	return !b.frozen
}

// SetMassFromShapes sums the mass of the shapes and sets the center of mass and the
// rotational inertia. A body with no mass stays static.
func (b *Body) SetMassFromShapes() {
	assert(!b.world.locked, "SetMassFromShapes called while the world is locked")

	var md actor.MassData
	var center mgl64.Vec2
	for s := b.shapeList; s != nil; s = s.next {
		massData := s.Geometry.ComputeMass(s.Material.Density)
		md.Mass += massData.Mass
		md.I += massData.I
		center = center.Add(massData.Center.Mul(massData.Mass))
	}
	if md.Mass > 0 {
		md.Center = center.Mul(1.0 / md.Mass)
	}

	wasStatic := b.IsStatic()
	b.SetMass(md, b.FixedRotation)

	for s := b.shapeList; s != nil; s = s.next {
		s.Geometry.UpdateSweepRadius(b.Sweep.LocalCenter)
	}

	// Pairs between static bodies were filtered out
	if wasStatic != b.IsStatic() {
		b.world.refilterBody(b)
	}
}

// IsConnected reports whether a joint between the bodies disables their collisions
func (b *Body) IsConnected(other *Body) bool {
	for je := b.jointList; je != nil; je = je.next {
		if je.Joint.CollideConnected {
			continue
		}
		if je.Other == other {
			return true
		}
		// Ring joints bind more than the neighbour of the edge
		if len(je.Joint.bodies) > 2 && je.Joint.hasBody(other) {
			return true
		}
	}
	return false
}

// sweepStart is the transform at the start of the sweep
func (b *Body) sweepStart() actor.Transform {
	return b.Sweep.GetTransform(b.Sweep.T0)
}

// computeSweptAABBs stores in every shape the AABB covering its motion over the step.
// It only writes to the shapes of b, so bodies can be processed concurrently.
func (b *Body) computeSweptAABBs() {
	xf1 := b.sweepStart()
	for s := b.shapeList; s != nil; s = s.next {
		s.aabb = s.Geometry.ComputeSweptAABB(xf1, b.Transform)
	}
}
