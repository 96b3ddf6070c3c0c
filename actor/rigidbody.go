package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

// RigidBody is the kinematic state of a body: its pose over the current step,
// velocities, mass properties and accumulated forces.
type RigidBody struct {
	// Spatial properties
	Transform Transform // pose of the body origin
	Sweep     Sweep     // motion of the center of mass over the step

	// Linear motion
	LinearVelocity mgl64.Vec2 // m/s

	// Angular motion
	AngularVelocity float64 // rad/s

	accumulatedForce  mgl64.Vec2
	accumulatedTorque float64

	Mass, InvMass float64
	I, InvI       float64 // rotational inertia about the center of mass

	LinearDamping  float64
	AngularDamping float64

	SleepTime float64
	BodyType  BodyType
}

// NewRigidBody creates a static body with its origin at position, rotated by angle.
// SetMass turns it dynamic.
func NewRigidBody(position mgl64.Vec2, angle float64) *RigidBody {
	rb := &RigidBody{BodyType: BodyTypeStatic}
	rb.SetTransform(position, angle)

	return rb
}

// SetTransform teleports the body origin, resetting the sweep
func (rb *RigidBody) SetTransform(position mgl64.Vec2, angle float64) {
	rb.Transform = NewTransform(position, angle)

	rb.Sweep.C = rb.Transform.Apply(rb.Sweep.LocalCenter)
	rb.Sweep.C0 = rb.Sweep.C
	rb.Sweep.A = angle
	rb.Sweep.A0 = angle
	rb.Sweep.T0 = 0
}

// SetMass applies mass data accumulated from the shapes. The inertia of md is taken
// about the body origin and moved to the center of mass. A body left with no mass
// and no inertia becomes static.
func (rb *RigidBody) SetMass(md MassData, fixedRotation bool) {
	rb.Mass = 0
	rb.InvMass = 0
	rb.I = 0
	rb.InvI = 0

	var center mgl64.Vec2
	if md.Mass > 0 {
		rb.Mass = md.Mass
		rb.InvMass = 1.0 / md.Mass
		center = md.Center
	}

	if md.I > 0 && !fixedRotation {
		// Parallel axis theorem, shift from the origin to the center of mass
		rb.I = md.I - rb.Mass*center.Dot(center)
		if rb.I > 0 {
			rb.InvI = 1.0 / rb.I
		} else {
			rb.I = 0
		}
	}

	// Move the center of mass, keeping the origin in place
	rb.Sweep.LocalCenter = center
	rb.Sweep.C = rb.Transform.Apply(center)
	rb.Sweep.C0 = rb.Sweep.C

	if rb.InvMass == 0 && rb.InvI == 0 {
		rb.BodyType = BodyTypeStatic
		rb.LinearVelocity = mgl64.Vec2{}
		rb.AngularVelocity = 0
	} else {
		rb.BodyType = BodyTypeDynamic
	}
}

func (rb *RigidBody) IsStatic() bool {
	return rb.BodyType == BodyTypeStatic
}

// SynchronizeTransform derives the origin transform from the end of the sweep
func (rb *RigidBody) SynchronizeTransform() {
	rb.Transform.R = mgl64.Rotate2D(rb.Sweep.A)
	rb.Transform.Position = rb.Sweep.C.Sub(rb.Transform.R.Mul2x1(rb.Sweep.LocalCenter))
}

// Advance moves the body to fraction t of the step and makes that pose the new
// start of the sweep.
func (rb *RigidBody) Advance(t float64) {
	rb.Sweep.Advance(t)
	rb.Sweep.C = rb.Sweep.C0
	rb.Sweep.A = rb.Sweep.A0
	rb.SynchronizeTransform()
}

// IntegrateVelocity applies gravity, forces and damping over dt, then clamps the speeds
func (rb *RigidBody) IntegrateVelocity(dt float64, gravity mgl64.Vec2, maxLinearVelocity, maxAngularVelocity float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	// ========== LINEAR ==========
	forces := gravity.Add(rb.accumulatedForce.Mul(rb.InvMass))
	rb.LinearVelocity = rb.LinearVelocity.Add(forces.Mul(dt))

	// ========== ANGULAR ==========
	rb.AngularVelocity += dt * rb.InvI * rb.accumulatedTorque

	// ========== DAMPING ==========
	rb.LinearVelocity = rb.LinearVelocity.Mul(Clamp(1.0-dt*rb.LinearDamping, 0.0, 1.0))
	rb.AngularVelocity *= Clamp(1.0-dt*rb.AngularDamping, 0.0, 1.0)

	// ========== CLAMP ==========
	if speedSqr := rb.LinearVelocity.Dot(rb.LinearVelocity); speedSqr > maxLinearVelocity*maxLinearVelocity {
		rb.LinearVelocity = rb.LinearVelocity.Mul(maxLinearVelocity / math.Sqrt(speedSqr))
	}
	rb.AngularVelocity = Clamp(rb.AngularVelocity, -maxAngularVelocity, maxAngularVelocity)

	rb.ClearForces()
}

// IntegratePosition stores the current pose as the start of the sweep and moves the
// center of mass over dt
func (rb *RigidBody) IntegratePosition(dt float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.Sweep.C0 = rb.Sweep.C
	rb.Sweep.A0 = rb.Sweep.A

	rb.Sweep.C = rb.Sweep.C.Add(rb.LinearVelocity.Mul(dt))
	rb.Sweep.A += dt * rb.AngularVelocity

	rb.SynchronizeTransform()
}

// TrySleep accumulates the time spent below both tolerances and returns it.
// Moving faster than either tolerance resets the timer.
func (rb *RigidBody) TrySleep(dt, linearTolerance, angularTolerance float64) float64 {
	if rb.BodyType == BodyTypeStatic {
		return math.MaxFloat64
	}

	if rb.AngularVelocity*rb.AngularVelocity > angularTolerance*angularTolerance ||
		rb.LinearVelocity.Dot(rb.LinearVelocity) > linearTolerance*linearTolerance {
		rb.SleepTime = 0
	} else {
		rb.SleepTime += dt
	}

	return rb.SleepTime
}

// Sleep stops the body
func (rb *RigidBody) Sleep() {
	rb.SleepTime = 0
	rb.LinearVelocity = mgl64.Vec2{}
	rb.AngularVelocity = 0
	rb.ClearForces()
}

// ApplyForce accumulates a force at a world point until the next velocity integration
func (rb *RigidBody) ApplyForce(force mgl64.Vec2, point mgl64.Vec2) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.accumulatedTorque += Cross(point.Sub(rb.Sweep.C), force)
}

func (rb *RigidBody) ApplyTorque(torque float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.accumulatedTorque += torque
}

// ApplyImpulse changes the velocities immediately
func (rb *RigidBody) ApplyImpulse(impulse mgl64.Vec2, point mgl64.Vec2) {
	if rb.BodyType == BodyTypeStatic {
		return
	}

	rb.LinearVelocity = rb.LinearVelocity.Add(impulse.Mul(rb.InvMass))
	rb.AngularVelocity += rb.InvI * Cross(point.Sub(rb.Sweep.C), impulse)
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec2{}
	rb.accumulatedTorque = 0
}

func (rb *RigidBody) Force() mgl64.Vec2 { return rb.accumulatedForce }

func (rb *RigidBody) Torque() float64 { return rb.accumulatedTorque }

// GetPosition returns the world position of the body origin
func (rb *RigidBody) GetPosition() mgl64.Vec2 { return rb.Transform.Position }

func (rb *RigidBody) GetAngle() float64 { return rb.Sweep.A }

func (rb *RigidBody) GetWorldCenter() mgl64.Vec2 { return rb.Sweep.C }

func (rb *RigidBody) GetLocalCenter() mgl64.Vec2 { return rb.Sweep.LocalCenter }

func (rb *RigidBody) GetWorldPoint(localPoint mgl64.Vec2) mgl64.Vec2 {
	return rb.Transform.Apply(localPoint)
}

func (rb *RigidBody) GetLocalPoint(worldPoint mgl64.Vec2) mgl64.Vec2 {
	return rb.Transform.ApplyInverse(worldPoint)
}

func (rb *RigidBody) GetWorldVector(localVector mgl64.Vec2) mgl64.Vec2 {
	return rb.Transform.Rotate(localVector)
}

func (rb *RigidBody) GetLocalVector(worldVector mgl64.Vec2) mgl64.Vec2 {
	return rb.Transform.InverseRotate(worldVector)
}

// GetLinearVelocityFromWorldPoint returns the velocity of a world point attached to the body
func (rb *RigidBody) GetLinearVelocityFromWorldPoint(worldPoint mgl64.Vec2) mgl64.Vec2 {
	return rb.LinearVelocity.Add(CrossSV(rb.AngularVelocity, worldPoint.Sub(rb.Sweep.C)))
}
