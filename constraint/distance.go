package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// DistanceJoint keeps two anchor points at a fixed distance. With a positive
// FrequencyHz it behaves like a damped spring instead.
//
// C = |pB - pA| - L
// Cdot = dot(u, vB + wB x rB - vA - wA x rA)
type DistanceJoint struct {
	BodyA, BodyB *actor.RigidBody

	LocalAnchorA mgl64.Vec2 // in the frame of the body origin
	LocalAnchorB mgl64.Vec2
	Length       float64

	FrequencyHz  float64
	DampingRatio float64

	u       mgl64.Vec2
	rA, rB  mgl64.Vec2
	impulse float64
	mass    float64 // effective mass for the constraint
	gamma   float64
	bias    float64
}

// NewDistanceJoint binds two bodies at world anchors; the rest length is the distance
// between the anchors at creation.
func NewDistanceJoint(bodyA, bodyB *actor.RigidBody, anchorA, anchorB mgl64.Vec2) *DistanceJoint {
	return &DistanceJoint{
		BodyA:        bodyA,
		BodyB:        bodyB,
		LocalAnchorA: bodyA.GetLocalPoint(anchorA),
		LocalAnchorB: bodyB.GetLocalPoint(anchorB),
		Length:       anchorB.Sub(anchorA).Len(),
	}
}

func (j *DistanceJoint) GetAnchorA() mgl64.Vec2 { return j.BodyA.GetWorldPoint(j.LocalAnchorA) }

func (j *DistanceJoint) GetAnchorB() mgl64.Vec2 { return j.BodyB.GetWorldPoint(j.LocalAnchorB) }

// Impulse is the accumulated impulse of the last step along the joint axis
func (j *DistanceJoint) Impulse() float64 { return j.impulse }

func (j *DistanceJoint) InitVelocityConstraints(step TimeStep) {
	bodyA := j.BodyA
	bodyB := j.BodyB

	// Compute the effective mass matrix
	j.rA = bodyA.Transform.Rotate(j.LocalAnchorA.Sub(bodyA.Sweep.LocalCenter))
	j.rB = bodyB.Transform.Rotate(j.LocalAnchorB.Sub(bodyB.Sweep.LocalCenter))
	j.u = bodyB.Sweep.C.Add(j.rB).Sub(bodyA.Sweep.C).Sub(j.rA)

	// Handle singularity
	length := j.u.Len()
	if length > step.Settings.Collision.LinearSlop {
		j.u = j.u.Mul(1.0 / length)
	} else {
		j.u = mgl64.Vec2{}
	}

	crA := actor.Cross(j.rA, j.u)
	crB := actor.Cross(j.rB, j.u)
	invMass := bodyA.InvMass + bodyA.InvI*crA*crA + bodyB.InvMass + bodyB.InvI*crB*crB
	j.mass = safeInverse(invMass)

	j.gamma = 0.0
	j.bias = 0.0
	if j.FrequencyHz > 0.0 && invMass > actor.Epsilon {
		C := length - j.Length

		// Frequency
		omega := 2.0 * math.Pi * j.FrequencyHz

		// Damping coefficient
		d := 2.0 * j.mass * j.DampingRatio * omega

		// Spring stiffness
		k := j.mass * omega * omega

		// magic formulas
		j.gamma = safeInverse(step.Dt * (d + step.Dt*k))
		j.bias = C * step.Dt * k * j.gamma

		j.mass = safeInverse(invMass + j.gamma)
	}

	if step.WarmStarting {
		// Scale the impulse to support a variable time step
		j.impulse *= step.DtRatio
		applyImpulse(bodyA, bodyB, j.u.Mul(j.impulse), j.rA, j.rB)
	} else {
		j.impulse = 0.0
	}
}

func (j *DistanceJoint) SolveVelocityConstraints(step TimeStep) {
	Cdot := j.u.Dot(relativeVelocity(j.BodyA, j.BodyB, j.rA, j.rB))

	impulse := -j.mass * (Cdot + j.bias + j.gamma*j.impulse)
	j.impulse += impulse

	applyImpulse(j.BodyA, j.BodyB, j.u.Mul(impulse), j.rA, j.rB)
}

// SolvePositionConstraints corrects the length of a rigid joint. A soft joint has no
// position error to correct.
func (j *DistanceJoint) SolvePositionConstraints(step TimeStep) bool {
	if j.FrequencyHz > 0.0 {
		return true
	}

	bodyA := j.BodyA
	bodyB := j.BodyB
	linearSlop := step.Settings.Collision.LinearSlop
	maxLinearCorrection := step.Settings.Solver.MaxLinearCorrection

	rA := bodyA.Transform.Rotate(j.LocalAnchorA.Sub(bodyA.Sweep.LocalCenter))
	rB := bodyB.Transform.Rotate(j.LocalAnchorB.Sub(bodyB.Sweep.LocalCenter))

	d := bodyB.Sweep.C.Add(rB).Sub(bodyA.Sweep.C).Sub(rA)

	u, length := actor.Normalize(d)
	C := actor.Clamp(length-j.Length, -maxLinearCorrection, maxLinearCorrection)

	impulse := -j.mass * C
	j.u = u
	P := u.Mul(impulse)

	bodyA.Sweep.C = bodyA.Sweep.C.Sub(P.Mul(bodyA.InvMass))
	bodyA.Sweep.A -= bodyA.InvI * actor.Cross(rA, P)
	bodyB.Sweep.C = bodyB.Sweep.C.Add(P.Mul(bodyB.InvMass))
	bodyB.Sweep.A += bodyB.InvI * actor.Cross(rB, P)

	bodyA.SynchronizeTransform()
	bodyB.SynchronizeTransform()

	return math.Abs(C) < linearSlop
}
