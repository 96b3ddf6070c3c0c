package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/config"
	"github.com/go-gl/mathgl/mgl64"
)

// TimeStep carries the parameters of one solver pass
type TimeStep struct {
	Dt    float64
	InvDt float64
	// DtRatio is dt * previous 1/dt, used to scale warm starting impulses when the
	// step length changes
	DtRatio float64

	VelocityIterations int
	PositionIterations int

	WarmStarting       bool
	PositionCorrection bool

	Settings *config.Settings
}

// Constraint is a joint solved by the island solver alongside contacts
type Constraint interface {
	// InitVelocityConstraints prepares the effective masses and applies the warm start impulse
	InitVelocityConstraints(step TimeStep)
	SolveVelocityConstraints(step TimeStep)
	// SolvePositionConstraints moves the bodies to reduce the position error and reports
	// whether the error is within tolerance
	SolvePositionConstraints(step TimeStep) bool
}

// MixFriction combines two friction coefficients with the geometric mean
func MixFriction(frictionA, frictionB float64) float64 {
	return math.Sqrt(frictionA * frictionB)
}

// MixRestitution keeps the bounciest restitution: if one bounces, it bounces
func MixRestitution(restitutionA, restitutionB float64) float64 {
	return math.Max(restitutionA, restitutionB)
}

// applyImpulse adds an impulse P at the arms rA, rB: A receives -P and B receives +P
func applyImpulse(bodyA, bodyB *actor.RigidBody, P mgl64.Vec2, rA, rB mgl64.Vec2) {
	bodyA.LinearVelocity = bodyA.LinearVelocity.Sub(P.Mul(bodyA.InvMass))
	bodyA.AngularVelocity -= bodyA.InvI * actor.Cross(rA, P)

	bodyB.LinearVelocity = bodyB.LinearVelocity.Add(P.Mul(bodyB.InvMass))
	bodyB.AngularVelocity += bodyB.InvI * actor.Cross(rB, P)
}

// relativeVelocity is the velocity of the point rB on B seen from the point rA on A
func relativeVelocity(bodyA, bodyB *actor.RigidBody, rA, rB mgl64.Vec2) mgl64.Vec2 {
	vA := bodyA.LinearVelocity.Add(actor.CrossSV(bodyA.AngularVelocity, rA))
	vB := bodyB.LinearVelocity.Add(actor.CrossSV(bodyB.AngularVelocity, rB))
	return vB.Sub(vA)
}
