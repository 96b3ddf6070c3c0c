package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactInput is a touching contact handed to the solver
type ContactInput struct {
	BodyA, BodyB *actor.RigidBody
	Manifold     *actor.Manifold

	Friction    float64
	Restitution float64
}

type contactConstraintPoint struct {
	localAnchorA mgl64.Vec2 // relative to the center of mass of A
	localAnchorB mgl64.Vec2
	rA, rB       mgl64.Vec2

	normalImpulse   float64
	tangentImpulse  float64
	positionImpulse float64

	normalMass    float64
	tangentMass   float64
	equalizedMass float64

	separation   float64
	velocityBias float64
}

type contactConstraint struct {
	points     [actor.MaxManifoldPoints]contactConstraintPoint
	pointCount int
	normal     mgl64.Vec2

	manifold     *actor.Manifold
	bodyA, bodyB *actor.RigidBody

	friction    float64
	restitution float64
}

// ContactSolver resolves the contacts of one island with sequential impulses.
// The constraint slice is kept between islands and steps.
type ContactSolver struct {
	step        TimeStep
	constraints []contactConstraint
}

// Init builds one constraint per contact. Warm starting impulses are read from the
// manifolds and scaled by the step ratio.
func (cs *ContactSolver) Init(step TimeStep, contacts []ContactInput) {
	cs.step = step
	cs.constraints = cs.constraints[:0]

	velocityThreshold := step.Settings.Solver.VelocityThreshold

	for _, input := range contacts {
		manifold := input.Manifold
		if manifold.PointCount == 0 {
			continue
		}

		bodyA := input.BodyA
		bodyB := input.BodyB

		cs.constraints = append(cs.constraints, contactConstraint{})
		c := &cs.constraints[len(cs.constraints)-1]
		c.bodyA = bodyA
		c.bodyB = bodyB
		c.manifold = manifold
		c.normal = manifold.Normal
		c.pointCount = manifold.PointCount
		c.friction = input.Friction
		c.restitution = input.Restitution

		tangent := actor.CrossVS(c.normal, 1.0)

		for j := 0; j < c.pointCount; j++ {
			mp := &manifold.Points[j]
			ccp := &c.points[j]

			ccp.normalImpulse = step.DtRatio * mp.NormalImpulse
			ccp.tangentImpulse = step.DtRatio * mp.TangentImpulse
			ccp.separation = mp.Separation

			ccp.localAnchorA = mp.LocalPoint1.Sub(bodyA.Sweep.LocalCenter)
			ccp.localAnchorB = mp.LocalPoint2.Sub(bodyB.Sweep.LocalCenter)

			ccp.rA = bodyA.Transform.Rotate(ccp.localAnchorA)
			ccp.rB = bodyB.Transform.Rotate(ccp.localAnchorB)

			// ========== Normal mass ==========
			rnA := actor.Cross(ccp.rA, c.normal)
			rnB := actor.Cross(ccp.rB, c.normal)
			kNormal := bodyA.InvMass + bodyB.InvMass + bodyA.InvI*rnA*rnA + bodyB.InvI*rnB*rnB
			ccp.normalMass = safeInverse(kNormal)

			// Equalized mass, all dynamic bodies weigh the same for position correction
			kEqualized := bodyA.Mass*bodyA.InvMass + bodyB.Mass*bodyB.InvMass +
				bodyA.Mass*bodyA.InvI*rnA*rnA + bodyB.Mass*bodyB.InvI*rnB*rnB
			ccp.equalizedMass = safeInverse(kEqualized)

			// ========== Tangent mass ==========
			rtA := actor.Cross(ccp.rA, tangent)
			rtB := actor.Cross(ccp.rB, tangent)
			kTangent := bodyA.InvMass + bodyB.InvMass + bodyA.InvI*rtA*rtA + bodyB.InvI*rtB*rtB
			ccp.tangentMass = safeInverse(kTangent)

			// ========== Restitution bias ==========
			ccp.velocityBias = 0.0
			vRel := c.normal.Dot(relativeVelocity(bodyA, bodyB, ccp.rA, ccp.rB))
			if vRel < -velocityThreshold {
				ccp.velocityBias = -c.restitution * vRel
			}
		}
	}
}

// InitVelocityConstraints applies the warm starting impulses, or clears them when
// warm starting is disabled
func (cs *ContactSolver) InitVelocityConstraints() {
	for i := range cs.constraints {
		c := &cs.constraints[i]
		tangent := actor.CrossVS(c.normal, 1.0)

		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]
			if !cs.step.WarmStarting {
				ccp.normalImpulse = 0.0
				ccp.tangentImpulse = 0.0
				continue
			}

			P := c.normal.Mul(ccp.normalImpulse).Add(tangent.Mul(ccp.tangentImpulse))
			applyImpulse(c.bodyA, c.bodyB, P, ccp.rA, ccp.rB)
		}
	}
}

// SolveVelocityConstraints runs one iteration over every contact. Normal impulses are
// solved first so friction is clamped by an up to date normal impulse.
func (cs *ContactSolver) SolveVelocityConstraints() {
	for i := range cs.constraints {
		c := &cs.constraints[i]
		bodyA := c.bodyA
		bodyB := c.bodyB
		normal := c.normal
		tangent := actor.CrossVS(normal, 1.0)

		// ========== NORMAL IMPULSE ==========
		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]

			dv := relativeVelocity(bodyA, bodyB, ccp.rA, ccp.rB)
			vn := dv.Dot(normal)
			lambda := -ccp.normalMass * (vn - ccp.velocityBias)

			// Clamp the accumulated impulse: contacts push, never pull
			newImpulse := math.Max(ccp.normalImpulse+lambda, 0.0)
			lambda = newImpulse - ccp.normalImpulse

			applyImpulse(bodyA, bodyB, normal.Mul(lambda), ccp.rA, ccp.rB)
			ccp.normalImpulse = newImpulse
		}

		// ========== TANGENTIAL IMPULSE (friction) ==========
		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]

			dv := relativeVelocity(bodyA, bodyB, ccp.rA, ccp.rB)
			vt := dv.Dot(tangent)
			lambda := ccp.tangentMass * -vt

			// Coulomb's law: |F_friction| ≤ μ * |F_normal|
			maxFriction := c.friction * ccp.normalImpulse
			newImpulse := actor.Clamp(ccp.tangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - ccp.tangentImpulse

			applyImpulse(bodyA, bodyB, tangent.Mul(lambda), ccp.rA, ccp.rB)
			ccp.tangentImpulse = newImpulse
		}
	}
}

// FinalizeVelocityConstraints stores the accumulated impulses in the manifolds for
// warm starting the next step
func (cs *ContactSolver) FinalizeVelocityConstraints() {
	for i := range cs.constraints {
		c := &cs.constraints[i]
		for j := 0; j < c.pointCount; j++ {
			c.manifold.Points[j].NormalImpulse = c.points[j].normalImpulse
			c.manifold.Points[j].TangentImpulse = c.points[j].tangentImpulse
		}
	}
}

// SolvePositionConstraints pushes penetrating bodies apart by moving their sweeps.
// It reports whether the deepest penetration is within tolerance.
func (cs *ContactSolver) SolvePositionConstraints(baumgarte float64) bool {
	linearSlop := cs.step.Settings.Collision.LinearSlop
	maxLinearCorrection := cs.step.Settings.Solver.MaxLinearCorrection

	minSeparation := 0.0

	for i := range cs.constraints {
		c := &cs.constraints[i]
		bodyA := c.bodyA
		bodyB := c.bodyB
		normal := c.normal

		// Equalized masses: 1 for dynamic bodies, 0 for static ones
		invMassA := bodyA.Mass * bodyA.InvMass
		invIA := bodyA.Mass * bodyA.InvI
		invMassB := bodyB.Mass * bodyB.InvMass
		invIB := bodyB.Mass * bodyB.InvI

		for j := 0; j < c.pointCount; j++ {
			ccp := &c.points[j]

			rA := bodyA.Transform.Rotate(ccp.localAnchorA)
			rB := bodyB.Transform.Rotate(ccp.localAnchorB)

			pA := bodyA.Sweep.C.Add(rA)
			pB := bodyB.Sweep.C.Add(rB)

			// Current separation
			separation := pB.Sub(pA).Dot(normal) + ccp.separation
			minSeparation = math.Min(minSeparation, separation)

			// Prevent large corrections and allow slop
			C := baumgarte * actor.Clamp(separation+linearSlop, -maxLinearCorrection, 0.0)

			// Compute normal impulse
			dImpulse := -ccp.equalizedMass * C

			// Clamp the accumulated impulse
			impulse0 := ccp.positionImpulse
			ccp.positionImpulse = math.Max(impulse0+dImpulse, 0.0)
			dImpulse = ccp.positionImpulse - impulse0

			impulse := normal.Mul(dImpulse)

			bodyA.Sweep.C = bodyA.Sweep.C.Sub(impulse.Mul(invMassA))
			bodyA.Sweep.A -= invIA * actor.Cross(rA, impulse)
			bodyA.SynchronizeTransform()

			bodyB.Sweep.C = bodyB.Sweep.C.Add(impulse.Mul(invMassB))
			bodyB.Sweep.A += invIB * actor.Cross(rB, impulse)
			bodyB.SynchronizeTransform()
		}
	}

	// We can't expect minSeparation >= -linearSlop because we don't
	// push the separation above -linearSlop.
	return minSeparation >= -1.5*linearSlop
}

func safeInverse(k float64) float64 {
	if k > actor.Epsilon {
		return 1.0 / k
	}
	return 0.0
}
