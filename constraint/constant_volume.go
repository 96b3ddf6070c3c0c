package constraint

import (
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ConstantVolumeJoint keeps the area of the polygon spanned by the centers of its bodies
// constant. The bodies must wind counter-clockwise. The edges of the ring are held by
// distance joints owned by the caller.
type ConstantVolumeJoint struct {
	Bodies       []*actor.RigidBody
	TargetArea   float64
	FrequencyHz  float64
	DampingRatio float64

	normals []mgl64.Vec2
	d       []mgl64.Vec2
	impulse float64
}

// NewConstantVolumeJoint records the current area of the ring as the target
func NewConstantVolumeJoint(bodies []*actor.RigidBody) *ConstantVolumeJoint {
	if len(bodies) <= 2 {
		panic("constraint: a constant volume joint needs at least 3 bodies")
	}

	j := &ConstantVolumeJoint{
		Bodies:  bodies,
		normals: make([]mgl64.Vec2, len(bodies)),
		d:       make([]mgl64.Vec2, len(bodies)),
	}
	j.TargetArea = j.Area()

	return j
}

// Area is the signed area of the polygon through the body centers
func (j *ConstantVolumeJoint) Area() float64 {
	area := 0.0
	count := len(j.Bodies)
	for i := 0; i < count; i++ {
		next := (i + 1) % count
		area += actor.Cross(j.Bodies[i].Sweep.C, j.Bodies[next].Sweep.C)
	}
	return 0.5 * area
}

func (j *ConstantVolumeJoint) Impulse() float64 { return j.impulse }

// constrainEdges pushes every vertex outward along its adjacent edge normals so the
// area moves back to the target.
func (j *ConstantVolumeJoint) constrainEdges(step TimeStep) bool {
	linearSlop := step.Settings.Collision.LinearSlop
	maxLinearCorrection := step.Settings.Solver.MaxLinearCorrection
	count := len(j.Bodies)

	perimeter := 0.0
	for i := 0; i < count; i++ {
		next := (i + 1) % count
		d := j.Bodies[next].Sweep.C.Sub(j.Bodies[i].Sweep.C)
		dist := d.Len()
		if dist < actor.Epsilon {
			dist = 1.0
		}
		j.normals[i] = mgl64.Vec2{d.Y() / dist, -d.X() / dist}
		perimeter += dist
	}

	if perimeter < actor.Epsilon {
		return true
	}

	deltaArea := j.TargetArea - j.Area()
	toExtrude := 0.5 * deltaArea / perimeter

	done := true
	for i := 0; i < count; i++ {
		next := (i + 1) % count

		// Vertex next is shared by edges i and next
		delta := j.normals[i].Add(j.normals[next]).Mul(toExtrude)
		norm := delta.Len()
		if norm > maxLinearCorrection {
			delta = delta.Mul(maxLinearCorrection / norm)
		}
		if norm > linearSlop {
			done = false
		}

		body := j.Bodies[next]
		if body.IsStatic() {
			continue
		}
		body.Sweep.C = body.Sweep.C.Add(delta)
		body.SynchronizeTransform()
	}

	return done
}

func (j *ConstantVolumeJoint) InitVelocityConstraints(step TimeStep) {
	count := len(j.Bodies)
	for i := 0; i < count; i++ {
		prev := (i + count - 1) % count
		next := (i + 1) % count
		j.d[i] = j.Bodies[next].Sweep.C.Sub(j.Bodies[prev].Sweep.C)
	}

	if !step.WarmStarting {
		j.impulse = 0.0
		return
	}

	j.impulse *= step.DtRatio
	j.applyAreaImpulse(j.impulse)
}

// SolveVelocityConstraints drives the rate of change of the area to zero
func (j *ConstantVolumeJoint) SolveVelocityConstraints(step TimeStep) {
	crossMassSum := 0.0
	dotMassSum := 0.0

	for i, body := range j.Bodies {
		dotMassSum += j.d[i].Dot(j.d[i]) * body.InvMass
		crossMassSum += actor.Cross(body.LinearVelocity, j.d[i])
	}

	if dotMassSum < actor.Epsilon {
		return
	}

	lambda := -2.0 * crossMassSum / dotMassSum
	j.impulse += lambda
	j.applyAreaImpulse(lambda)
}

func (j *ConstantVolumeJoint) SolvePositionConstraints(step TimeStep) bool {
	return j.constrainEdges(step)
}

func (j *ConstantVolumeJoint) applyAreaImpulse(lambda float64) {
	for i, body := range j.Bodies {
		dv := actor.CrossVS(j.d[i], 0.5*lambda*body.InvMass)
		body.LinearVelocity = body.LinearVelocity.Add(dv)
	}
}

// AreaError is the relative deviation of the current area from the target
func (j *ConstantVolumeJoint) AreaError() float64 {
	if math.Abs(j.TargetArea) < actor.Epsilon {
		return 0
	}
	return math.Abs(j.Area()-j.TargetArea) / math.Abs(j.TargetArea)
}
