package feather2d

import (
	"math"

	"github.com/akmonengine/feather2d/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Island is a connected group of awake bodies with the contacts and joints between
// them. Its slices are reused from one island to the next.
type Island struct {
	bodies   []*Body
	contacts []*Contact
	joints   []*Joint

	inputs []constraint.ContactInput
	solver constraint.ContactSolver

	positionIterationCount int
}

func (is *Island) clear() {
	clear(is.bodies)
	clear(is.contacts)
	clear(is.joints)
	is.bodies = is.bodies[:0]
	is.contacts = is.contacts[:0]
	is.joints = is.joints[:0]
}

func (is *Island) addBody(b *Body) { is.bodies = append(is.bodies, b) }

func (is *Island) addContact(c *Contact) { is.contacts = append(is.contacts, c) }

func (is *Island) addJoint(j *Joint) { is.joints = append(is.joints, j) }

func (is *Island) initSolver(step constraint.TimeStep) {
	is.inputs = is.inputs[:0]
	for _, c := range is.contacts {
		is.inputs = append(is.inputs, c.solverInput())
	}
	is.solver.Init(step, is.inputs)
	is.solver.InitVelocityConstraints()

	for _, j := range is.joints {
		j.constraint.InitVelocityConstraints(step)
	}
}

func (is *Island) solveVelocities(step constraint.TimeStep) {
	for range step.VelocityIterations {
		is.solver.SolveVelocityConstraints()
		for _, j := range is.joints {
			j.constraint.SolveVelocityConstraints(step)
		}
	}
}

// solvePositions runs the position iterations until every constraint is within
// tolerance. It returns the number of iterations that were needed.
func (is *Island) solvePositions(step constraint.TimeStep, baumgarte float64) int {
	for i := range step.PositionIterations {
		contactsOkay := is.solver.SolvePositionConstraints(baumgarte)

		jointsOkay := true
		for _, j := range is.joints {
			jointOkay := j.constraint.SolvePositionConstraints(step)
			jointsOkay = jointsOkay && jointOkay
		}

		if contactsOkay && jointsOkay {
			return i
		}
	}
	return step.PositionIterations
}

// Solve integrates and solves the island over a full step, then puts it to sleep when
// every body has been resting long enough
func (is *Island) Solve(step constraint.TimeStep, gravity mgl64.Vec2, allowSleep bool) {
	settings := step.Settings

	// ========== VELOCITY INTEGRATION ==========
	for _, b := range is.bodies {
		if b.IsStatic() {
			continue
		}
		b.IntegrateVelocity(step.Dt, gravity, settings.Solver.MaxLinearVelocity, settings.Solver.MaxAngularVelocity)
	}

	// ========== VELOCITY CONSTRAINTS ==========
	is.initSolver(step)
	is.solveVelocities(step)

	// Impulses are stored back for warm starting
	is.solver.FinalizeVelocityConstraints()

	// ========== POSITION INTEGRATION ==========
	for _, b := range is.bodies {
		if b.IsStatic() {
			continue
		}
		b.IntegratePosition(step.Dt)
	}

	// ========== POSITION CONSTRAINTS ==========
	is.positionIterationCount = 0
	if step.PositionCorrection {
		is.positionIterationCount = is.solvePositions(step, settings.Solver.ContactBaumgarte)
	}

	if !allowSleep {
		return
	}

	// ========== SLEEP ==========
	minSleepTime := math.MaxFloat64
	for _, b := range is.bodies {
		if b.IsStatic() {
			continue
		}

		if !b.AllowSleep {
			b.SleepTime = 0
			minSleepTime = 0
			continue
		}

		sleepTime := b.TrySleep(step.Dt, settings.Sleep.LinearSleepTolerance, settings.Sleep.AngularSleepTolerance)
		minSleepTime = math.Min(minSleepTime, sleepTime)
	}

	if minSleepTime >= settings.Sleep.TimeToSleep {
		for _, b := range is.bodies {
			if b.IsStatic() {
				continue
			}
			b.PutToSleep()
		}
	}
}

// SolveTOI resolves the island over the sub-step that follows a time of impact. Warm
// starting is off and the impulses are not stored, so the regular contacts keep theirs.
func (is *Island) SolveTOI(subStep constraint.TimeStep) {
	is.initSolver(subStep)
	is.solveVelocities(subStep)

	for _, b := range is.bodies {
		if b.IsStatic() {
			continue
		}
		b.IntegratePosition(subStep.Dt)
	}

	is.solvePositions(subStep, subStep.Settings.Solver.TOIBaumgarte)
}
