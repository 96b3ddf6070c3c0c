package feather2d

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/config"
	"github.com/akmonengine/feather2d/constraint"
	"github.com/akmonengine/feather2d/gjk"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

// ErrInvalidWorld is wrapped by every error returned from World.Validate
var ErrInvalidWorld = errors.New("invalid world")

// World owns the bodies, shapes, joints and contacts, and steps the simulation.
// It is not safe for concurrent use.
type World struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity mgl64.Vec2

	// Solver switches, read at the start of each step
	WarmStarting       bool
	PositionCorrection bool
	ContinuousPhysics  bool
	AllowSleep         bool

	Settings config.Settings
	// Workers bounds the goroutines computing the swept AABBs of moved bodies
	Workers int
	Logger  *log.Logger

	Events Events

	DestructionListener DestructionListener
	BoundaryListener    BoundaryListener
	ContactListener     ContactListener
	ContactFilter       ContactFilter

	broadPhase     *BroadPhase
	contactManager ContactManager

	bodyList   *Body
	bodyCount  int
	jointList  *Joint
	jointCount int

	locked    bool
	newShapes bool
	invDt0    float64

	positionIterationCount int
	postStep               []func()

	// Scratch state reused by every step
	island Island
	stack  []*Body
	queue  []*Body
	moved  []*Body
}

// NewWorld creates an empty world. Shapes must stay inside worldAABB: a body leaving it
// is frozen until it comes back. It panics if the settings are invalid.
func NewWorld(worldAABB actor.AABB, gravity mgl64.Vec2, settings config.Settings) *World {
	if err := settings.Validate(); err != nil {
		panic(fmt.Sprintf("feather2d: %v", err))
	}
	assert(worldAABB.IsValid(), "invalid world bounds")

	w := &World{
		Gravity:            gravity,
		WarmStarting:       true,
		PositionCorrection: true,
		ContinuousPhysics:  true,
		AllowSleep:         true,
		Settings:           settings,
		Workers:            DEFAULT_WORKERS,
		Logger:             log.Default(),
		Events:             NewEvents(),
		ContactFilter:      DefaultContactFilter{},
	}
	w.contactManager.world = w
	w.broadPhase = NewBroadPhase(worldAABB, settings.Collision, &w.contactManager)

	return w
}

// ============================================================================
// Step
// ============================================================================

// Step advances the simulation by dt. A dt of 0 only refreshes the contacts.
func (w *World) Step(dt float64, velocityIterations, positionIterations int) {
	assert(!w.locked, "Step called while the world is locked")
	w.Workers = max(DEFAULT_WORKERS, w.Workers)

	// Contacts of the shapes created since the last step
	if w.newShapes {
		w.broadPhase.Commit()
		w.newShapes = false
	}

	w.locked = true

	step := constraint.TimeStep{
		Dt:                 dt,
		VelocityIterations: velocityIterations,
		PositionIterations: positionIterations,
		WarmStarting:       w.WarmStarting,
		PositionCorrection: w.PositionCorrection,
		Settings:           &w.Settings,
	}
	if dt > 0 {
		step.InvDt = 1.0 / dt
	}
	step.DtRatio = w.invDt0 * dt

	// Phase 1: narrow phase, refresh the manifolds
	w.contactManager.Collide()

	// Phase 2: islands, integration and solver, then broad-phase update
	if dt > 0 {
		w.solve(step)
	} else {
		w.broadPhase.Commit()
	}

	// Phase 3: continuous collision
	if w.ContinuousPhysics && dt > 0 {
		w.solveTOI(step)
	}

	w.invDt0 = step.InvDt
	w.locked = false

	w.Events.processSleepEvents(w.bodyList)
	w.Events.flush()

	for i := 0; i < len(w.postStep); i++ {
		w.postStep[i]()
	}
	clear(w.postStep)
	w.postStep = w.postStep[:0]
}

// solve builds the islands of awake bodies with a depth first search over the contact
// and joint graph, and solves each of them
func (w *World) solve(step constraint.TimeStep) {
	w.positionIterationCount = 0

	for b := w.bodyList; b != nil; b = b.next {
		b.islandFlag = false
	}
	for c := w.contactManager.contactList; c != nil; c = c.next {
		c.islandFlag = false
	}
	for j := w.jointList; j != nil; j = j.next {
		j.islandFlag = false
	}

	island := &w.island
	for seed := w.bodyList; seed != nil; seed = seed.next {
		if seed.islandFlag || !seed.isAwake() {
			continue
		}

		island.clear()
		w.stack = append(w.stack[:0], seed)
		seed.islandFlag = true

		for len(w.stack) > 0 {
			b := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]
			island.addBody(b)

			// Touching an awake body wakes a sleeping one
			b.sleeping = false

			// Static bodies do not propagate islands
			if b.IsStatic() {
				continue
			}

			for ce := b.contactList; ce != nil; ce = ce.next {
				c := ce.Contact
				if c.islandFlag || c.nonSolid || c.manifold.PointCount == 0 {
					continue
				}
				island.addContact(c)
				c.islandFlag = true

				if other := ce.Other; !other.islandFlag {
					w.stack = append(w.stack, other)
					other.islandFlag = true
				}
			}

			for je := b.jointList; je != nil; je = je.next {
				j := je.Joint
				if j.islandFlag {
					continue
				}
				island.addJoint(j)
				j.islandFlag = true

				for _, other := range j.bodies {
					if other.islandFlag {
						continue
					}
					w.stack = append(w.stack, other)
					other.islandFlag = true
				}
			}
		}

		island.Solve(step, w.Gravity, w.AllowSleep)
		w.positionIterationCount = max(w.positionIterationCount, island.positionIterationCount)

		// Static bodies may be part of several islands
		for _, b := range island.bodies {
			if b.IsStatic() {
				b.islandFlag = false
			}
		}
	}
	clear(w.stack)
	island.clear()

	// Synchronize the shapes of the bodies that were simulated
	w.moved = w.moved[:0]
	for b := w.bodyList; b != nil; b = b.next {
		if !b.islandFlag || b.IsStatic() {
			continue
		}
		w.moved = append(w.moved, b)
	}

	task(w.Workers, w.moved, (*Body).computeSweptAABBs)
	for _, b := range w.moved {
		w.synchronizeBody(b)
	}
	clear(w.moved)

	w.broadPhase.Commit()
}

// solveTOI finds the earliest time of impact among the fast contacts, moves the bodies
// involved back to it and solves the rest of the step from there, until no impact
// remains
func (w *World) solveTOI(step constraint.TimeStep) {
	settings := &w.Settings
	island := &w.island

	for b := w.bodyList; b != nil; b = b.next {
		b.islandFlag = false
		b.Sweep.T0 = 0
	}
	for c := w.contactManager.contactList; c != nil; c = c.next {
		c.islandFlag = false
		c.toiFlag = false
	}
	for j := w.jointList; j != nil; j = j.next {
		j.islandFlag = false
	}

	for iteration := 0; ; iteration++ {
		if iteration >= settings.TOI.MaxIterations {
			w.Logger.Warn("time of impact iterations exhausted", "iterations", iteration)
			break
		}

		// ========== EARLIEST IMPACT ==========
		var minContact *Contact
		minTOI := 1.0

		for c := w.contactManager.contactList; c != nil; c = c.next {
			if c.slow || c.nonSolid {
				continue
			}

			toi := 1.0
			if c.toiFlag {
				toi = c.toi
			} else {
				bodyA := c.shapeA.body
				bodyB := c.shapeB.body
				if !bodyA.isAwake() && !bodyB.isAwake() {
					continue
				}

				// Both sweeps start at the same time
				t0 := bodyA.Sweep.T0
				if bodyA.Sweep.T0 < bodyB.Sweep.T0 {
					t0 = bodyB.Sweep.T0
					bodyA.Sweep.Advance(t0)
				} else if bodyB.Sweep.T0 < bodyA.Sweep.T0 {
					bodyB.Sweep.Advance(t0)
				}

				toi = gjk.TimeOfImpact(c.shapeA.Geometry, bodyA.Sweep, c.shapeB.Geometry, bodyB.Sweep, settings.Collision.TOISlop)
				if 0 < toi && toi < 1 {
					toi = math.Min(t0+(1-t0)*toi, 1)
				}

				c.toi = toi
				c.toiFlag = true
			}

			if actor.Epsilon < toi && toi < minTOI {
				minContact = c
				minTOI = toi
			}
		}

		if minContact == nil || 1-100*actor.Epsilon < minTOI {
			break
		}

		// ========== ADVANCE ==========
		bodyA := minContact.shapeA.body
		bodyB := minContact.shapeB.body
		backupA := bodyA.Sweep
		backupB := bodyB.Sweep

		bodyA.Advance(minTOI)
		bodyB.Advance(minTOI)

		wasTouching := minContact.touching
		minContact.update(w.ContactListener)
		if wasTouching != minContact.touching {
			w.Events.recordContact(minContact, wasTouching)
		}
		minContact.toiFlag = false

		if minContact.manifold.PointCount == 0 {
			bodyA.Sweep = backupA
			bodyB.Sweep = backupB
			bodyA.SynchronizeTransform()
			bodyB.SynchronizeTransform()

			// Not an impact after all, skip it for the rest of the step
			minContact.toi = 1
			minContact.toiFlag = true
			continue
		}

		// ========== TOI ISLAND ==========
		seed := bodyA
		if seed.IsStatic() {
			seed = bodyB
		}
		w.buildTOIIsland(seed, minTOI)

		// ========== SUB-STEP ==========
		subStep := constraint.TimeStep{
			Dt:                 (1.0 - minTOI) * step.Dt,
			DtRatio:            1.0,
			VelocityIterations: step.VelocityIterations,
			PositionIterations: step.PositionIterations,
			WarmStarting:       false,
			PositionCorrection: true,
			Settings:           step.Settings,
		}
		if subStep.Dt > 0 {
			subStep.InvDt = 1.0 / subStep.Dt
		}
		island.SolveTOI(subStep)

		// ========== CLEANUP ==========
		for _, b := range island.bodies {
			b.islandFlag = false
			if b.IsStatic() {
				continue
			}
			// Their impacts must be computed again
			for ce := b.contactList; ce != nil; ce = ce.next {
				ce.Contact.toiFlag = false
			}
		}
		for _, c := range island.contacts {
			c.islandFlag = false
		}
		for _, j := range island.joints {
			j.islandFlag = false
		}

		for _, b := range island.bodies {
			if b.IsStatic() {
				continue
			}
			b.computeSweptAABBs()
			w.synchronizeBody(b)
		}

		w.broadPhase.Commit()
	}

	clear(w.queue)
	island.clear()
}

// buildTOIIsland gathers the bodies, contacts and joints reached from seed into the
// island, advancing every dynamic body it meets to toi. Static bodies end the search,
// and contacts between two dynamic bodies that are not bullets are left out.
func (w *World) buildTOIIsland(seed *Body, toi float64) {
	settings := &w.Settings
	island := &w.island

	island.clear()
	w.queue = append(w.queue[:0], seed)
	seed.islandFlag = true

	for head := 0; head < len(w.queue); head++ {
		b := w.queue[head]
		island.addBody(b)
		b.sleeping = false

		if b.IsStatic() {
			continue
		}

		for ce := b.contactList; ce != nil; ce = ce.next {
			if len(island.contacts) == settings.TOI.MaxContactsPerIsland {
				break
			}

			c := ce.Contact
			if c.islandFlag || c.nonSolid || c.slow || c.manifold.PointCount == 0 {
				continue
			}
			island.addContact(c)
			c.islandFlag = true

			other := ce.Other
			if other.islandFlag {
				continue
			}
			if !other.IsStatic() {
				other.Advance(toi)
				other.WakeUp()
			}
			other.islandFlag = true
			w.queue = append(w.queue, other)
		}

		for je := b.jointList; je != nil; je = je.next {
			if len(island.joints) == settings.TOI.MaxJointsPerIsland {
				break
			}

			j := je.Joint
			if j.islandFlag {
				continue
			}
			island.addJoint(j)
			j.islandFlag = true

			for _, other := range j.bodies {
				if other.islandFlag {
					continue
				}
				if !other.IsStatic() {
					other.Advance(toi)
					other.WakeUp()
				}
				other.islandFlag = true
				w.queue = append(w.queue, other)
			}
		}
	}
}

// synchronizeBody moves the proxies of the body to the swept AABBs stored in its shapes.
// A body with a shape out of the world bounds is frozen, and thawed once all its
// shapes are back.
func (w *World) synchronizeBody(b *Body) {
	inRange := true
	for s := b.shapeList; s != nil; s = s.next {
		if !w.broadPhase.InRange(s.aabb) {
			inRange = false
			break
		}
	}

	if b.frozen {
		if inRange {
			w.thawBody(b)
		}
		return
	}

	if !inRange {
		w.freezeBody(b)
		return
	}

	for s := b.shapeList; s != nil; s = s.next {
		w.broadPhase.MoveProxy(s.proxyID, s.aabb)
	}
}

func (w *World) freezeBody(b *Body) {
	for s := b.shapeList; s != nil; s = s.next {
		s.destroyProxy(w.broadPhase)
	}
	b.frozen = true
	w.Logger.Debug("body left the world bounds", "position", b.GetPosition())

	if w.BoundaryListener != nil {
		w.BoundaryListener.Violation(b)
	}
}

func (w *World) thawBody(b *Body) {
	for s := b.shapeList; s != nil; s = s.next {
		s.createProxy(w.broadPhase, s.aabb)
	}
	b.frozen = false
	w.Logger.Debug("body back in the world bounds", "position", b.GetPosition())
}

// ============================================================================
// Bodies and shapes
// ============================================================================

// CreateBody adds a static body to the world. Give it shapes, then call
// SetMassFromShapes to make it dynamic.
func (w *World) CreateBody(def BodyDef) *Body {
	assert(!w.locked, "CreateBody called while the world is locked")

	b := newBody(def, w)
	b.next = w.bodyList
	if w.bodyList != nil {
		w.bodyList.prev = b
	}
	w.bodyList = b
	w.bodyCount++

	w.Logger.Debug("body created", "position", def.Position, "bodies", w.bodyCount)
	return b
}

// DestroyBody removes the body with its joints, shapes and contacts. The destruction
// listener is told about every joint and shape destroyed on the way.
func (w *World) DestroyBody(b *Body) {
	assert(!w.locked, "DestroyBody called while the world is locked")
	assert(b.world == w, "body destroyed in another world")

	for b.jointList != nil {
		j := b.jointList.Joint
		if j.owner != nil {
			j = j.owner
		}
		if w.DestructionListener != nil {
			w.DestructionListener.SayGoodbyeJoint(j)
		}
		w.destroyJoint(j)
	}

	for s := b.shapeList; s != nil; {
		next := s.next
		if w.DestructionListener != nil {
			w.DestructionListener.SayGoodbyeShape(s)
		}
		s.destroyProxy(w.broadPhase)
		s.body = nil
		s.next = nil
		s = next
	}
	b.shapeList = nil
	b.shapeCount = 0

	if b.prev != nil {
		b.prev.next = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	if b == w.bodyList {
		w.bodyList = b.next
	}
	b.prev = nil
	b.next = nil
	w.bodyCount--

	w.Events.forget(b)
	b.world = nil

	w.Logger.Debug("body destroyed", "bodies", w.bodyCount)
}

// CreateShape attaches a shape to the body. Its contacts are created at the next step.
// The mass of the body is left unchanged until SetMassFromShapes.
func (w *World) CreateShape(b *Body, def ShapeDef) *Shape {
	assert(!w.locked, "CreateShape called while the world is locked")
	assert(b.world == w, "shape created on a body of another world")
	assert(def.Geometry != nil, "shape created without geometry")

	s := newShape(b, def)
	s.next = b.shapeList
	b.shapeList = s
	b.shapeCount++

	s.Geometry.UpdateSweepRadius(b.Sweep.LocalCenter)
	s.aabb = s.ComputeAABB()

	if !b.frozen {
		if w.broadPhase.InRange(s.aabb) {
			s.createProxy(w.broadPhase, s.aabb)
			w.newShapes = true
		} else {
			w.freezeBody(b)
		}
	}

	return s
}

// DestroyShape detaches the shape from its body and destroys its contacts
func (w *World) DestroyShape(s *Shape) {
	assert(!w.locked, "DestroyShape called while the world is locked")
	b := s.body
	assert(b != nil && b.world == w, "shape destroyed in another world")

	s.destroyProxy(w.broadPhase)

	for link := &b.shapeList; *link != nil; link = &(*link).next {
		if *link == s {
			*link = s.next
			break
		}
	}
	b.shapeCount--

	s.body = nil
	s.next = nil
}

// Refilter offers again every pair of the shape to the contact filter, after its
// filter data changed
func (w *World) Refilter(s *Shape) {
	assert(!w.locked, "Refilter called while the world is locked")
	if s.proxyID == NULL_PROXY {
		return
	}
	w.broadPhase.Refilter(s.proxyID)
	w.broadPhase.Commit()
}

func (w *World) refilterBody(b *Body) {
	for s := b.shapeList; s != nil; s = s.next {
		if s.proxyID != NULL_PROXY {
			w.broadPhase.Refilter(s.proxyID)
		}
	}
	w.broadPhase.Commit()
}

// ============================================================================
// Joints
// ============================================================================

// CreateJoint adds a joint described by a DistanceJointDef or a ConstantVolumeJointDef.
// A constant volume joint also creates the distance joints holding its ring.
func (w *World) CreateJoint(def JointDef) *Joint {
	assert(!w.locked, "CreateJoint called while the world is locked")

	var j *Joint
	switch d := def.(type) {
	case DistanceJointDef:
		assert(d.BodyA != nil && d.BodyB != nil && d.BodyA != d.BodyB, "a distance joint needs two distinct bodies")
		assert(d.BodyA.world == w && d.BodyB.world == w, "joint created on bodies of another world")

		j = newDistanceJoint(d)
		w.addJoint(j)
	case *DistanceJointDef:
		return w.CreateJoint(*d)
	case ConstantVolumeJointDef:
		assert(len(d.Bodies) > 2, "a constant volume joint needs at least 3 bodies")
		for _, b := range d.Bodies {
			assert(b.world == w, "joint created on bodies of another world")
		}

		j = newConstantVolumeJoint(d)
		n := len(d.Bodies)
		for i := range n {
			bodyA := d.Bodies[i]
			bodyB := d.Bodies[(i+1)%n]
			sub := newDistanceJoint(DistanceJointDef{
				BodyA:            bodyA,
				BodyB:            bodyB,
				AnchorA:          bodyA.GetWorldCenter(),
				AnchorB:          bodyB.GetWorldCenter(),
				FrequencyHz:      d.FrequencyHz,
				DampingRatio:     d.DampingRatio,
				CollideConnected: d.CollideConnected,
			})
			sub.owner = j
			j.subJoints = append(j.subJoints, sub)
			w.addJoint(sub)
		}
		w.addJoint(j)
	case *ConstantVolumeJointDef:
		return w.CreateJoint(*d)
	default:
		panic(fmt.Sprintf("feather2d: unknown joint definition %T", def))
	}

	w.Logger.Debug("joint created", "type", j.Type, "bodies", len(j.bodies), "joints", w.jointCount)
	return j
}

// DestroyJoint removes the joint and wakes its bodies. Destroying a constant volume joint
// destroys its distance joints; they cannot be destroyed on their own.
func (w *World) DestroyJoint(j *Joint) {
	assert(!w.locked, "DestroyJoint called while the world is locked")
	assert(j.owner == nil, "a sub-joint of a constant volume joint cannot be destroyed on its own")

	w.destroyJoint(j)
}

func (w *World) destroyJoint(j *Joint) {
	for _, sub := range j.subJoints {
		w.removeJoint(sub)
	}
	w.removeJoint(j)

	w.Logger.Debug("joint destroyed", "type", j.Type, "joints", w.jointCount)
}

func (w *World) addJoint(j *Joint) {
	j.next = w.jointList
	if w.jointList != nil {
		w.jointList.prev = j
	}
	w.jointList = j
	w.jointCount++

	j.link()

	if !j.CollideConnected {
		w.refilterJoint(j)
	}
}

func (w *World) removeJoint(j *Joint) {
	if j.prev != nil {
		j.prev.next = j.next
	}
	if j.next != nil {
		j.next.prev = j.prev
	}
	if j == w.jointList {
		w.jointList = j.next
	}
	j.prev = nil
	j.next = nil
	w.jointCount--

	j.unlink()

	for _, b := range j.bodies {
		b.WakeUp()
	}

	if !j.CollideConnected {
		w.refilterJoint(j)
	}
}

// refilterJoint offers again the pairs between the bodies of a joint that disables
// their collisions. Refiltering one side of a pair is enough.
func (w *World) refilterJoint(j *Joint) {
	if len(j.bodies) == 2 {
		b := j.bodies[0]
		if j.bodies[1].shapeCount < b.shapeCount {
			b = j.bodies[1]
		}
		w.refilterBody(b)
		return
	}

	for _, b := range j.bodies {
		w.refilterBody(b)
	}
}

// ============================================================================
// Queries
// ============================================================================

// Query returns at most maxCount shapes whose fat AABB overlaps aabb
func (w *World) Query(aabb actor.AABB, maxCount int) []*Shape {
	return w.broadPhase.Query(aabb, maxCount)
}

// Raycast returns at most maxCount shapes hit by the segment, the closest first.
// With solidShapes, a segment starting inside a shape hits it at lambda 0. userData is
// passed to ContactFilter.RayCollide.
func (w *World) Raycast(segment actor.Segment, maxCount int, solidShapes bool, userData any) []*Shape {
	sortKey := func(s *Shape) float64 {
		if w.ContactFilter != nil && !w.ContactFilter.RayCollide(userData, s) {
			return -1
		}

		collide, lambda, _ := s.TestSegment(segment, 1)
		if solidShapes && collide == actor.SegmentMiss {
			return -1
		}
		if !solidShapes && collide != actor.SegmentHit {
			return -1
		}
		return lambda
	}

	return w.broadPhase.QuerySegment(segment, sortKey, maxCount)
}

// RaycastOne returns the closest shape hit by the segment, with the hit fraction and
// the surface normal. The shape is nil when nothing is hit.
func (w *World) RaycastOne(segment actor.Segment, solidShapes bool, userData any) (*Shape, float64, mgl64.Vec2) {
	shapes := w.Raycast(segment, 1, solidShapes, userData)
	if len(shapes) == 0 {
		return nil, 0, mgl64.Vec2{}
	}

	_, lambda, normal := shapes[0].TestSegment(segment, 1)
	return shapes[0], lambda, normal
}

// TestOverlap reports whether two shapes overlap at the current body transforms
func (w *World) TestOverlap(shapeA, shapeB *Shape) bool {
	return gjk.Overlap(shapeA.Geometry, shapeA.body.Transform, shapeB.Geometry, shapeB.body.Transform)
}

// ============================================================================
// Accessors
// ============================================================================

// AddPostStepCallback registers fn to run once, after the current or next step, when the
// world is unlocked. Callbacks run in the order they were added.
func (w *World) AddPostStepCallback(fn func()) {
	w.postStep = append(w.postStep, fn)
}

func (w *World) BodyCount() int { return w.bodyCount }

func (w *World) ContactCount() int { return w.contactManager.contactCount }

func (w *World) JointCount() int { return w.jointCount }

func (w *World) GetBodyList() *Body { return w.bodyList }

func (w *World) GetContactList() *Contact { return w.contactManager.contactList }

func (w *World) GetJointList() *Joint { return w.jointList }

// PositionIterationCount is the largest number of position iterations an island needed
// during the last step
func (w *World) PositionIterationCount() int { return w.positionIterationCount }

func (w *World) IsLocked() bool { return w.locked }

func (w *World) GetBroadPhase() *BroadPhase { return w.broadPhase }

// ============================================================================
// Validation
// ============================================================================

// Validate checks the body, contact and joint lists against their counts and the edges
// of the graph, then the broad-phase
func (w *World) Validate() error {
	bodies := 0
	for b := w.bodyList; b != nil; b = b.next {
		bodies++
		if b.world != w {
			return fmt.Errorf("%w: body %d belongs to another world", ErrInvalidWorld, bodies)
		}

		shapes := 0
		for s := b.shapeList; s != nil; s = s.next {
			shapes++
			if s.body != b {
				return fmt.Errorf("%w: shape of body %d points to another body", ErrInvalidWorld, bodies)
			}
			if b.frozen != (s.proxyID == NULL_PROXY) {
				return fmt.Errorf("%w: shape proxy of body %d does not match its frozen state", ErrInvalidWorld, bodies)
			}
		}
		if shapes != b.shapeCount {
			return fmt.Errorf("%w: body %d has %d shapes, counted %d", ErrInvalidWorld, bodies, b.shapeCount, shapes)
		}

		for ce := b.contactList; ce != nil; ce = ce.next {
			c := ce.Contact
			switch {
			case ce == &c.nodeA && c.shapeA.body == b && ce.Other == c.shapeB.body:
			case ce == &c.nodeB && c.shapeB.body == b && ce.Other == c.shapeA.body:
			default:
				return fmt.Errorf("%w: contact edge of body %d is inconsistent", ErrInvalidWorld, bodies)
			}
		}

		for je := b.jointList; je != nil; je = je.next {
			if je.Joint == nil || !je.Joint.hasBody(b) || !je.Joint.hasBody(je.Other) {
				return fmt.Errorf("%w: joint edge of body %d is inconsistent", ErrInvalidWorld, bodies)
			}
		}
	}
	if bodies != w.bodyCount {
		return fmt.Errorf("%w: %d bodies, counted %d", ErrInvalidWorld, w.bodyCount, bodies)
	}

	contacts := 0
	for c := w.contactManager.contactList; c != nil; c = c.next {
		contacts++
		if !hasContactEdge(c.shapeA.body.contactList, &c.nodeA) || !hasContactEdge(c.shapeB.body.contactList, &c.nodeB) {
			return fmt.Errorf("%w: contact %d is missing from the contact list of its bodies", ErrInvalidWorld, contacts)
		}
	}
	if contacts != w.contactManager.contactCount {
		return fmt.Errorf("%w: %d contacts, counted %d", ErrInvalidWorld, w.contactManager.contactCount, contacts)
	}

	joints := 0
	for j := w.jointList; j != nil; j = j.next {
		joints++
		for i, b := range j.bodies {
			if !hasJointEdge(b.jointList, &j.edges[i]) {
				return fmt.Errorf("%w: joint %d is missing from the joint list of its bodies", ErrInvalidWorld, joints)
			}
		}
	}
	if joints != w.jointCount {
		return fmt.Errorf("%w: %d joints, counted %d", ErrInvalidWorld, w.jointCount, joints)
	}

	if err := w.broadPhase.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorld, err)
	}

	return nil
}

func hasContactEdge(list, edge *ContactEdge) bool {
	for ce := list; ce != nil; ce = ce.next {
		if ce == edge {
			return true
		}
	}
	return false
}

func hasJointEdge(list, edge *JointEdge) bool {
	for je := list; je != nil; je = je.next {
		if je == edge {
			return true
		}
	}
	return false
}

// assert panics on a violated precondition
func assert(cond bool, msg string) {
	if !cond {
		panic("feather2d: " + msg)
	}
}
