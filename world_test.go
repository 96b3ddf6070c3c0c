package feather2d

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/config"
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

const testDt = 1.0 / 60.0

// newTestWorld creates a world of 200x200 meters with a silent logger
func newTestWorld(gravity mgl64.Vec2) *World {
	return newBoundedWorld(100, gravity)
}

func newBoundedWorld(halfExtent float64, gravity mgl64.Vec2) *World {
	bounds := actor.AABB{
		Min: mgl64.Vec2{-halfExtent, -halfExtent},
		Max: mgl64.Vec2{halfExtent, halfExtent},
	}
	w := NewWorld(bounds, gravity, config.Default())
	w.Logger = log.New(io.Discard)
	return w
}

// createGround creates a static edge along the x axis
func createGround(w *World) *Body {
	ground := w.CreateBody(DefaultBodyDef())
	w.CreateShape(ground, DefaultShapeDef(actor.NewEdge(mgl64.Vec2{-40, 0}, mgl64.Vec2{40, 0})))
	return ground
}

// createBall creates a dynamic circle of density 1
func createBall(w *World, position mgl64.Vec2, radius float64) *Body {
	def := DefaultBodyDef()
	def.Position = position
	ball := w.CreateBody(def)

	shapeDef := DefaultShapeDef(actor.NewCircle(mgl64.Vec2{}, radius))
	shapeDef.Material.Density = 1
	w.CreateShape(ball, shapeDef)
	ball.SetMassFromShapes()

	return ball
}

// createBox creates a dynamic box of density 1
func createBox(w *World, position mgl64.Vec2, hx, hy float64) *Body {
	def := DefaultBodyDef()
	def.Position = position
	box := w.CreateBody(def)

	shapeDef := DefaultShapeDef(actor.NewBox(hx, hy))
	shapeDef.Material.Density = 1
	w.CreateShape(box, shapeDef)
	box.SetMassFromShapes()

	return box
}

func stepWorld(w *World, steps int) {
	for range steps {
		w.Step(testDt, 10, 8)
	}
}

func assertPanics(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	fn()
}

// =============================================================================
// Construction
// =============================================================================

func TestNewWorld_Defaults(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})

	if !w.WarmStarting || !w.PositionCorrection || !w.ContinuousPhysics || !w.AllowSleep {
		t.Error("NewWorld should enable warm starting, position correction, continuous physics and sleep")
	}
	if w.Workers != DEFAULT_WORKERS {
		t.Errorf("Workers = %d, want %d", w.Workers, DEFAULT_WORKERS)
	}
	if w.BodyCount() != 0 || w.ContactCount() != 0 || w.JointCount() != 0 {
		t.Error("A new world should be empty")
	}
	if w.IsLocked() {
		t.Error("A new world should not be locked")
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestNewWorld_InvalidSettings(t *testing.T) {
	settings := config.Default()
	settings.Collision.LinearSlop = 0

	assertPanics(t, "NewWorld", func() {
		NewWorld(actor.AABB{Max: mgl64.Vec2{10, 10}}, mgl64.Vec2{}, settings)
	})
}

// =============================================================================
// Step
// =============================================================================

func TestWorld_FreeFall(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	ball := createBall(w, mgl64.Vec2{0, 10}, 1)

	// Semi-implicit Euler: velocity first, then position
	vy, y := 0.0, 10.0
	for range 60 {
		w.Step(testDt, 10, 8)

		vy += -10 * testDt
		y += vy * testDt
	}

	position := ball.GetPosition()
	if math.Abs(position.Y()-y) > 1e-9 || position.X() != 0 {
		t.Errorf("position = %v, want (0, %v)", position, y)
	}
	if math.Abs(ball.LinearVelocity.Y()-vy) > 1e-9 {
		t.Errorf("velocity = %v, want (0, %v)", ball.LinearVelocity, vy)
	}
	if w.ContactCount() != 0 {
		t.Errorf("ContactCount() = %d, want 0", w.ContactCount())
	}
}

func TestWorld_StepZeroDt(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	ball := createBall(w, mgl64.Vec2{0, 0.49}, 0.5)

	w.Step(0, 10, 8)

	if ball.GetPosition() != (mgl64.Vec2{0, 0.49}) {
		t.Errorf("position = %v, want unchanged", ball.GetPosition())
	}
	if ball.LinearVelocity != (mgl64.Vec2{}) {
		t.Errorf("velocity = %v, want zero", ball.LinearVelocity)
	}
	if w.ContactCount() != 1 {
		t.Fatalf("ContactCount() = %d, want 1", w.ContactCount())
	}
	if !w.GetContactList().IsTouching() {
		t.Error("The contact should be refreshed and touching")
	}
}

func TestWorld_ContactsOfNewShapesOnFirstStep(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	ground := createGround(w)
	ball := createBall(w, mgl64.Vec2{0, 0.49}, 0.5)

	w.Step(testDt, 10, 8)

	c := w.GetContactList()
	if c == nil {
		t.Fatal("The contact should exist after the first step")
	}
	if c.GetShapeA().GetBody() != ground || c.GetShapeB().GetBody() != ball {
		t.Error("The edge should be shape A and the circle shape B")
	}
	if ball.GetContactList() == nil || ball.GetContactList().Other != ground {
		t.Error("The ball contact edge should point to the ground")
	}
}

func TestWorld_LockedMutationsPanic(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	ground := createGround(w)
	ballA := createBall(w, mgl64.Vec2{-2, 5}, 0.5)
	ballB := createBall(w, mgl64.Vec2{2, 5}, 0.5)
	joint := w.CreateJoint(DistanceJointDef{
		BodyA:   ballA,
		BodyB:   ballB,
		AnchorA: ballA.GetWorldCenter(),
		AnchorB: ballB.GetWorldCenter(),
	})

	w.locked = true
	defer func() { w.locked = false }()

	tests := []struct {
		name string
		fn   func()
	}{
		{"Step", func() { w.Step(testDt, 10, 8) }},
		{"CreateBody", func() { w.CreateBody(DefaultBodyDef()) }},
		{"DestroyBody", func() { w.DestroyBody(ballA) }},
		{"CreateShape", func() { w.CreateShape(ballA, DefaultShapeDef(actor.NewCircle(mgl64.Vec2{}, 1))) }},
		{"DestroyShape", func() { w.DestroyShape(ground.GetShapeList()) }},
		{"CreateJoint", func() { w.CreateJoint(DistanceJointDef{BodyA: ballA, BodyB: ground}) }},
		{"DestroyJoint", func() { w.DestroyJoint(joint) }},
		{"SetTransform", func() { ballA.SetTransform(mgl64.Vec2{}, 0) }},
		{"SetMassFromShapes", func() { ballA.SetMassFromShapes() }},
		{"Refilter", func() { w.Refilter(ground.GetShapeList()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPanics(t, tt.name, tt.fn)
		})
	}

	if w.BodyCount() != 3 || w.JointCount() != 1 {
		t.Errorf("counts = %d bodies, %d joints, want 3 and 1", w.BodyCount(), w.JointCount())
	}
}

type recordingContactListener struct {
	added, persisted, removed int
	lockedDuringAdd           bool
	world                     *World
}

func (l *recordingContactListener) Add(point ContactPoint) {
	l.added++
	l.lockedDuringAdd = l.world.IsLocked()
}

func (l *recordingContactListener) Persist(point ContactPoint) { l.persisted++ }

func (l *recordingContactListener) Remove(point ContactPoint) { l.removed++ }

func TestWorld_ContactListener(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	listener := &recordingContactListener{world: w}
	w.ContactListener = listener

	createGround(w)
	ball := createBall(w, mgl64.Vec2{0, 0.49}, 0.5)

	w.Step(testDt, 10, 8)
	if listener.added != 1 {
		t.Errorf("added = %d, want 1", listener.added)
	}
	if !listener.lockedDuringAdd {
		t.Error("The contact listener should run while the world is locked")
	}

	w.Step(testDt, 10, 8)
	if listener.persisted == 0 {
		t.Error("The resting point should persist on the second step")
	}

	removed := listener.removed
	w.DestroyBody(ball)
	if listener.removed-removed != 1 {
		t.Errorf("removed = %d on destroy, want 1", listener.removed-removed)
	}
	if w.ContactCount() != 0 {
		t.Errorf("ContactCount() = %d, want 0", w.ContactCount())
	}
}

func TestWorld_PostStepCallbacks(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})

	var order []int
	w.AddPostStepCallback(func() {
		order = append(order, 1)
		// The world is unlocked
		w.CreateBody(DefaultBodyDef())
	})
	w.AddPostStepCallback(func() { order = append(order, 2) })
	w.AddPostStepCallback(func() { order = append(order, 3) })

	w.Step(testDt, 10, 8)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
	if w.BodyCount() != 1 {
		t.Errorf("BodyCount() = %d, want 1", w.BodyCount())
	}

	w.Step(testDt, 10, 8)
	if len(order) != 3 {
		t.Errorf("Callbacks should run once, got %v", order)
	}
}

// =============================================================================
// Solver
// =============================================================================

func TestWorld_BallRestsOnGround(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	ball := createBall(w, mgl64.Vec2{0, 2}, 0.5)

	stepWorld(w, 120)

	if y := ball.GetPosition().Y(); math.Abs(y-0.5) > 0.02 {
		t.Errorf("y = %v, want about 0.5", y)
	}
	if vy := ball.LinearVelocity.Y(); math.Abs(vy) > 0.1 {
		t.Errorf("vy = %v, want about 0", vy)
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_MomentumConserved(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{})
	ballA := createBall(w, mgl64.Vec2{-2, 0}, 0.5)
	ballB := createBall(w, mgl64.Vec2{2, 0}, 0.5)
	ballA.LinearVelocity = mgl64.Vec2{3, 0}
	ballB.LinearVelocity = mgl64.Vec2{-1, 0}

	momentum := func() mgl64.Vec2 {
		return ballA.LinearVelocity.Mul(ballA.Mass).Add(ballB.LinearVelocity.Mul(ballB.Mass))
	}
	initial := momentum()

	for i := range 120 {
		w.Step(testDt, 10, 8)
		if d := momentum().Sub(initial).Len(); d > 1e-9 {
			t.Fatalf("step %d: momentum drifted by %v", i, d)
		}
	}

	if ballA.LinearVelocity.X() > 2 {
		t.Errorf("vA = %v, the balls should have collided", ballA.LinearVelocity)
	}
}

func TestWorld_NoTunneling(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	bullet := createBall(w, mgl64.Vec2{0, 5}, 0.1)
	bullet.LinearVelocity = mgl64.Vec2{0, -150}

	stepWorld(w, 60)

	if y := bullet.GetPosition().Y(); y <= 0 {
		t.Errorf("y = %v, the ball went through the edge", y)
	}
}

func TestWorld_TimeOfImpactIterationLimit(t *testing.T) {
	tests := []struct {
		name          string
		maxIterations int
		wantWarning   bool
	}{
		{"default limit", config.Default().TOI.MaxIterations, false},
		{"single impact per step", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := config.Default()
			settings.TOI.MaxIterations = tt.maxIterations
			bounds := actor.AABB{Min: mgl64.Vec2{-100, -100}, Max: mgl64.Vec2{100, 100}}
			w := NewWorld(bounds, mgl64.Vec2{0, -10}, settings)
			var buf bytes.Buffer
			w.Logger = log.New(&buf)

			createGround(w)
			bullets := make([]*Body, 4)
			for i := range bullets {
				bullets[i] = createBall(w, mgl64.Vec2{float64(4*i - 6), 5}, 0.1)
				bullets[i].LinearVelocity = mgl64.Vec2{0, -400}
			}

			w.Step(testDt, 10, 8)

			warned := strings.Contains(buf.String(), "time of impact iterations exhausted")
			if warned != tt.wantWarning {
				t.Errorf("warning logged = %v, want %v", warned, tt.wantWarning)
			}

			stopped := 0
			for _, b := range bullets {
				if b.GetPosition().Y() > 0 {
					stopped++
				}
			}
			if tt.wantWarning {
				// The remaining impacts are left to the next step
				if stopped == 0 || stopped == len(bullets) {
					t.Errorf("%d bullets stopped, want some but not all", stopped)
				}
			} else if stopped != len(bullets) {
				t.Errorf("%d bullets stopped, want %d", stopped, len(bullets))
			}

			if err := w.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestWorld_TimeOfImpactIsland(t *testing.T) {
	tests := []struct {
		name         string
		bullet       bool
		wantBodies   int
		wantContacts int
	}{
		{"dynamic neighbour left out", false, 2, 1},
		{"bullet neighbour joins", true, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(mgl64.Vec2{0, -10})
			createGround(w)
			ballA := createBall(w, mgl64.Vec2{0, 0.49}, 0.5)
			ballB := createBall(w, mgl64.Vec2{0.98, 0.49}, 0.5)
			ballB.IsBullet = tt.bullet
			w.Step(0, 10, 8)

			if w.ContactCount() != 3 {
				t.Fatalf("ContactCount() = %d, want 3", w.ContactCount())
			}

			w.buildTOIIsland(ballA, 1)

			if len(w.island.bodies) != tt.wantBodies {
				t.Errorf("island bodies = %d, want %d", len(w.island.bodies), tt.wantBodies)
			}
			if len(w.island.contacts) != tt.wantContacts {
				t.Errorf("island contacts = %d, want %d", len(w.island.contacts), tt.wantContacts)
			}
			if ballB.islandFlag != tt.bullet {
				t.Errorf("neighbour in island = %v, want %v", ballB.islandFlag, tt.bullet)
			}
		})
	}
}

func TestWorld_StackIsStable(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)

	var boxes []*Body
	for row := range 3 {
		for col := range 3 - row {
			x := float64(col) - float64(2-row)*0.5
			y := 0.5 + float64(row)
			boxes = append(boxes, createBox(w, mgl64.Vec2{x * 1.05, y}, 0.5, 0.5))
		}
	}

	stepWorld(w, 120)

	for i, box := range boxes {
		if y := box.GetPosition().Y(); y <= 0 {
			t.Errorf("box %d at y = %v, want above the ground", i, y)
		}
	}
	if w.PositionIterationCount() > 8 {
		t.Errorf("PositionIterationCount() = %d, want at most 8", w.PositionIterationCount())
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_WorkersDoNotChangeResults(t *testing.T) {
	simulate := func(workers int) []mgl64.Vec2 {
		w := newTestWorld(mgl64.Vec2{0, -10})
		w.Workers = workers
		createGround(w)

		var bodies []*Body
		for i := range 8 {
			bodies = append(bodies, createBall(w, mgl64.Vec2{float64(i) * 0.9, 1 + float64(i%3)}, 0.5))
		}
		stepWorld(w, 90)

		positions := make([]mgl64.Vec2, len(bodies))
		for i, b := range bodies {
			positions[i] = b.GetPosition()
		}
		return positions
	}

	single := simulate(1)
	parallel := simulate(4)
	for i := range single {
		if single[i] != parallel[i] {
			t.Errorf("body %d: %v with 1 worker, %v with 4", i, single[i], parallel[i])
		}
	}
}

// =============================================================================
// Sleep
// =============================================================================

func TestWorld_Sleep(t *testing.T) {
	tests := []struct {
		name       string
		worldSleep bool
		bodySleep  bool
		wantAsleep bool
	}{
		{"sleep allowed", true, true, true},
		{"world sleep disabled", false, true, false},
		{"body sleep disabled", true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(mgl64.Vec2{0, -10})
			w.AllowSleep = tt.worldSleep
			createGround(w)
			ball := createBall(w, mgl64.Vec2{0, 0.5}, 0.5)
			ball.AllowSleep = tt.bodySleep

			stepWorld(w, 300)

			if ball.IsSleeping() != tt.wantAsleep {
				t.Errorf("IsSleeping() = %v, want %v", ball.IsSleeping(), tt.wantAsleep)
			}
		})
	}
}

func TestWorld_WakeUp(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	ball := createBall(w, mgl64.Vec2{0, 0.5}, 0.5)

	stepWorld(w, 300)
	if !ball.IsSleeping() {
		t.Fatal("The ball should be sleeping")
	}
	if ball.LinearVelocity != (mgl64.Vec2{}) || ball.AngularVelocity != 0 {
		t.Error("A sleeping body should have no velocity")
	}

	position := ball.GetPosition()
	stepWorld(w, 10)
	if ball.GetPosition() != position {
		t.Error("A sleeping body should not move")
	}

	ball.ApplyImpulse(mgl64.Vec2{0, 5}, ball.GetWorldCenter())
	if ball.IsSleeping() {
		t.Error("ApplyImpulse should wake the body")
	}

	w.Step(testDt, 10, 8)
	if ball.GetPosition().Y() <= position.Y() {
		t.Error("The woken ball should move up")
	}
}

func TestWorld_SleepingBodyJoinsIsland(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	lower := createBall(w, mgl64.Vec2{0, 0.5}, 0.5)

	stepWorld(w, 300)
	if !lower.IsSleeping() {
		t.Fatal("The lower ball should be sleeping")
	}

	upper := createBall(w, mgl64.Vec2{0, 3}, 0.5)

	hit := false
	sleepingOnHit := true
	w.Events.Subscribe(COLLISION_ENTER, func(event Event) {
		e := event.(CollisionEnterEvent)
		if (e.BodyA == lower && e.BodyB == upper) || (e.BodyA == upper && e.BodyB == lower) {
			hit = true
			sleepingOnHit = lower.IsSleeping()
		}
	})

	stepWorld(w, 60)

	if !hit {
		t.Fatal("The balls should have collided")
	}
	if sleepingOnHit {
		t.Error("The lower ball should be solved in the island of the upper ball and woken")
	}
}

func TestWorld_IslandsDoNotCrossStaticBodies(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	resting := createBall(w, mgl64.Vec2{-10, 0.5}, 0.5)
	pushed := createBall(w, mgl64.Vec2{10, 0.5}, 0.5)

	for i := range 300 {
		direction := 1.0
		if (i/60)%2 == 1 {
			direction = -1
		}
		pushed.ApplyForce(mgl64.Vec2{2 * direction, 0}, pushed.GetWorldCenter())
		w.Step(testDt, 10, 8)
	}

	if !resting.IsSleeping() {
		t.Error("The resting ball shares only the ground with the pushed ball and should sleep")
	}
	if pushed.IsSleeping() {
		t.Error("The pushed ball should stay awake")
	}
}

func TestWorld_IslandWakesJointChain(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	end := createBall(w, mgl64.Vec2{0, 0.5}, 0.5)
	middle := createBall(w, mgl64.Vec2{2, 0.5}, 0.5)
	w.CreateJoint(DistanceJointDef{
		BodyA:   end,
		BodyB:   middle,
		AnchorA: end.GetWorldCenter(),
		AnchorB: middle.GetWorldCenter(),
	})

	stepWorld(w, 300)
	if !end.IsSleeping() || !middle.IsSleeping() {
		t.Fatal("The jointed balls should be sleeping")
	}
	start := end.GetPosition()

	// Touches the middle ball and pushes it toward the end of the chain
	striker := createBall(w, mgl64.Vec2{2.9, 0.5}, 0.5)
	striker.LinearVelocity = mgl64.Vec2{-5, 0}

	w.Step(testDt, 10, 8)

	if end.IsSleeping() || middle.IsSleeping() {
		t.Error("The chain should be woken by the contact in the same step")
	}
	if dx := end.GetPosition().X() - start.X(); dx > -1e-3 {
		t.Errorf("end moved by %v, want a move toward -x", dx)
	}
}

// =============================================================================
// Destruction
// =============================================================================

type recordingDestructionListener struct {
	joints []*Joint
	shapes []*Shape
}

func (l *recordingDestructionListener) SayGoodbyeJoint(joint *Joint) {
	l.joints = append(l.joints, joint)
}

func (l *recordingDestructionListener) SayGoodbyeShape(shape *Shape) {
	l.shapes = append(l.shapes, shape)
}

func TestWorld_DestroyBody(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	listener := &recordingDestructionListener{}
	w.DestructionListener = listener

	ground := createGround(w)
	ballA := createBall(w, mgl64.Vec2{-1, 0.5}, 0.5)
	ballB := createBall(w, mgl64.Vec2{1, 0.5}, 0.5)
	joint := w.CreateJoint(DistanceJointDef{
		BodyA:   ballA,
		BodyB:   ballB,
		AnchorA: ballA.GetWorldCenter(),
		AnchorB: ballB.GetWorldCenter(),
	})
	stepWorld(w, 2)

	if w.ContactCount() != 2 {
		t.Fatalf("ContactCount() = %d, want 2", w.ContactCount())
	}

	w.DestroyBody(ballA)

	if w.BodyCount() != 2 || w.JointCount() != 0 || w.ContactCount() != 1 {
		t.Errorf("counts = %d bodies, %d joints, %d contacts, want 2, 0, 1",
			w.BodyCount(), w.JointCount(), w.ContactCount())
	}
	if len(listener.joints) != 1 || listener.joints[0] != joint {
		t.Errorf("joints said goodbye = %v, want the distance joint", listener.joints)
	}
	if len(listener.shapes) != 1 {
		t.Errorf("shapes said goodbye = %d, want 1", len(listener.shapes))
	}
	if ballB.GetJointList() != nil {
		t.Error("The joint edge of the other body should be removed")
	}
	if ground.GetContactList() == nil || ground.GetContactList().Other != ballB {
		t.Error("The ground should only touch the remaining ball")
	}
	if ballA.GetWorld() != nil {
		t.Error("A destroyed body should not belong to a world")
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_DestroyShape(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	ball := createBall(w, mgl64.Vec2{0, 0.49}, 0.5)
	w.Step(testDt, 10, 8)

	w.DestroyShape(ball.GetShapeList())

	if ball.ShapeCount() != 0 || ball.GetShapeList() != nil {
		t.Error("The shape should be removed from the body")
	}
	if w.ContactCount() != 0 {
		t.Errorf("ContactCount() = %d, want 0", w.ContactCount())
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_CreateShapeOnForeignBody(t *testing.T) {
	w1 := newTestWorld(mgl64.Vec2{})
	w2 := newTestWorld(mgl64.Vec2{})
	body := w1.CreateBody(DefaultBodyDef())

	assertPanics(t, "CreateShape", func() {
		w2.CreateShape(body, DefaultShapeDef(actor.NewCircle(mgl64.Vec2{}, 1)))
	})
}

// =============================================================================
// Joints
// =============================================================================

func createRing(w *World, count int, radius float64) []*Body {
	bodies := make([]*Body, count)
	for i := range count {
		angle := 2 * math.Pi * float64(i) / float64(count)
		position := mgl64.Vec2{radius * math.Cos(angle), 5 + radius*math.Sin(angle)}
		bodies[i] = createBall(w, position, 0.2)
	}
	return bodies
}

func TestWorld_ConstantVolumeJointGraph(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	bodies := createRing(w, 6, 2)

	cvj := w.CreateJoint(ConstantVolumeJointDef{Bodies: bodies})

	if w.JointCount() != 7 {
		t.Fatalf("JointCount() = %d, want 7", w.JointCount())
	}
	if len(cvj.SubJoints()) != 6 {
		t.Fatalf("SubJoints() = %d, want 6", len(cvj.SubJoints()))
	}
	for i, sub := range cvj.SubJoints() {
		if sub.Owner() != cvj || sub.Type != JointTypeDistance {
			t.Errorf("sub-joint %d should be a distance joint owned by the ring", i)
		}
		if sub.GetBodyA() != bodies[i] || sub.GetBodyB() != bodies[(i+1)%6] {
			t.Errorf("sub-joint %d should bind bodies %d and %d", i, i, (i+1)%6)
		}
	}

	// The ring joint and the distance joints to both neighbours
	for i, b := range bodies {
		edges := 0
		for je := b.GetJointList(); je != nil; je = je.GetNext() {
			edges++
		}
		if edges != 3 {
			t.Errorf("body %d has %d joint edges, want 3", i, edges)
		}
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	assertPanics(t, "DestroyJoint of a sub-joint", func() {
		w.DestroyJoint(cvj.SubJoints()[0])
	})

	w.DestroyJoint(cvj)

	if w.JointCount() != 0 {
		t.Errorf("JointCount() = %d, want 0", w.JointCount())
	}
	for i, b := range bodies {
		if b.GetJointList() != nil {
			t.Errorf("body %d still has joint edges", i)
		}
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_DestroyBodyOfRing(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	listener := &recordingDestructionListener{}
	w.DestructionListener = listener
	bodies := createRing(w, 5, 2)
	cvj := w.CreateJoint(ConstantVolumeJointDef{Bodies: bodies})

	w.DestroyBody(bodies[2])

	if w.JointCount() != 0 {
		t.Errorf("JointCount() = %d, want 0", w.JointCount())
	}
	if len(listener.joints) != 1 || listener.joints[0] != cvj {
		t.Error("Only the ring joint should say goodbye")
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_ConstantVolumeKeepsArea(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{0, -10})
	createGround(w)
	bodies := createRing(w, 12, 2)
	cvj := w.CreateJoint(ConstantVolumeJointDef{Bodies: bodies})
	target := cvj.ConstantVolume().TargetArea

	stepWorld(w, 180)

	area := cvj.ConstantVolume().Area()
	if math.Abs(area-target) > 0.1*target {
		t.Errorf("Area() = %v, want about %v", area, target)
	}
}

func TestWorld_JointDisablesCollision(t *testing.T) {
	tests := []struct {
		name             string
		collideConnected bool
		wantContacts     int
	}{
		{"filtered", false, 0},
		{"collide connected", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(mgl64.Vec2{})
			ballA := createBall(w, mgl64.Vec2{0, 0}, 0.5)
			ballB := createBall(w, mgl64.Vec2{0.8, 0}, 0.5)
			joint := w.CreateJoint(DistanceJointDef{
				BodyA:            ballA,
				BodyB:            ballB,
				AnchorA:          ballA.GetWorldCenter(),
				AnchorB:          ballB.GetWorldCenter(),
				CollideConnected: tt.collideConnected,
			})
			w.Step(testDt, 10, 8)

			if w.ContactCount() != tt.wantContacts {
				t.Errorf("ContactCount() = %d, want %d", w.ContactCount(), tt.wantContacts)
			}
			if ballA.IsConnected(ballB) == tt.collideConnected {
				t.Errorf("IsConnected() = %v, want %v", ballA.IsConnected(ballB), !tt.collideConnected)
			}

			// The pair is offered again once the joint is gone
			w.DestroyJoint(joint)
			if w.ContactCount() != 1 {
				t.Errorf("ContactCount() after DestroyJoint = %d, want 1", w.ContactCount())
			}
			if err := w.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

// =============================================================================
// Queries
// =============================================================================

// createPosts creates static circles of radius 0.5 along the x axis
func createPosts(w *World, xs ...float64) []*Shape {
	shapes := make([]*Shape, len(xs))
	for i, x := range xs {
		def := DefaultBodyDef()
		def.Position = mgl64.Vec2{x, 0}
		body := w.CreateBody(def)
		shapes[i] = w.CreateShape(body, DefaultShapeDef(actor.NewCircle(mgl64.Vec2{}, 0.5)))
	}
	w.Step(0, 10, 8)
	return shapes
}

func TestWorld_Raycast(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{})
	// Created out of order, results must follow the hit fraction
	posts := createPosts(w, 8, 2, 5)
	near, middle, far := posts[1], posts[2], posts[0]

	tests := []struct {
		name     string
		segment  actor.Segment
		maxCount int
		solid    bool
		want     []*Shape
	}{
		{"ordered by fraction", actor.Segment{P1: mgl64.Vec2{0, 0}, P2: mgl64.Vec2{10, 0}}, 10, true, []*Shape{near, middle, far}},
		{"max count", actor.Segment{P1: mgl64.Vec2{0, 0}, P2: mgl64.Vec2{10, 0}}, 2, true, []*Shape{near, middle}},
		{"reversed", actor.Segment{P1: mgl64.Vec2{10, 0}, P2: mgl64.Vec2{0, 0}}, 10, true, []*Shape{far, middle, near}},
		{"solid start inside", actor.Segment{P1: mgl64.Vec2{2, 0}, P2: mgl64.Vec2{10, 0}}, 10, true, []*Shape{near, middle, far}},
		{"hollow start inside", actor.Segment{P1: mgl64.Vec2{2, 0}, P2: mgl64.Vec2{10, 0}}, 10, false, []*Shape{middle, far}},
		{"miss", actor.Segment{P1: mgl64.Vec2{0, 2}, P2: mgl64.Vec2{10, 2}}, 10, true, []*Shape{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.Raycast(tt.segment, tt.maxCount, tt.solid, nil)
			if len(got) != len(tt.want) {
				t.Fatalf("Raycast() returned %d shapes, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Raycast()[%d] = %v, want %v", i, got[i].GetBody().GetPosition(), tt.want[i].GetBody().GetPosition())
				}
			}
		})
	}
}

func TestWorld_RaycastOne(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{})
	posts := createPosts(w, 5, 2)

	shape, lambda, normal := w.RaycastOne(actor.Segment{P1: mgl64.Vec2{0, 0}, P2: mgl64.Vec2{10, 0}}, true, nil)

	if shape != posts[1] {
		t.Fatalf("RaycastOne() hit %v, want the post at x = 2", shape)
	}
	if math.Abs(lambda-0.15) > 1e-9 {
		t.Errorf("lambda = %v, want 0.15", lambda)
	}
	if !normal.ApproxEqual(mgl64.Vec2{-1, 0}) {
		t.Errorf("normal = %v, want (-1, 0)", normal)
	}

	if shape, _, _ := w.RaycastOne(actor.Segment{P1: mgl64.Vec2{0, 3}, P2: mgl64.Vec2{10, 3}}, true, nil); shape != nil {
		t.Error("RaycastOne() should return nil on a miss")
	}
}

func TestWorld_RaycastFilter(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{})
	posts := createPosts(w, 2, 5)
	posts[0].Filter.CategoryBits = 0x0002

	// Only category 1
	rayFilter := actor.FilterData{CategoryBits: 0xFFFF, MaskBits: 0x0001}
	got := w.Raycast(actor.Segment{P1: mgl64.Vec2{0, 0}, P2: mgl64.Vec2{10, 0}}, 10, true, rayFilter)

	if len(got) != 1 || got[0] != posts[1] {
		t.Errorf("Raycast() should skip the filtered post, got %d shapes", len(got))
	}
}

func TestWorld_Query(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{})
	posts := createPosts(w, 2, 5, 8)

	got := w.Query(actor.AABB{Min: mgl64.Vec2{4, -1}, Max: mgl64.Vec2{9, 1}}, 10)
	if len(got) != 2 {
		t.Fatalf("Query() returned %d shapes, want 2", len(got))
	}
	for _, s := range got {
		if s == posts[0] {
			t.Error("Query() should not return the post at x = 2")
		}
	}

	if got := w.Query(actor.AABB{Min: mgl64.Vec2{-10, -10}, Max: mgl64.Vec2{10, 10}}, 1); len(got) != 1 {
		t.Errorf("Query() with maxCount 1 returned %d shapes", len(got))
	}

	everything := actor.AABB{
		Min: mgl64.Vec2{math.Inf(-1), math.Inf(-1)},
		Max: mgl64.Vec2{math.Inf(1), math.Inf(1)},
	}
	if got := w.Query(everything, 10); len(got) != len(posts) {
		t.Errorf("Query() over the whole plane returned %d shapes, want %d", len(got), len(posts))
	}
}

func TestWorld_TestOverlap(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{})
	posts := createPosts(w, 0, 0.9, 3)

	if !w.TestOverlap(posts[0], posts[1]) {
		t.Error("Posts 0.9 apart should overlap")
	}
	if w.TestOverlap(posts[0], posts[2]) {
		t.Error("Posts 3 apart should not overlap")
	}
}

// =============================================================================
// Bounds
// =============================================================================

type countingBoundaryListener struct {
	violations []*Body
}

func (l *countingBoundaryListener) Violation(body *Body) {
	l.violations = append(l.violations, body)
}

func TestWorld_BoundaryFreeze(t *testing.T) {
	w := newBoundedWorld(10, mgl64.Vec2{0, -10})
	listener := &countingBoundaryListener{}
	w.BoundaryListener = listener
	ball := createBall(w, mgl64.Vec2{0, 5}, 0.5)

	stepWorld(w, 180)

	if len(listener.violations) != 1 || listener.violations[0] != ball {
		t.Fatalf("violations = %d, want 1 for the ball", len(listener.violations))
	}
	if !ball.IsFrozen() {
		t.Error("The ball should be frozen")
	}
	if ball.GetShapeList().ProxyID() != NULL_PROXY {
		t.Error("A frozen body should have no proxy")
	}
	if y := ball.GetPosition().Y(); y > -10 {
		t.Errorf("y = %v, the frozen ball should keep falling", y)
	}
	if ball.SetTransform(mgl64.Vec2{}, 0) {
		t.Error("SetTransform() on a frozen body should return false")
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_BoundaryThaw(t *testing.T) {
	w := newBoundedWorld(10, mgl64.Vec2{})
	listener := &countingBoundaryListener{}
	w.BoundaryListener = listener
	ball := createBall(w, mgl64.Vec2{8, 0}, 0.5)
	ball.LinearVelocity = mgl64.Vec2{6, 0}

	// Out after a few steps
	stepWorld(w, 30)
	if !ball.IsFrozen() {
		t.Fatal("The ball should be frozen")
	}

	// And back in
	ball.LinearVelocity = mgl64.Vec2{-6, 0}
	stepWorld(w, 60)

	if ball.IsFrozen() {
		t.Error("The ball should be thawed once back in bounds")
	}
	if ball.GetShapeList().ProxyID() == NULL_PROXY {
		t.Error("A thawed body should have a proxy again")
	}
	if len(listener.violations) != 1 {
		t.Errorf("violations = %d, want 1", len(listener.violations))
	}
	if err := w.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestWorld_CreateShapeOutOfBounds(t *testing.T) {
	w := newBoundedWorld(10, mgl64.Vec2{})
	listener := &countingBoundaryListener{}
	w.BoundaryListener = listener

	ball := createBall(w, mgl64.Vec2{20, 0}, 0.5)

	if !ball.IsFrozen() || len(listener.violations) != 1 {
		t.Error("A shape created out of bounds should freeze its body")
	}
}

// =============================================================================
// Filtering
// =============================================================================

func TestWorld_Refilter(t *testing.T) {
	w := newTestWorld(mgl64.Vec2{})
	ballA := createBall(w, mgl64.Vec2{0, 0}, 0.5)
	createBall(w, mgl64.Vec2{0.8, 0}, 0.5)
	w.Step(testDt, 10, 8)

	if w.ContactCount() != 1 {
		t.Fatalf("ContactCount() = %d, want 1", w.ContactCount())
	}

	shape := ballA.GetShapeList()
	shape.Filter.GroupIndex = -1
	w.GetBodyList().GetShapeList().Filter.GroupIndex = -1
	w.Refilter(shape)

	if w.ContactCount() != 0 {
		t.Errorf("ContactCount() = %d after refilter, want 0", w.ContactCount())
	}
}
