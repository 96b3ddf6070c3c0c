package scenario

import (
	"math"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	pyramidBase = 10
	balloonSize = 20
)

func init() {
	Register(Scenario{
		Name:        "freefall",
		Description: "A circle of radius 1 falling from y=10",
		Bounds:      actor.AABB{Min: mgl64.Vec2{-100, -100}, Max: mgl64.Vec2{100, 100}},
		Gravity:     mgl64.Vec2{0, -10},
		Setup:       setupFreeFall,
	})
	Register(Scenario{
		Name:        "pyramid",
		Description: "A pyramid of boxes resting on the ground",
		Bounds:      actor.AABB{Min: mgl64.Vec2{-50, -10}, Max: mgl64.Vec2{50, 90}},
		Gravity:     mgl64.Vec2{0, -10},
		Setup:       setupPyramid,
	})
	Register(Scenario{
		Name:        "bullet",
		Description: "A small fast circle fired at a thin wall",
		Bounds:      actor.AABB{Min: mgl64.Vec2{-50, -50}, Max: mgl64.Vec2{50, 50}},
		Gravity:     mgl64.Vec2{0, -10},
		Setup:       setupBullet,
	})
	Register(Scenario{
		Name:        "balloon",
		Description: "A ring of circles keeping its area, dropped on the ground",
		Bounds:      actor.AABB{Min: mgl64.Vec2{-50, -10}, Max: mgl64.Vec2{50, 90}},
		Gravity:     mgl64.Vec2{0, -10},
		Setup:       setupBalloon,
	})
}

func setupFreeFall(w *feather2d.World) {
	def := feather2d.DefaultBodyDef()
	def.Position = mgl64.Vec2{0, 10}
	createDynamic(w, def, actor.NewCircle(mgl64.Vec2{}, 1), 1)
}

func setupPyramid(w *feather2d.World) {
	createGround(w, 40)

	const halfSize = 0.5
	for row := 0; row < pyramidBase; row++ {
		count := pyramidBase - row
		y := halfSize + float64(row)*2*halfSize
		x0 := -float64(count-1) * (halfSize + 0.01)

		for i := 0; i < count; i++ {
			def := feather2d.DefaultBodyDef()
			def.Position = mgl64.Vec2{x0 + float64(i)*2*(halfSize+0.01), y}
			createDynamic(w, def, actor.NewBox(halfSize, halfSize), 1)
		}
	}
}

func setupBullet(w *feather2d.World) {
	wall := w.CreateBody(feather2d.DefaultBodyDef())
	w.CreateShape(wall, feather2d.DefaultShapeDef(actor.NewEdge(mgl64.Vec2{10, -5}, mgl64.Vec2{10, 5})))

	def := feather2d.DefaultBodyDef()
	def.Position = mgl64.Vec2{-10, 0}
	def.LinearVelocity = mgl64.Vec2{300, 0}
	def.IsBullet = true
	createDynamic(w, def, actor.NewCircle(mgl64.Vec2{}, 0.1), 1)
}

func setupBalloon(w *feather2d.World) {
	createGround(w, 40)

	const radius = 3.0
	bodies := make([]*feather2d.Body, balloonSize)
	for i := range bodies {
		angle := 2 * math.Pi * float64(i) / balloonSize
		def := feather2d.DefaultBodyDef()
		def.Position = mgl64.Vec2{radius * math.Cos(angle), 6 + radius*math.Sin(angle)}
		def.FixedRotation = true
		bodies[i] = createDynamic(w, def, actor.NewCircle(mgl64.Vec2{}, 0.25), 1)
	}

	w.CreateJoint(feather2d.ConstantVolumeJointDef{
		Bodies:       bodies,
		FrequencyHz:  10,
		DampingRatio: 1,
	})
}
