// Package scenario provides a registry of headless demo scenes.
// Scenes register themselves in init() functions, so the CLI can list and run
// them without knowing about each one.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/config"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrUnknownScenario is returned when no scenario is registered under a name
var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario describes a scene: the world it needs and the bodies to put in it
type Scenario struct {
	Name        string
	Description string

	// Bounds are the world bounds, Gravity its gravity
	Bounds  actor.AABB
	Gravity mgl64.Vec2

	// Setup creates the bodies, shapes and joints of the scene
	Setup func(w *feather2d.World)
}

// NewWorld creates an empty world with the bounds and gravity of the scenario
func (s Scenario) NewWorld(settings config.Settings) *feather2d.World {
	return feather2d.NewWorld(s.Bounds, s.Gravity, settings)
}

var (
	scenarios = make(map[string]Scenario)
	mu        sync.RWMutex
)

// Register adds a scenario to the registry.
// Panics if a scenario with the same name is already registered.
func Register(s Scenario) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := scenarios[s.Name]; exists {
		panic(fmt.Sprintf("scenario: %q already registered", s.Name))
	}
	scenarios[s.Name] = s
}

// Get returns the scenario registered under name
func Get(name string) (Scenario, error) {
	mu.RLock()
	defer mu.RUnlock()

	s, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s, nil
}

// List returns all registered scenarios, sorted by name.
func List() []Scenario {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Build populates w with the scenario registered under name
func Build(name string, w *feather2d.World) error {
	s, err := Get(name)
	if err != nil {
		return err
	}

	s.Setup(w)
	w.Logger.Debug("scenario built", "scenario", name, "bodies", w.BodyCount(), "joints", w.JointCount())
	return nil
}

// Helpers shared by the scenes

func createGround(w *feather2d.World, halfWidth float64) *feather2d.Body {
	ground := w.CreateBody(feather2d.DefaultBodyDef())
	w.CreateShape(ground, feather2d.DefaultShapeDef(actor.NewEdge(mgl64.Vec2{-halfWidth, 0}, mgl64.Vec2{halfWidth, 0})))
	return ground
}

func createDynamic(w *feather2d.World, def feather2d.BodyDef, geometry actor.ShapeInterface, density float64) *feather2d.Body {
	body := w.CreateBody(def)

	shapeDef := feather2d.DefaultShapeDef(geometry)
	shapeDef.Material.Density = density
	w.CreateShape(body, shapeDef)
	body.SetMassFromShapes()

	return body
}
