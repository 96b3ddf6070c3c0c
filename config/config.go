// Package config provides the YAML-based solver tuning of the physics engine.
//
// Every value mirrors a constant of the classic 2D rigid body solver; the defaults
// are embedded so a world can be created without any file on disk.
package config

import (
	"errors"
	"fmt"
	"math"
)

// Settings groups every tunable of the collision pipeline and the solver.
type Settings struct {
	Collision Collision `yaml:"collision"`
	Solver    Solver    `yaml:"solver"`
	Sleep     Sleep     `yaml:"sleep"`
	TOI       TOI       `yaml:"toi"`
}

// Collision defines tolerances shared by the narrow phase and the broad-phase.
type Collision struct {
	LinearSlop    float64 `yaml:"linear_slop"`    // allowed penetration, keeps contacts warm
	AngularSlop   float64 `yaml:"angular_slop"`   // radians
	TOISlop       float64 `yaml:"toi_slop"`       // target separation of the TOI root finder
	AABBExtension float64 `yaml:"aabb_extension"` // fat AABB margin
	GridCellSize  float64 `yaml:"grid_cell_size"`
	GridCells     int     `yaml:"grid_cells"` // rounded up to a power of two
	MaxProxyCells int     `yaml:"max_proxy_cells"`
}

// Solver defines the sequential impulse parameters.
type Solver struct {
	VelocityThreshold    float64 `yaml:"velocity_threshold"` // below this, collisions are inelastic
	MaxLinearCorrection  float64 `yaml:"max_linear_correction"`
	MaxAngularCorrection float64 `yaml:"max_angular_correction"`
	MaxLinearVelocity    float64 `yaml:"max_linear_velocity"`
	MaxAngularVelocity   float64 `yaml:"max_angular_velocity"`
	ContactBaumgarte     float64 `yaml:"contact_baumgarte"`
	TOIBaumgarte         float64 `yaml:"toi_baumgarte"`
}

// Sleep defines when an island is put to rest.
type Sleep struct {
	TimeToSleep           float64 `yaml:"time_to_sleep"`
	LinearSleepTolerance  float64 `yaml:"linear_sleep_tolerance"`
	AngularSleepTolerance float64 `yaml:"angular_sleep_tolerance"`
}

// TOI bounds the continuous collision pass.
type TOI struct {
	MaxContactsPerIsland int `yaml:"max_contacts_per_island"`
	MaxJointsPerIsland   int `yaml:"max_joints_per_island"`
	MaxIterations        int `yaml:"max_iterations"` // TOI events resolved per step
}

// Default returns the hardcoded settings, identical to defaults/settings.yaml.
func Default() Settings {
	return Settings{
		Collision: Collision{
			LinearSlop:    0.005,
			AngularSlop:   2.0 / 180.0 * math.Pi,
			TOISlop:       8.0 * 0.005,
			AABBExtension: 0.1,
			GridCellSize:  4.0,
			GridCells:     4096,
			MaxProxyCells: 256,
		},
		Solver: Solver{
			VelocityThreshold:    1.0,
			MaxLinearCorrection:  0.2,
			MaxAngularCorrection: 8.0 / 180.0 * math.Pi,
			MaxLinearVelocity:    200.0,
			MaxAngularVelocity:   250.0,
			ContactBaumgarte:     0.2,
			TOIBaumgarte:         0.75,
		},
		Sleep: Sleep{
			TimeToSleep:           0.5,
			LinearSleepTolerance:  0.01,
			AngularSleepTolerance: 2.0 / 180.0 * math.Pi,
		},
		TOI: TOI{
			MaxContactsPerIsland: 32,
			MaxJointsPerIsland:   32,
			MaxIterations:        64,
		},
	}
}

// ErrInvalidSettings is wrapped by every error returned from Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Validate reports the first field that would make the solver misbehave.
func (s Settings) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"collision.linear_slop", s.Collision.LinearSlop},
		{"collision.angular_slop", s.Collision.AngularSlop},
		{"collision.toi_slop", s.Collision.TOISlop},
		{"collision.grid_cell_size", s.Collision.GridCellSize},
		{"solver.max_linear_correction", s.Solver.MaxLinearCorrection},
		{"solver.max_angular_correction", s.Solver.MaxAngularCorrection},
		{"solver.max_linear_velocity", s.Solver.MaxLinearVelocity},
		{"solver.max_angular_velocity", s.Solver.MaxAngularVelocity},
		{"solver.contact_baumgarte", s.Solver.ContactBaumgarte},
		{"solver.toi_baumgarte", s.Solver.TOIBaumgarte},
		{"sleep.time_to_sleep", s.Sleep.TimeToSleep},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidSettings, p.name, p.value)
		}
	}

	if s.Collision.AABBExtension < 0 {
		return fmt.Errorf("%w: collision.aabb_extension must not be negative, got %v", ErrInvalidSettings, s.Collision.AABBExtension)
	}
	if s.Solver.ContactBaumgarte > 1 || s.Solver.TOIBaumgarte > 1 {
		return fmt.Errorf("%w: baumgarte factors must be in (0, 1]", ErrInvalidSettings)
	}
	if s.Sleep.LinearSleepTolerance < 0 || s.Sleep.AngularSleepTolerance < 0 {
		return fmt.Errorf("%w: sleep tolerances must not be negative", ErrInvalidSettings)
	}
	if s.Collision.GridCells <= 0 || s.Collision.MaxProxyCells <= 0 {
		return fmt.Errorf("%w: collision.grid_cells and collision.max_proxy_cells must be positive", ErrInvalidSettings)
	}
	if s.TOI.MaxContactsPerIsland <= 0 || s.TOI.MaxJointsPerIsland <= 0 || s.TOI.MaxIterations <= 0 {
		return fmt.Errorf("%w: toi limits must be positive", ErrInvalidSettings)
	}

	return nil
}
