package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akmonengine/feather2d"
	"github.com/akmonengine/feather2d/config"
	"github.com/akmonengine/feather2d/internal/scenario"
)

var (
	flagSteps       int
	flagHz          float64
	flagVelIters    int
	flagPosIters    int
	flagNoWarmStart bool
	flagNoTOI       bool
	flagNoSleep     bool
	flagWorkers     int
)

var runCmd = &cobra.Command{
	Use:   "run <scenario>",
	Short: "Step a scenario and log a summary",
	Long: `Builds the scenario, steps it at a fixed rate and logs the state of the
world at the end.

Examples:
  feather2d run freefall --steps 60
  feather2d run pyramid --vel-iters 20 --pos-iters 10
  feather2d run pyramid --workers 4 --no-sleep`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&flagSteps, "steps", 600, "Number of steps")
	runCmd.Flags().Float64Var(&flagHz, "hz", 60, "Steps per simulated second")
	runCmd.Flags().IntVar(&flagVelIters, "vel-iters", 10, "Velocity iterations per step")
	runCmd.Flags().IntVar(&flagPosIters, "pos-iters", 8, "Position iterations per step")
	runCmd.Flags().BoolVar(&flagNoWarmStart, "no-warm-start", false, "Disable warm starting")
	runCmd.Flags().BoolVar(&flagNoTOI, "no-toi", false, "Disable continuous collision")
	runCmd.Flags().BoolVar(&flagNoSleep, "no-sleep", false, "Disable sleeping")
	runCmd.Flags().IntVar(&flagWorkers, "workers", feather2d.DEFAULT_WORKERS, "Goroutines synchronizing the broad-phase")
}

func runRun(cmd *cobra.Command, args []string) error {
	name := args[0]
	logger := newLogger()

	if flagHz <= 0 {
		return fmt.Errorf("invalid rate %v: must be positive", flagHz)
	}

	settings, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	s, err := scenario.Get(name)
	if err != nil {
		return fmt.Errorf("%w (run 'feather2d list' to see available scenarios)", err)
	}

	w := s.NewWorld(settings)
	w.Logger = logger
	w.WarmStarting = !flagNoWarmStart
	w.ContinuousPhysics = !flagNoTOI
	w.AllowSleep = !flagNoSleep
	w.Workers = flagWorkers

	sleeps := 0
	w.Events.Subscribe(feather2d.ON_SLEEP, func(event feather2d.Event) {
		sleeps++
		logger.Debug("body fell asleep", "position", event.(feather2d.SleepEvent).Body.GetPosition())
	})

	if err := scenario.Build(name, w); err != nil {
		return err
	}

	logger.Info("running scenario", "scenario", name, "steps", flagSteps, "hz", flagHz)

	dt := 1.0 / flagHz
	maxPositionIterations := 0
	start := time.Now()
	for range flagSteps {
		w.Step(dt, flagVelIters, flagPosIters)
		maxPositionIterations = max(maxPositionIterations, w.PositionIterationCount())
	}
	elapsed := time.Since(start)

	awake := 0
	var first *feather2d.Body
	for b := w.GetBodyList(); b != nil; b = b.GetNext() {
		if b.IsStatic() {
			continue
		}
		// The body list is most recent first
		first = b
		if !b.IsSleeping() {
			awake++
		}
	}

	if err := w.Validate(); err != nil {
		logger.Error("world is inconsistent", "err", err)
	}

	summary := []any{
		"steps", flagSteps,
		"simulated", time.Duration(float64(flagSteps) * dt * float64(time.Second)),
		"elapsed", elapsed,
		"bodies", w.BodyCount(),
		"contacts", w.ContactCount(),
		"joints", w.JointCount(),
		"awake", awake,
		"sleeps", sleeps,
		"maxPositionIterations", maxPositionIterations,
	}
	if first != nil {
		summary = append(summary, "firstBody", first.GetPosition())
	}
	logger.Info("simulation finished", summary...)

	return nil
}
