// feather2d runs the demo scenes of the engine headless and logs what happened.
//
// Usage:
//
//	feather2d list              - List available scenarios
//	feather2d run <scenario>    - Step a scenario and log a summary
//
// Global flags:
//
//	--config <path> - Solver settings YAML (default: ~/.feather2d/settings.yaml, then embedded)
//	--verbose       - Log debug messages
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "feather2d",
	Short: "feather2d - a 2D rigid body engine",
	Long: `feather2d steps the demo scenes of the engine without rendering and logs
a summary of the simulation.

Examples:
  feather2d list
  feather2d run pyramid
  feather2d run bullet --no-toi --steps 120
  feather2d run balloon --config ./settings.yaml --verbose`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom settings YAML")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Log debug messages")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
}

// newLogger creates the logger shared by the CLI and the world
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "feather2d",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
