package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	_ "github.com/san-kum/robosim/internal/physics/planar"
)

var (
	dataDir  string
	logLevel string

	preset     string
	serverID   string
	timeout    float64
	paused     bool
	noPhysics  bool
	updateRate int
	sampleRate float64

	monitorOn   bool
	monitorPort int
	openBrowser bool

	plot      bool
	savePath  string
	tracePath string
	noStore   bool

	theme string

	traceBody string
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// main registers commands and flags and executes the root command. Exit
// handlers run before the process ends.
func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "robosim",
		Short:         "real-time rigid body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr("ROBOSIM_DATA_DIR", ".robosim"), "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("ROBOSIM_LOG_LEVEL", "info"), "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run [world.yaml]",
		Short: "run a world until quit or timeout",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWorld,
	}
	worldFlags(runCmd)
	runCmd.Flags().BoolVar(&monitorOn, "monitor", false, "serve the HTTP monitor")
	runCmd.Flags().IntVar(&monitorPort, "port", 0, "monitor port (0 picks one)")
	runCmd.Flags().BoolVar(&openBrowser, "open", false, "open the monitor in a browser")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the real time factor and body heights after the run")
	runCmd.Flags().StringVar(&savePath, "save", "", "write the final world to this file")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "record every step into this SQLite file (\"auto\" picks a name)")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the run in the data directory")

	tuiCmd := &cobra.Command{
		Use:   "tui [world.yaml]",
		Short: "run a world under the terminal control panel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTUI,
	}
	worldFlags(tuiCmd)
	tuiCmd.Flags().StringVar(&theme, "theme", "terminal", "panel theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in worlds",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [preset]",
		Short: "print a preset world as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpPreset,
	}

	runsCmd := &cobra.Command{
		Use:   "runs [run_id]",
		Short: "list recorded runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRuns,
	}

	traceCmd := &cobra.Command{
		Use:   "trace [file]",
		Short: "summarize a step trace",
		Args:  cobra.ExactArgs(1),
		RunE:  showTrace,
	}
	traceCmd.Flags().StringVar(&traceBody, "body", "", "plot the height of this body (scoped name)")

	rootCmd.AddCommand(runCmd, tuiCmd, presetsCmd, dumpCmd, runsCmd, traceCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func worldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "pendulum", "built-in world used when no file is given")
	cmd.Flags().StringVar(&serverID, "server-id", "", "identifier reported by the scheduler")
	cmd.Flags().Float64Var(&timeout, "timeout", 0, "stop after this many seconds of real time (0 runs until quit)")
	cmd.Flags().BoolVar(&paused, "paused", false, "start paused")
	cmd.Flags().BoolVar(&noPhysics, "no-physics", false, "advance time without stepping the engine")
	cmd.Flags().IntVar(&updateRate, "update-rate", 0, "updates per second, overriding the world (-1 removes the limit)")
	cmd.Flags().Float64Var(&sampleRate, "sample-rate", 20, "recorded samples per second of real time")
}
