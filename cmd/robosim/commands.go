package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/logging"
	"github.com/san-kum/robosim/internal/metrics"
	"github.com/san-kum/robosim/internal/monitor"
	"github.com/san-kum/robosim/internal/sim"
	"github.com/san-kum/robosim/internal/storage"
	"github.com/san-kum/robosim/internal/tui"
)

const plotWidth = 80

// newScheduler loads the world named by args or --preset and applies the
// run flags. Load resets timeout, physics and rate, so flags go after it.
func newScheduler(cmd *cobra.Command, args []string, log logging.Logger) (*sim.Scheduler, error) {
	s := sim.New(sim.WithLogger(log))
	atexit.Register(s.Fini)

	if len(args) == 1 {
		if err := s.Load(args[0], serverID); err != nil {
			return nil, err
		}
	} else {
		w := config.GetPreset(preset)
		if w == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		if err := s.LoadWorld(w, serverID); err != nil {
			return nil, err
		}
	}

	s.WithLock(func(l *sim.Locked) error {
		if timeout > 0 {
			l.SetTimeout(time.Duration(timeout * float64(time.Second)))
		}
		if paused {
			l.SetPaused(true)
		}
		if noPhysics {
			l.SetPhysicsEnabled(false)
		}
		if cmd.Flags().Changed("update-rate") {
			if updateRate > 0 {
				l.SetUpdateBudget(1, time.Second/time.Duration(updateRate))
			} else {
				l.SetUpdateBudget(0, 0)
			}
		}
		return nil
	})
	return s, nil
}

func newRecorder() *metrics.Recorder {
	var interval time.Duration
	if sampleRate > 0 {
		interval = time.Duration(float64(time.Second) / sampleRate)
	}
	return metrics.NewRecorder(interval, 0, metrics.Defaults()...)
}

func mainLoop(s *sim.Scheduler) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := s.MainLoop(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runWorld(cmd *cobra.Command, args []string) error {
	log, err := logging.NewText(os.Stderr, logLevel)
	if err != nil {
		return err
	}
	s, err := newScheduler(cmd, args, log)
	if err != nil {
		return err
	}
	rec := newRecorder()
	s.AddObserver(rec)

	if tracePath != "" {
		path := tracePath
		if path == "auto" {
			path = ""
		}
		tw, err := storage.NewTraceWriter(path)
		if err != nil {
			return err
		}
		defer tw.Close()
		s.AddObserver(tw)
		log.Info("tracing steps", "path", tw.Path())
	}

	if monitorOn {
		m := monitor.New(s).WithLogger(log).WithRecorder(rec).WithPortNumber(monitorPort)
		url, err := m.StartServer()
		if err != nil {
			return err
		}
		defer m.Close()
		fmt.Printf("monitoring simulation with %s\n", url)
		if openBrowser {
			if err := browser.OpenURL(url); err != nil {
				log.Warn("open browser failed", "error", err)
			}
		}
	}

	s.Init()
	start := time.Now()
	loopErr := mainLoop(s)
	elapsed := time.Since(start)

	if savePath != "" {
		if err := s.Save(savePath); err != nil {
			return err
		}
	}

	t := s.Times()
	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("steps: %d\n", t.Steps)
	fmt.Printf("sim time: %.3fs  pause time: %.3fs\n", t.Sim.Seconds(), t.Pause.Seconds())
	fmt.Println("\nmetrics:")
	for _, m := range metrics.Defaults() {
		fmt.Printf("  %s: %.6f\n", m.Name(), rec.Values()[m.Name()])
	}

	if !noStore {
		id, err := recordRun(s, rec)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", id)
	}
	if plot {
		plotSamples(rec.Bodies(), rec.Samples())
	}
	return loopErr
}

func recordRun(s *sim.Scheduler, rec *metrics.Recorder) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	var meta storage.RunMetadata
	s.WithLock(func(l *sim.Locked) error {
		t := l.Times()
		meta = storage.RunMetadata{
			ServerID:  l.ServerID(),
			StepTime:  l.StepTime().Seconds(),
			SimTime:   t.Sim.Seconds(),
			RealTime:  t.Real.Seconds(),
			PauseTime: t.Pause.Seconds(),
			Steps:     t.Steps,
		}
		if w := l.World(); w != nil {
			meta.World = w.Name
			meta.Engine = w.Physics.Engine
		}
		return nil
	})
	meta.Bodies = rec.Bodies()
	meta.Metrics = rec.Values()
	return st.Save(meta, rec.Samples())
}

func plotSamples(bodies []string, samples []metrics.Sample) {
	if len(samples) < 2 {
		fmt.Println("not enough samples to plot")
		return
	}
	rtf := make([]float64, len(samples))
	for i, sm := range samples {
		rtf[i] = sm.RTF
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(rtf,
		asciigraph.Height(8),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("real time factor"),
	))

	for b, name := range bodies {
		heights := make([]float64, len(samples))
		for i, sm := range samples {
			if b < len(sm.Positions) {
				heights[i] = sm.Positions[b][1]
			}
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(heights,
			asciigraph.Height(8),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(name+" y"),
		))
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(dataDir, "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log, err := logging.NewText(logFile, logLevel)
	if err != nil {
		return err
	}

	s, err := newScheduler(cmd, args, log)
	if err != nil {
		return err
	}
	rec := newRecorder()
	s.AddObserver(rec)
	s.Init()

	errc := make(chan error, 1)
	go func() { errc <- mainLoop(s) }()

	uiErr := tui.Run(s, rec, tui.GetTheme(theme))
	s.Quit()
	if err := <-errc; err != nil {
		return err
	}
	return uiErr
}

func listPresets(cmd *cobra.Command, args []string) error {
	for _, name := range config.ListPresets() {
		w := config.GetPreset(name)
		fmt.Printf("  %-16s %d models, step %gs\n", name, len(w.Models), w.Physics.StepTime)
	}
	return nil
}

func dumpPreset(cmd *cobra.Command, args []string) error {
	w := config.GetPreset(args[0])
	if w == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	data, err := config.Marshal(w)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func showRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if len(args) == 1 {
		return showRun(st, args[0])
	}

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWORLD\tSTEPS\tSIM\tREAL\tRTF\tTIMESTAMP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2fs\t%.2fs\t%.3f\t%s\n",
			r.ID, r.World, r.Steps, r.SimTime, r.RealTime,
			r.Metrics["real_time_factor"], r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(st *storage.Store, id string) error {
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	bodies, samples, err := st.LoadSamples(id)
	if err != nil {
		return err
	}
	plotSamples(bodies, samples)

	for b, name := range bodies {
		ys, interval := metrics.HeightSeries(samples, b)
		hz, ok := metrics.NewSpectrum(ys, interval).Dominant()
		if !ok {
			continue
		}
		fmt.Printf("%s: dominant frequency %.3f hz, period %.3f s\n", name, hz, 1/hz)
	}
	return nil
}

func showTrace(cmd *cobra.Command, args []string) error {
	steps, err := storage.ReadTrace(args[0])
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		fmt.Println("trace is empty")
		return nil
	}

	var pausedSteps int
	for _, s := range steps {
		if s.Paused {
			pausedSteps++
		}
	}
	last := steps[len(steps)-1]
	fmt.Printf("steps: %d (%d while paused)\n", len(steps), pausedSteps)
	fmt.Printf("last step: %d at sim %.3fs, real %.3fs\n",
		last.Step, time.Duration(last.Sim).Seconds(), time.Duration(last.Real).Seconds())

	if traceBody == "" {
		return nil
	}
	_, poses, err := storage.ReadPoses(args[0], traceBody)
	if err != nil {
		return err
	}
	if len(poses) < 2 {
		return fmt.Errorf("no poses recorded for %s", traceBody)
	}
	heights := make([]float64, len(poses))
	for i, p := range poses {
		heights[i] = p[1]
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(heights,
		asciigraph.Height(10),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(traceBody+" y"),
	))
	return nil
}
