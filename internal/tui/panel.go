// Package tui is a terminal control panel for a running scheduler. It polls
// the scheduler on a timer, draws the bodies of the XY plane and sends pause,
// step, physics and quit commands from the keyboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/robosim/internal/metrics"
	"github.com/san-kum/robosim/internal/physics"
	"github.com/san-kum/robosim/internal/scene"
	"github.com/san-kum/robosim/internal/sim"
)

const (
	refreshInterval = 50 * time.Millisecond
	canvasWidth     = 60
	canvasHeight    = 18
	cellsPerMeter   = 8
	graphPoints     = 60
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type link struct{ from, to mgl64.Vec3 }

// snapshot is what the panel reads from the scheduler on each refresh.
type snapshot struct {
	times   sim.Times
	state   sim.State
	physics bool
	quit    bool
	world   string
	err     error
	bodies  []mgl64.Vec3
	anchors []mgl64.Vec3
	links   []link
}

type Panel struct {
	sched    *sim.Scheduler
	recorder *metrics.Recorder
	st       styles
	snap     snapshot
	message  string
	width    int
}

func NewPanel(s *sim.Scheduler, rec *metrics.Recorder, theme Theme) Panel {
	p := Panel{sched: s, recorder: rec, st: newStyles(theme), width: 80}
	p.refresh()
	return p
}

// Run shows the panel until the user quits or the scheduler stops.
func Run(s *sim.Scheduler, rec *metrics.Recorder, theme Theme) error {
	_, err := tea.NewProgram(NewPanel(s, rec, theme), tea.WithAltScreen()).Run()
	return err
}

func (p Panel) Init() tea.Cmd { return tick() }

func (p Panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKey(msg)
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil
	case tickMsg:
		p.refresh()
		if p.snap.quit {
			return p, tea.Quit
		}
		return p, tick()
	}
	return p, nil
}

func (p Panel) handleKey(msg tea.KeyMsg) (Panel, tea.Cmd) {
	p.message = ""
	switch msg.String() {
	case "q", "ctrl+c":
		p.sched.Quit()
		return p, tea.Quit
	case " ":
		p.sched.WithLock(func(l *sim.Locked) error {
			l.SetPaused(!l.Paused())
			return nil
		})
	case "s":
		p.sched.WithLock(func(l *sim.Locked) error {
			if !l.Paused() {
				p.message = "pause before stepping"
				return nil
			}
			l.SetStepInc(true)
			return nil
		})
	case "p":
		p.sched.WithLock(func(l *sim.Locked) error {
			l.SetPhysicsEnabled(!l.PhysicsEnabled())
			return nil
		})
	}
	p.refresh()
	return p, nil
}

func (p *Panel) refresh() {
	var snap snapshot
	p.sched.WithLock(func(l *sim.Locked) error {
		snap.times = l.Times()
		snap.state = l.State()
		snap.physics = l.PhysicsEnabled()
		snap.quit = l.UserQuit()
		snap.err = l.Err()
		if w := l.World(); w != nil {
			snap.world = w.Name
		}
		g := l.Graph()
		if g == nil {
			return nil
		}
		for _, e := range g.OfKind(scene.KindBody) {
			snap.bodies = append(snap.bodies, e.Object.(physics.Body).Position())
		}
		for _, e := range g.OfKind(scene.KindJoint) {
			j := e.Object.(physics.Joint)
			a, err := j.Anchor(0)
			if err != nil {
				continue
			}
			snap.anchors = append(snap.anchors, a)
			for _, b := range []physics.Body{j.Body1(), j.Body2()} {
				if b != nil {
					snap.links = append(snap.links, link{a, b.Position()})
				}
			}
		}
		return nil
	})
	p.snap = snap
}

func (p Panel) View() string {
	st := p.st
	snap := p.snap
	var b strings.Builder

	status := st.running.Render("● running")
	if snap.times.Paused {
		status = st.paused.Render("○ paused")
	}
	name := snap.world
	if name == "" {
		name = "no world"
	}
	b.WriteString(fmt.Sprintf("\n %s  %s  %s\n", st.title.Render(name), status, st.dim.Render(snap.state.String())))

	b.WriteString(" " + st.dim.Render("sim ") + st.text.Render(fmt.Sprintf("%8.3fs", snap.times.Sim.Seconds())))
	b.WriteString("  " + st.dim.Render("real ") + st.text.Render(fmt.Sprintf("%8.3fs", snap.times.Real.Seconds())))
	b.WriteString("  " + st.dim.Render("pause ") + st.text.Render(fmt.Sprintf("%8.3fs", snap.times.Pause.Seconds())))
	b.WriteString("  " + st.dim.Render("steps ") + st.text.Render(fmt.Sprintf("%d", snap.times.Steps)) + "\n")

	physicsState := "on"
	if !snap.physics {
		physicsState = "off"
	}
	b.WriteString(" " + st.dim.Render("physics ") + st.text.Render(physicsState) + "\n\n")

	b.WriteString(st.panel.Render(p.drawScene()) + "\n")

	if p.recorder != nil {
		if series := p.recorder.RTFSeries(graphPoints); len(series) > 1 {
			chart := asciigraph.Plot(series,
				asciigraph.Height(4),
				asciigraph.Width(graphPoints),
				asciigraph.Caption("real time factor"))
			b.WriteString(st.dim.Render(chart) + "\n")
		}
	}

	if snap.err != nil {
		b.WriteString(" " + st.err.Render(snap.err.Error()) + "\n")
	}
	if p.message != "" {
		b.WriteString(" " + st.paused.Render(p.message) + "\n")
	}
	b.WriteString("\n" + st.dimmer.Render(" space pause  s step  p physics  q quit") + "\n")
	return b.String()
}

func (p Panel) drawScene() string {
	c := newCanvas(canvasWidth, canvasHeight, cellsPerMeter)
	for _, l := range p.snap.links {
		c.line(l.from, l.to, '·')
	}
	for _, a := range p.snap.anchors {
		c.plot(a, '+')
	}
	for _, pos := range p.snap.bodies {
		c.plot(pos, 'O')
	}
	return c.String()
}
