package metrics

import (
	"time"

	"github.com/san-kum/robosim/internal/sim"
)

type Metric interface {
	Name() string
	Observe(t sim.Times)
	Value() float64
	Reset()
}

// window keeps the first and latest observation.
type window struct {
	first, last sim.Times
	samples     int
}

func (w *window) observe(t sim.Times) {
	if w.samples == 0 {
		w.first = t
	}
	w.last = t
	w.samples++
}

func (w *window) elapsed() time.Duration { return w.last.Real - w.first.Real }

func (w *window) reset() { *w = window{} }

// RealTimeFactor is simulation time gained per unit of real time.
type RealTimeFactor struct {
	window
}

func NewRealTimeFactor() *RealTimeFactor { return &RealTimeFactor{} }

func (r *RealTimeFactor) Name() string        { return "real_time_factor" }
func (r *RealTimeFactor) Observe(t sim.Times) { r.observe(t) }
func (r *RealTimeFactor) Reset()              { r.reset() }

func (r *RealTimeFactor) Value() float64 {
	elapsed := r.elapsed()
	if elapsed <= 0 {
		return 0
	}
	return float64(r.last.Sim-r.first.Sim) / float64(elapsed)
}

// UpdateRate is engine steps per real second.
type UpdateRate struct {
	window
}

func NewUpdateRate() *UpdateRate { return &UpdateRate{} }

func (u *UpdateRate) Name() string        { return "update_rate" }
func (u *UpdateRate) Observe(t sim.Times) { u.observe(t) }
func (u *UpdateRate) Reset()              { u.reset() }

func (u *UpdateRate) Value() float64 {
	elapsed := u.elapsed()
	if elapsed <= 0 {
		return 0
	}
	return float64(u.last.Steps-u.first.Steps) / elapsed.Seconds()
}

// PauseRatio is the share of clock time spent paused.
type PauseRatio struct {
	last sim.Times
}

func NewPauseRatio() *PauseRatio { return &PauseRatio{} }

func (p *PauseRatio) Name() string        { return "pause_ratio" }
func (p *PauseRatio) Observe(t sim.Times) { p.last = t }
func (p *PauseRatio) Reset()              { p.last = sim.Times{} }

func (p *PauseRatio) Value() float64 {
	total := p.last.Sim + p.last.Pause
	if total <= 0 {
		return 0
	}
	return float64(p.last.Pause) / float64(total)
}

func Defaults() []Metric {
	return []Metric{NewRealTimeFactor(), NewUpdateRate(), NewPauseRatio()}
}
