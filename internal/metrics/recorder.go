package metrics

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/xid"

	"github.com/san-kum/robosim/internal/physics"
	"github.com/san-kum/robosim/internal/scene"
	"github.com/san-kum/robosim/internal/sim"
)

type Sample struct {
	Sim       time.Duration
	Real      time.Duration
	Pause     time.Duration
	Steps     uint64
	Paused    bool
	RTF       float64
	Positions []mgl64.Vec3
}

// Recorder is a sim.Observer that feeds its metrics on every update and
// keeps a sample of the clock and body positions every interval of real
// time. With a positive capacity only the newest samples are kept.
type Recorder struct {
	mu       sync.Mutex
	interval time.Duration
	capacity int
	metrics  []Metric

	bodies  []string
	ids     []xid.ID
	samples []Sample
	prev    sim.Times
	seen    bool
}

func NewRecorder(interval time.Duration, capacity int, ms ...Metric) *Recorder {
	return &Recorder{interval: interval, capacity: capacity, metrics: ms}
}

func (r *Recorder) OnUpdate(l *sim.Locked, t sim.Times) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.metrics {
		m.Observe(t)
	}
	if r.seen && t.Real-r.prev.Real < r.interval {
		return
	}

	g := l.Graph()
	if !r.seen && g != nil {
		for _, e := range g.OfKind(scene.KindBody) {
			r.bodies = append(r.bodies, g.ScopedName(e.ID))
			r.ids = append(r.ids, e.ID)
		}
	}

	s := Sample{
		Sim:       t.Sim,
		Real:      t.Real,
		Pause:     t.Pause,
		Steps:     t.Steps,
		Paused:    t.Paused,
		Positions: make([]mgl64.Vec3, len(r.ids)),
	}
	if r.seen {
		if dr := t.Real - r.prev.Real; dr > 0 {
			s.RTF = float64(t.Sim-r.prev.Sim) / float64(dr)
		}
	}
	if g != nil {
		for i, id := range r.ids {
			if e, ok := g.Lookup(id); ok {
				s.Positions[i] = e.Object.(physics.Body).Position()
			}
		}
	}

	r.samples = append(r.samples, s)
	if r.capacity > 0 && len(r.samples) > r.capacity {
		r.samples = append(r.samples[:0:0], r.samples[len(r.samples)-r.capacity:]...)
	}
	r.prev = t
	r.seen = true
}

// Bodies returns the scoped names of the recorded bodies, in column order.
func (r *Recorder) Bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func (r *Recorder) Last() (Sample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.samples) == 0 {
		return Sample{}, false
	}
	return r.samples[len(r.samples)-1], true
}

// RTFSeries returns the real-time factor of the newest n samples.
func (r *Recorder) RTFSeries(n int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := 0
	if n > 0 && len(r.samples) > n {
		start = len(r.samples) - n
	}
	out := make([]float64, 0, len(r.samples)-start)
	for _, s := range r.samples[start:] {
		out = append(out, s.RTF)
	}
	return out
}

// Values reports every metric by name.
func (r *Recorder) Values() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.metrics {
		m.Reset()
	}
	r.bodies = nil
	r.ids = nil
	r.samples = nil
	r.prev = sim.Times{}
	r.seen = false
}
