package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeNow struct {
	t time.Time
}

func newFakeNow() *fakeNow { return &fakeNow{t: time.Unix(1_700_000_000, 0)} }

func (f *fakeNow) now() time.Time      { return f.t }
func (f *fakeNow) add(d time.Duration) { f.t = f.t.Add(d) }

func TestClockAdvance(t *testing.T) {
	tests := []struct {
		name   string
		steps  []time.Duration
		paused bool
	}{
		{"running", []time.Duration{time.Millisecond, 2 * time.Millisecond, 500 * time.Microsecond}, false},
		{"paused", []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, true},
		{"zero steps", []time.Duration{0, 0, 0}, false},
		{"sub millisecond", []time.Duration{1, 7, 250 * time.Microsecond}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(newFakeNow().now)
			var sum time.Duration
			for _, dt := range tt.steps {
				c.Advance(dt, tt.paused)
				sum += dt
			}
			if tt.paused {
				require.Zero(t, c.Sim())
				require.Equal(t, sum, c.Pause())
			} else {
				require.Equal(t, sum, c.Sim())
				require.Zero(t, c.Pause())
			}
		})
	}
}

func TestClockIgnoresNegativeStep(t *testing.T) {
	c := NewClock(nil)
	c.Advance(time.Second, false)
	c.Advance(-time.Millisecond, false)
	require.Equal(t, time.Second, c.Sim())
}

func TestClockReset(t *testing.T) {
	now := newFakeNow()
	c := NewClock(now.now)
	c.Advance(time.Second, false)
	c.Advance(time.Second, true)

	now.add(5 * time.Second)
	require.Equal(t, 5*time.Second, c.Real())

	c.Reset()
	require.Zero(t, c.Sim())
	require.Zero(t, c.Pause())
	require.Equal(t, now.t, c.Start())
	require.Zero(t, c.Real())

	now.add(1500 * time.Millisecond)
	require.Equal(t, 1500*time.Millisecond, c.Real())
	require.Equal(t, now.t, c.Now())
}

func TestClockSetSim(t *testing.T) {
	c := NewClock(nil)
	c.SetSim(3 * time.Second)
	c.Advance(time.Second, false)
	require.Equal(t, 4*time.Second, c.Sim())
}

func TestPauseSignalOrder(t *testing.T) {
	var p PauseSignal
	var got []int
	p.Connect(func(_ *Locked, _ bool) { got = append(got, 1) })
	c := p.Connect(func(_ *Locked, _ bool) { got = append(got, 2) })
	p.Connect(func(_ *Locked, _ bool) { got = append(got, 3) })
	require.Equal(t, 3, p.Len())

	p.Emit(nil, true)
	p.Disconnect(c)
	p.Disconnect(c)
	p.Emit(nil, false)

	require.Equal(t, []int{1, 2, 3, 1, 3}, got)
	require.Equal(t, 2, p.Len())
}
