package sim

import "time"

// Clock keeps the scheduler's time model. It is not safe for concurrent use;
// the scheduler only touches it under its lock.
type Clock struct {
	now   func() time.Time
	sim   time.Duration
	pause time.Duration
	start time.Time
}

// NewClock returns a clock reading wall time from now, or time.Now if nil.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	c := &Clock{now: now}
	c.start = now()
	return c
}

func (c *Clock) Now() time.Time { return c.now() }

// Reset zeroes simulation and pause time and restarts real time.
func (c *Clock) Reset() {
	c.sim = 0
	c.pause = 0
	c.start = c.now()
}

// Advance adds dt to pause time while paused and to simulation time
// otherwise.
func (c *Clock) Advance(dt time.Duration, paused bool) {
	if dt < 0 {
		return
	}
	if paused {
		c.pause += dt
		return
	}
	c.sim += dt
}

func (c *Clock) Sim() time.Duration     { return c.sim }
func (c *Clock) SetSim(d time.Duration) { c.sim = d }
func (c *Clock) Pause() time.Duration   { return c.pause }
func (c *Clock) Start() time.Time       { return c.start }
func (c *Clock) Real() time.Duration    { return c.now().Sub(c.start) }
