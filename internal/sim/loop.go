package sim

import "time"

func (s *Scheduler) run(stop, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		wait, exit := s.iterate()
		if exit {
			return
		}
		if wait <= 0 {
			continue
		}

		t := time.NewTimer(wait)
		select {
		case <-stop:
			t.Stop()
			return
		case <-quit:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// iterate performs one loop pass under the lock. It reports how long the
// goroutine should sleep before the next pass and whether it must exit.
func (s *Scheduler) iterate() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil || s.userQuit || s.closing {
		return 0, true
	}

	if wait := s.throttle(); wait > 0 {
		return wait, false
	}

	stepped, err := s.update()
	if err != nil {
		s.err = err
		s.log.Error("physics step failed", "error", err)
		s.l.quit("step error")
		return 0, true
	}
	if !stepped {
		return s.stepTime, false
	}
	return 0, false
}

// throttle counts an update against the current slot. Once the slot's
// budget is spent it returns the time left until the slot rolls over.
func (s *Scheduler) throttle() time.Duration {
	if s.budget <= 0 {
		return 0
	}
	now := s.clock.Now()
	if now.Sub(s.slotStart) >= s.slot {
		s.slotStart = now
		s.slotUpdates = 0
	}
	if s.slotUpdates >= s.budget {
		return s.slot - now.Sub(s.slotStart)
	}
	s.slotUpdates++
	return 0
}

// update runs one physics update. While paused only a pending step request
// advances simulation time; otherwise the update is idle and counts as pause
// time.
func (s *Scheduler) update() (bool, error) {
	dt := s.stepTime
	step := !s.paused || s.stepInc

	if step && s.physicsEnabled {
		if err := s.engine.Step(dt); err != nil {
			return false, &StepError{Step: s.steps + 1, SimTime: s.clock.Sim(), Err: err}
		}
		s.steps++
	}
	s.clock.Advance(dt, !step)
	if s.paused {
		s.stepInc = false
	}

	if len(s.observers) > 0 {
		t := s.l.Times()
		for _, o := range s.observers {
			o.OnUpdate(&s.l, t)
		}
	}
	return step, nil
}
