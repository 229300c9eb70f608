package sim

import (
	"time"

	"github.com/rs/xid"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/scene"
)

// Locked exposes the scheduler to code that already holds its lock. A
// Locked value must not be kept after the callback that received it returns.
type Locked struct {
	s *Scheduler
}

func (l *Locked) State() State             { return l.s.state }
func (l *Locked) Loaded() bool             { return l.s.loaded }
func (l *Locked) Paused() bool             { return l.s.paused }
func (l *Locked) StepInc() bool            { return l.s.stepInc }
func (l *Locked) UserQuit() bool           { return l.s.userQuit }
func (l *Locked) PhysicsEnabled() bool     { return l.s.physicsEnabled }
func (l *Locked) SimTime() time.Duration   { return l.s.clock.Sim() }
func (l *Locked) PauseTime() time.Duration { return l.s.clock.Pause() }
func (l *Locked) RealTime() time.Duration  { return l.s.clock.Real() }
func (l *Locked) StartTime() time.Time     { return l.s.clock.Start() }
func (l *Locked) WallTime() time.Time      { return l.s.clock.Now() }
func (l *Locked) StepTime() time.Duration  { return l.s.stepTime }
func (l *Locked) Timeout() time.Duration   { return l.s.timeout }
func (l *Locked) Steps() uint64            { return l.s.steps }
func (l *Locked) ServerID() string         { return l.s.serverID }
func (l *Locked) Path() string             { return l.s.path }
func (l *Locked) Err() error               { return l.s.err }
func (l *Locked) World() *config.World     { return l.s.world }

// Graph returns the live scene, or nil when unloaded.
func (l *Locked) Graph() *scene.Graph { return l.s.graph }

func (l *Locked) Times() Times {
	c := l.s.clock
	return Times{
		Sim:    c.Sim(),
		Pause:  c.Pause(),
		Real:   c.Real(),
		Start:  c.Start(),
		Wall:   c.Now(),
		Steps:  l.s.steps,
		Paused: l.s.paused,
	}
}

// SetPaused changes the pause state and fires the pause signal. Setting the
// current state again does nothing. Resuming drops a pending step.
func (l *Locked) SetPaused(p bool) {
	s := l.s
	if s.paused == p {
		return
	}
	s.paused = p
	if !p {
		s.stepInc = false
	}
	s.log.Debug("pause changed", "paused", p, "sim", s.clock.Sim())
	s.pauseSig.Emit(l, p)
}

// SetStepInc requests a single update while paused. It is ignored while
// running.
func (l *Locked) SetStepInc(step bool) {
	if step && !l.s.paused {
		return
	}
	l.s.stepInc = step
}

func (l *Locked) SetPhysicsEnabled(on bool) { l.s.physicsEnabled = on }

func (l *Locked) SetSimTime(d time.Duration) { l.s.clock.SetSim(d) }

// SetTimeout bounds the run by elapsed real time. Zero disables it.
func (l *Locked) SetTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.s.timeout = d
}

// SetUpdateBudget allows at most n updates per slot of wall-clock time.
// n <= 0 removes the limit.
func (l *Locked) SetUpdateBudget(n int, slot time.Duration) {
	s := l.s
	if slot <= 0 {
		slot = DefaultSlot
	}
	s.budget = n
	s.slot = slot
	s.slotStart = s.clock.Now()
	s.slotUpdates = 0
}

func (l *Locked) Quit() { l.quit("user") }

func (l *Locked) quit(reason string) {
	s := l.s
	if s.userQuit {
		return
	}
	s.userQuit = true
	if s.quit != nil {
		close(s.quit)
	}
	s.log.Info("quit", "reason", reason, "sim", s.clock.Sim(), "steps", s.steps)
}

// SetSelectedEntity selects an entity by handle. The body containing it,
// if any, becomes the selected body. A nil handle clears both.
func (l *Locked) SetSelectedEntity(id xid.ID) {
	s := l.s
	s.selEntity = id
	if body, ok := l.ParentBody(id); ok {
		s.selBody = body
	} else if id.IsNil() {
		s.selBody = xid.NilID()
	}
}

func (l *Locked) SetSelectedBody(id xid.ID) { l.s.selBody = id }

// SelectedEntity resolves the selected handle. A handle whose entity no
// longer exists is reported as not found.
func (l *Locked) SelectedEntity() (xid.ID, bool) {
	if _, ok := l.lookup(l.s.selEntity); !ok {
		return xid.NilID(), false
	}
	return l.s.selEntity, true
}

func (l *Locked) SelectedBody() (xid.ID, bool) {
	e, ok := l.lookup(l.s.selBody)
	if !ok || e.Kind != scene.KindBody {
		return xid.NilID(), false
	}
	return e.ID, true
}

// ParentModel returns the closest model at or above id.
func (l *Locked) ParentModel(id xid.ID) (xid.ID, bool) {
	return l.parentOfKind(id, scene.KindModel)
}

// ParentBody returns the closest body at or above id.
func (l *Locked) ParentBody(id xid.ID) (xid.ID, bool) {
	return l.parentOfKind(id, scene.KindBody)
}

func (l *Locked) parentOfKind(id xid.ID, kind scene.Kind) (xid.ID, bool) {
	if l.s.graph == nil {
		return xid.NilID(), false
	}
	e, ok := l.s.graph.ParentOfKind(id, kind)
	if !ok {
		return xid.NilID(), false
	}
	return e.ID, true
}

func (l *Locked) lookup(id xid.ID) (*scene.Entity, bool) {
	if l.s.graph == nil || id.IsNil() {
		return nil, false
	}
	return l.s.graph.Lookup(id)
}

func (l *Locked) Entity(id xid.ID) (EntityInfo, bool) {
	e, ok := l.lookup(id)
	if !ok {
		return EntityInfo{}, false
	}
	return entityInfo(l.s.graph, e), true
}

// Entities lists the scene in build order.
func (l *Locked) Entities() []EntityInfo {
	g := l.s.graph
	if g == nil {
		return nil
	}
	all := g.Entities()
	out := make([]EntityInfo, 0, len(all))
	for _, e := range all {
		out = append(out, entityInfo(g, e))
	}
	return out
}

func (l *Locked) ConnectPauseSignal(fn PauseFunc) Connection {
	return l.s.pauseSig.Connect(fn)
}

func (l *Locked) DisconnectPauseSignal(c Connection) {
	l.s.pauseSig.Disconnect(c)
}

func (l *Locked) AddObserver(o Observer) {
	l.s.observers = append(l.s.observers, o)
}
