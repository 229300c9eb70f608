// Package sim drives a loaded world. A Scheduler moves through LOAD, INIT and
// RUN, steps the physics engine on its own goroutine and serves pause, step,
// selection and time queries from any other goroutine.
//
// Every piece of scheduler state sits behind one mutex. Code running under
// that mutex, such as pause subscribers and observers, receives a *Locked
// handle and must use it instead of the Scheduler methods, which would
// deadlock.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/san-kum/robosim/internal/config"
	"github.com/san-kum/robosim/internal/logging"
	"github.com/san-kum/robosim/internal/physics"
	"github.com/san-kum/robosim/internal/scene"
)

// DefaultSlot is the budget window used when SetUpdateBudget gets none.
const DefaultSlot = time.Second

const timeoutPoll = 10 * time.Millisecond

type Scheduler struct {
	mu sync.Mutex
	l  Locked

	registry *physics.Registry
	log      logging.Logger
	clock    *Clock

	state          State
	loaded         bool
	closing        bool
	paused         bool
	stepInc        bool
	userQuit       bool
	physicsEnabled bool
	timeout        time.Duration
	stepTime       time.Duration

	budget      int
	slot        time.Duration
	slotStart   time.Time
	slotUpdates int

	steps uint64
	err   error

	path     string
	serverID string
	world    *config.World
	engine   physics.Engine
	graph    *scene.Graph

	selEntity xid.ID
	selBody   xid.ID

	pauseSig  PauseSignal
	observers []Observer

	stop chan struct{}
	done chan struct{}
	quit chan struct{}
}

type Option func(*Scheduler)

func WithRegistry(r *physics.Registry) Option {
	return func(s *Scheduler) { s.registry = r }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func WithClock(c *Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		registry: physics.Default,
		log:      logging.Nop(),
		slot:     DefaultSlot,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = NewClock(nil)
	}
	s.l.s = s
	return s
}

// Load reads the world file at path and prepares it for Init.
func (s *Scheduler) Load(path, serverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkUnloaded("Load")

	w, err := config.Load(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	return s.load(w, path, serverID)
}

// LoadWorld prepares an already parsed world for Init.
func (s *Scheduler) LoadWorld(w *config.World, serverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkUnloaded("LoadWorld")

	if err := w.Validate(); err != nil {
		return &LoadError{Err: err}
	}
	return s.load(w, "", serverID)
}

func (s *Scheduler) checkUnloaded(op string) {
	if s.loaded || s.closing {
		violate(op, "a world is already loaded")
	}
}

func (s *Scheduler) load(w *config.World, path, serverID string) error {
	s.state = StateLoad

	engine, err := s.registry.New(w.Physics.Engine)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if err := engine.Load(w.Physics); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if err := engine.Init(); err != nil {
		engine.Close()
		return &LoadError{Path: path, Err: err}
	}
	g, err := scene.Build(w, engine)
	if err != nil {
		engine.Close()
		return &LoadError{Path: path, Err: err}
	}

	s.path = path
	s.serverID = serverID
	s.world = w
	s.engine = engine
	s.graph = g
	s.paused = w.Paused
	s.stepInc = false
	s.userQuit = false
	s.physicsEnabled = true
	s.timeout = 0
	s.stepTime = w.Physics.StepDuration()
	s.budget, s.slot = updateBudget(w.Physics.UpdateRate)
	s.slotUpdates = 0
	s.steps = 0
	s.err = nil
	s.selEntity = xid.NilID()
	s.selBody = xid.NilID()
	s.quit = make(chan struct{})
	s.clock.Reset()
	s.slotStart = s.clock.Now()

	s.loaded = true
	s.state = StateInit
	s.log.Info("world loaded",
		"world", w.Name,
		"engine", engine.Name(),
		"entities", g.Len(),
		"step", s.stepTime,
		"server", serverID)
	return nil
}

// updateBudget spreads an update_rate of n per second as one update per
// 1/n second slot.
func updateBudget(rate int) (int, time.Duration) {
	if rate <= 0 {
		return 0, DefaultSlot
	}
	return 1, time.Second / time.Duration(rate)
}

// Init starts the physics goroutine.
func (s *Scheduler) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || s.state != StateInit {
		violate("Init", "called before a successful Load")
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.quit, s.done)
	s.state = StateRun
	s.log.Info("physics started", "paused", s.paused)
}

// MainLoop blocks until Quit, the timeout, a step failure or ctx ends. It
// then waits for the physics goroutine to exit. The returned error is the
// step failure or the context error, if any.
func (s *Scheduler) MainLoop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRun {
		s.mu.Unlock()
		violate("MainLoop", "called before Init")
	}
	quit, done := s.quit, s.done
	s.mu.Unlock()

	tick := time.NewTicker(timeoutPoll)
	defer tick.Stop()

	var ctxErr error
loop:
	for {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			s.quitWith("context done")
			break loop
		case <-quit:
			break loop
		case <-done:
			break loop
		case <-tick.C:
			if s.timedOut() {
				s.quitWith("timeout")
				break loop
			}
		}
	}
	<-done

	if err := s.Err(); err != nil {
		return err
	}
	return ctxErr
}

func (s *Scheduler) timedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout > 0 && s.clock.Real() > s.timeout
}

// Quit ends MainLoop and the physics goroutine.
func (s *Scheduler) Quit() { s.quitWith("user") }

func (s *Scheduler) quitWith(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.quit(reason)
}

// Close stops the physics goroutine and releases the engine world. The
// scheduler is unloaded afterwards and may Load again. Closing an unloaded
// scheduler does nothing.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if !s.loaded || s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.Detach()
	s.graph.Clear()
	err := s.engine.Close()

	s.graph = nil
	s.engine = nil
	s.done = nil
	s.selEntity = xid.NilID()
	s.selBody = xid.NilID()
	s.loaded = false
	s.closing = false
	s.state = StateLoad
	s.log.Info("world closed", "steps", s.steps, "sim", s.clock.Sim())
	return err
}

// Fini closes the scheduler and drops the world description and every
// subscriber. It is safe to call at any time, any number of times.
func (s *Scheduler) Fini() {
	if err := s.Close(); err != nil {
		s.log.Warn("close failed", "error", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = nil
	s.path = ""
	s.observers = nil
	s.pauseSig.reset()
}

// Save writes the live scene as a world file. An empty path writes back to
// the file the world was loaded from.
func (s *Scheduler) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if path == "" {
		path = s.path
	}
	if path == "" {
		return ErrNoPath
	}
	w, err := s.graph.Snapshot(s.world)
	if err != nil {
		return err
	}
	w.Paused = s.paused
	if err := config.Save(path, w); err != nil {
		return err
	}
	s.log.Info("world saved", "path", path)
	return nil
}

// WithLock runs fn while holding the scheduler lock.
func (s *Scheduler) WithLock(fn func(l *Locked) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.l)
}

func with[T any](s *Scheduler, fn func(*Locked) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.l)
}

func (s *Scheduler) State() State             { return with(s, (*Locked).State) }
func (s *Scheduler) Loaded() bool             { return with(s, (*Locked).Loaded) }
func (s *Scheduler) Paused() bool             { return with(s, (*Locked).Paused) }
func (s *Scheduler) StepInc() bool            { return with(s, (*Locked).StepInc) }
func (s *Scheduler) UserQuit() bool           { return with(s, (*Locked).UserQuit) }
func (s *Scheduler) PhysicsEnabled() bool     { return with(s, (*Locked).PhysicsEnabled) }
func (s *Scheduler) SimTime() time.Duration   { return with(s, (*Locked).SimTime) }
func (s *Scheduler) PauseTime() time.Duration { return with(s, (*Locked).PauseTime) }
func (s *Scheduler) RealTime() time.Duration  { return with(s, (*Locked).RealTime) }
func (s *Scheduler) StartTime() time.Time     { return with(s, (*Locked).StartTime) }
func (s *Scheduler) WallTime() time.Time      { return with(s, (*Locked).WallTime) }
func (s *Scheduler) StepTime() time.Duration  { return with(s, (*Locked).StepTime) }
func (s *Scheduler) Timeout() time.Duration   { return with(s, (*Locked).Timeout) }
func (s *Scheduler) Steps() uint64            { return with(s, (*Locked).Steps) }
func (s *Scheduler) Times() Times             { return with(s, (*Locked).Times) }
func (s *Scheduler) ServerID() string         { return with(s, (*Locked).ServerID) }
func (s *Scheduler) Path() string             { return with(s, (*Locked).Path) }
func (s *Scheduler) Err() error               { return with(s, (*Locked).Err) }
func (s *Scheduler) Entities() []EntityInfo   { return with(s, (*Locked).Entities) }
func (s *Scheduler) World() *config.World     { return with(s, (*Locked).World) }

func (s *Scheduler) SelectedEntity() (xid.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.SelectedEntity()
}

func (s *Scheduler) SelectedBody() (xid.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.SelectedBody()
}

func (s *Scheduler) ParentModel(id xid.ID) (xid.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.ParentModel(id)
}

func (s *Scheduler) ParentBody(id xid.ID) (xid.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.ParentBody(id)
}

func (s *Scheduler) Entity(id xid.ID) (EntityInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.Entity(id)
}

func (s *Scheduler) SetPaused(p bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetPaused(p)
}

func (s *Scheduler) SetStepInc(step bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetStepInc(step)
}

func (s *Scheduler) SetPhysicsEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetPhysicsEnabled(on)
}

func (s *Scheduler) SetSimTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetSimTime(d)
}

func (s *Scheduler) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetTimeout(d)
}

func (s *Scheduler) SetUpdateBudget(n int, slot time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetUpdateBudget(n, slot)
}

func (s *Scheduler) SetSelectedEntity(id xid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetSelectedEntity(id)
}

func (s *Scheduler) SetSelectedBody(id xid.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.SetSelectedBody(id)
}

func (s *Scheduler) ConnectPauseSignal(fn PauseFunc) Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l.ConnectPauseSignal(fn)
}

func (s *Scheduler) DisconnectPauseSignal(c Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.DisconnectPauseSignal(c)
}

func (s *Scheduler) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.AddObserver(o)
}
