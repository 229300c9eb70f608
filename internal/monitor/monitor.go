// Package monitor serves an HTTP control surface for a running scheduler:
// time and state queries, pause, step and quit commands, entity
// introspection, process resources, CPU profiles and a websocket stream of
// pause changes and clock ticks.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/san-kum/robosim/internal/logging"
	"github.com/san-kum/robosim/internal/metrics"
	"github.com/san-kum/robosim/internal/sim"
)

const (
	defaultTickInterval    = 100 * time.Millisecond
	defaultProfileDuration = time.Second
	maxProfileDuration     = 30 * time.Second
)

// Monitor turns a scheduler into a web server that can be queried and
// controlled while it runs.
type Monitor struct {
	sched      *sim.Scheduler
	recorder   *metrics.Recorder
	log        logging.Logger
	portNumber int

	tickInterval    time.Duration
	profileDuration time.Duration

	hub      *hub
	upgrader websocket.Upgrader
	lastTick time.Duration
	attached bool

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

func New(s *sim.Scheduler) *Monitor {
	return &Monitor{
		sched:           s,
		log:             logging.Nop(),
		tickInterval:    defaultTickInterval,
		profileDuration: defaultProfileDuration,
		hub:             newHub(logging.Nop()),
	}
}

// WithPortNumber sets the port to listen on. Ports below 1000 are refused in
// favour of a random one.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.log.Warn("monitor port not allowed, using a random port", "port", portNumber)
		portNumber = 0
	}
	m.portNumber = portNumber
	return m
}

func (m *Monitor) WithLogger(l logging.Logger) *Monitor {
	m.log = l
	m.hub.log = l
	return m
}

// WithRecorder adds the recorder's metric values to /api/state.
func (m *Monitor) WithRecorder(r *metrics.Recorder) *Monitor {
	m.recorder = r
	return m
}

// WithTickInterval sets the real-time spacing of tick events.
func (m *Monitor) WithTickInterval(d time.Duration) *Monitor {
	m.tickInterval = d
	return m
}

func (m *Monitor) WithProfileDuration(d time.Duration) *Monitor {
	m.profileDuration = d
	return m
}

// Attach subscribes the event stream to the scheduler's pause signal and
// updates. It is done once; StartServer calls it.
func (m *Monitor) Attach() {
	if m.attached {
		return
	}
	m.attached = true
	m.sched.ConnectPauseSignal(func(l *sim.Locked, paused bool) {
		m.hub.publish(eventFrom("pause", l.Times()))
	})
	m.sched.AddObserver(sim.ObserverFunc(m.onUpdate))
}

// onUpdate runs under the scheduler lock, as do all accesses to lastTick.
func (m *Monitor) onUpdate(_ *sim.Locked, t sim.Times) {
	if t.Real-m.lastTick < m.tickInterval && t.Real >= m.lastTick {
		return
	}
	m.lastTick = t.Real
	m.hub.publish(eventFrom("tick", t))
}

func eventFrom(kind string, t sim.Times) Event {
	return Event{
		Type:   kind,
		Paused: t.Paused,
		Sim:    t.Sim.Seconds(),
		Real:   t.Real.Seconds(),
		Pause:  t.Pause.Seconds(),
		Steps:  t.Steps,
	}
}

// Router returns the API routes.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", m.now).Methods(http.MethodGet)
	r.HandleFunc("/api/state", m.state).Methods(http.MethodGet)
	r.HandleFunc("/api/pause", m.pause).Methods(http.MethodPost)
	r.HandleFunc("/api/continue", m.resume).Methods(http.MethodPost)
	r.HandleFunc("/api/step", m.step).Methods(http.MethodPost)
	r.HandleFunc("/api/quit", m.quit).Methods(http.MethodPost)
	r.HandleFunc("/api/physics/{mode:on|off}", m.physics).Methods(http.MethodPost)
	r.HandleFunc("/api/entities", m.listEntities).Methods(http.MethodGet)
	r.HandleFunc("/api/entity/{id}", m.entityDetails).Methods(http.MethodGet)
	r.HandleFunc("/api/select/{id}", m.selectEntity).Methods(http.MethodPost)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/events", m.events)
	return r
}

// StartServer listens on the configured port and serves in the background.
// It returns the base URL.
func (m *Monitor) StartServer() (string, error) {
	m.Attach()

	addr := ":" + strconv.Itoa(m.portNumber)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("monitor: listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: m.Router(), ReadHeaderTimeout: 5 * time.Second}

	m.mu.Lock()
	m.server = srv
	m.listener = listener
	m.mu.Unlock()

	url := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	m.log.Info("monitoring simulation", "url", url)

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			m.log.Error("monitor server stopped", "error", err)
		}
	}()
	return url, nil
}

// Close stops the server and drops every event subscriber.
func (m *Monitor) Close() error {
	m.hub.closeAll()
	m.mu.Lock()
	srv := m.server
	m.server = nil
	m.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

type nowRsp struct {
	Sim   float64   `json:"sim"`
	Pause float64   `json:"pause"`
	Real  float64   `json:"real"`
	Start time.Time `json:"start"`
	Wall  time.Time `json:"wall"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	t := m.sched.Times()
	writeJSON(w, http.StatusOK, nowRsp{
		Sim:   t.Sim.Seconds(),
		Pause: t.Pause.Seconds(),
		Real:  t.Real.Seconds(),
		Start: t.Start,
		Wall:  t.Wall,
	})
}

type stateRsp struct {
	State          string             `json:"state"`
	Loaded         bool               `json:"loaded"`
	Paused         bool               `json:"paused"`
	StepPending    bool               `json:"step_pending"`
	PhysicsEnabled bool               `json:"physics_enabled"`
	Quit           bool               `json:"quit"`
	Steps          uint64             `json:"steps"`
	StepTime       float64            `json:"step_time"`
	Timeout        float64            `json:"timeout,omitempty"`
	ServerID       string             `json:"server_id,omitempty"`
	World          string             `json:"world,omitempty"`
	SelectedEntity string             `json:"selected_entity,omitempty"`
	SelectedBody   string             `json:"selected_body,omitempty"`
	Error          string             `json:"error,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	var rsp stateRsp
	m.sched.WithLock(func(l *sim.Locked) error {
		rsp = stateRsp{
			State:          l.State().String(),
			Loaded:         l.Loaded(),
			Paused:         l.Paused(),
			StepPending:    l.StepInc(),
			PhysicsEnabled: l.PhysicsEnabled(),
			Quit:           l.UserQuit(),
			Steps:          l.Steps(),
			StepTime:       l.StepTime().Seconds(),
			Timeout:        l.Timeout().Seconds(),
			ServerID:       l.ServerID(),
		}
		if wd := l.World(); wd != nil {
			rsp.World = wd.Name
		}
		if id, ok := l.SelectedEntity(); ok {
			rsp.SelectedEntity = id.String()
		}
		if id, ok := l.SelectedBody(); ok {
			rsp.SelectedBody = id.String()
		}
		if err := l.Err(); err != nil {
			rsp.Error = err.Error()
		}
		return nil
	})
	if m.recorder != nil {
		rsp.Metrics = m.recorder.Values()
	}
	writeJSON(w, http.StatusOK, rsp)
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.sched.SetPaused(true)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) resume(w http.ResponseWriter, _ *http.Request) {
	m.sched.SetPaused(false)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	err := m.sched.WithLock(func(l *sim.Locked) error {
		if !l.Paused() {
			return fmt.Errorf("simulation is running; pause it first")
		}
		l.SetStepInc(true)
		return nil
	})
	if err != nil {
		writeError(w, http.StatusConflict, "%v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) quit(w http.ResponseWriter, _ *http.Request) {
	m.sched.Quit()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) physics(w http.ResponseWriter, r *http.Request) {
	m.sched.SetPhysicsEnabled(mux.Vars(r)["mode"] == "on")
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) listEntities(w http.ResponseWriter, _ *http.Request) {
	entities := m.sched.Entities()
	if entities == nil {
		entities = []sim.EntityInfo{}
	}
	writeJSON(w, http.StatusOK, entities)
}

func (m *Monitor) parseIDOr404(w http.ResponseWriter, r *http.Request) (xid.ID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := xid.FromString(raw)
	if err != nil {
		writeError(w, http.StatusNotFound, "entity %s not found", raw)
		return xid.NilID(), false
	}
	return id, true
}

func (m *Monitor) entityDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := m.parseIDOr404(w, r)
	if !ok {
		return
	}

	var d *entityDetail
	m.sched.WithLock(func(l *sim.Locked) error {
		d = describe(l, id)
		return nil
	})
	if d == nil {
		writeError(w, http.StatusNotFound, "entity %s not found", id)
		return
	}

	var buf bytes.Buffer
	serializer := goseth.NewSerializer()
	serializer.SetRoot(d)
	serializer.SetMaxDepth(2)
	if err := serializer.Serialize(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func (m *Monitor) selectEntity(w http.ResponseWriter, r *http.Request) {
	if mux.Vars(r)["id"] == "none" {
		m.sched.SetSelectedEntity(xid.NilID())
		w.WriteHeader(http.StatusNoContent)
		return
	}
	id, ok := m.parseIDOr404(w, r)
	if !ok {
		return
	}
	err := m.sched.WithLock(func(l *sim.Locked) error {
		if _, ok := l.Entity(id); !ok {
			return fmt.Errorf("entity %s not found", id)
		}
		l.SetSelectedEntity(id)
		return nil
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
	Goroutines int     `json:"goroutines"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: mem.RSS,
		Goroutines: runtime.NumGoroutine(),
	})
}

// collectProfile samples the CPU for ?seconds= (default one second) and
// returns the parsed profile.
func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	d := m.profileDuration
	if s := r.URL.Query().Get("seconds"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "invalid seconds %q", s)
			return
		}
		d = time.Duration(v * float64(time.Second))
	}
	if d > maxProfileDuration {
		d = maxProfileDuration
	}

	buf := bytes.NewBuffer(nil)
	if err := pprof.StartCPUProfile(buf); err != nil {
		writeError(w, http.StatusConflict, "%v", err)
		return
	}
	time.Sleep(d)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (m *Monitor) events(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	s := m.hub.add(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			m.hub.remove(s)
			return
		}
	}
}
