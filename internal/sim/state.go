package sim

import (
	"time"

	"github.com/san-kum/robosim/internal/scene"
)

type State int

const (
	StateLoad State = iota
	StateInit
	StateRun
)

func (s State) String() string {
	switch s {
	case StateLoad:
		return "load"
	case StateInit:
		return "init"
	case StateRun:
		return "run"
	default:
		return "unknown"
	}
}

// Times is the clock reading handed to observers after every update.
type Times struct {
	Sim    time.Duration
	Pause  time.Duration
	Real   time.Duration
	Start  time.Time
	Wall   time.Time
	Steps  uint64
	Paused bool
}

// Observer is notified under the lock after each loop update, including the
// idle updates performed while paused.
type Observer interface {
	OnUpdate(l *Locked, t Times)
}

type ObserverFunc func(l *Locked, t Times)

func (f ObserverFunc) OnUpdate(l *Locked, t Times) { f(l, t) }

// EntityInfo is a copy of a scene entity safe to use outside the lock.
type EntityInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Scoped string `json:"scoped"`
	Kind   string `json:"kind"`
	Parent string `json:"parent,omitempty"`
	Static bool   `json:"static,omitempty"`
}

func entityInfo(g *scene.Graph, e *scene.Entity) EntityInfo {
	info := EntityInfo{
		ID:     e.ID.String(),
		Name:   e.Name,
		Scoped: g.ScopedName(e.ID),
		Kind:   e.Kind.String(),
		Static: e.Static,
	}
	if !e.Parent.IsNil() {
		info.Parent = e.Parent.String()
	}
	return info
}
