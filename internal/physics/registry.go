package physics

import (
	"fmt"
	"sort"
	"sync"
)

type Factory func() Engine

type Registry struct {
	mu      sync.RWMutex
	engines map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = f
}

func (r *Registry) New(name string) (Engine, error) {
	r.mu.RLock()
	f, ok := r.engines[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
	}
	return f(), nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default holds the engines registered from init functions.
var Default = NewRegistry()

func Register(name string, f Factory) { Default.Register(name, f) }
