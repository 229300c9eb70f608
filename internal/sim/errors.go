package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/robosim/internal/physics"
)

var (
	ErrNotLoaded = errors.New("sim: no world loaded")
	ErrNoPath    = errors.New("sim: no path to save to")
)

// ContractViolation is the panic value for lifecycle calls made out of
// order. It unwraps to physics.ErrContractViolation.
type ContractViolation struct {
	Op     string
	Reason string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("sim: %s: %s", e.Op, e.Reason)
}

func (e *ContractViolation) Unwrap() error { return physics.ErrContractViolation }

func violate(op, reason string) {
	panic(&ContractViolation{Op: op, Reason: reason})
}

// LoadError reports a failed Load. The scheduler stays unloaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sim: load: %v", e.Err)
	}
	return fmt.Sprintf("sim: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StepError reports a backend failure during a physics update.
type StepError struct {
	Step    uint64
	SimTime time.Duration
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sim: step %d at %v: %v", e.Step, e.SimTime, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
