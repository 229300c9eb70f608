package physics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAxis indicates an axis index the joint does not have.
	ErrInvalidAxis = errors.New("physics: invalid axis index")

	// ErrUnsupportedParameter indicates a parameter key the joint does not know.
	ErrUnsupportedParameter = errors.New("physics: unsupported parameter")

	// ErrInvalidValue indicates a parameter value outside its domain.
	ErrInvalidValue = errors.New("physics: invalid parameter value")

	// ErrUnsupportedAxis indicates an axis direction the engine cannot represent.
	ErrUnsupportedAxis = errors.New("physics: axis direction not supported by engine")

	// ErrUnknownKind indicates a shape or joint type with no factory.
	ErrUnknownKind = errors.New("physics: unknown kind")

	// ErrUnknownEngine indicates an engine name missing from the registry.
	ErrUnknownEngine = errors.New("physics: unknown engine")

	// ErrNotAttached indicates a joint operation that needs attached bodies.
	ErrNotAttached = errors.New("physics: joint not attached")

	// ErrClosed indicates a call into an engine after Close.
	ErrClosed = errors.New("physics: engine closed")

	// ErrContractViolation indicates an out-of-order lifecycle call.
	ErrContractViolation = errors.New("physics: contract violation")
)

// AxisError reports an out of range axis index on a joint.
type AxisError struct {
	Joint string
	Index int
}

func (e *AxisError) Error() string {
	return fmt.Sprintf("physics: joint %s: invalid axis index %d", e.Joint, e.Index)
}

func (e *AxisError) Unwrap() error { return ErrInvalidAxis }

// ParamError reports a rejected Param or SetParam call.
type ParamError struct {
	Joint   string
	Key     string
	Wrapped error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("physics: joint %s: param %q: %v", e.Joint, e.Key, e.Wrapped)
}

func (e *ParamError) Unwrap() error { return e.Wrapped }

// CheckAxis returns an AxisError unless 0 <= index < count.
func CheckAxis(joint string, index, count int) error {
	if index < 0 || index >= count {
		return &AxisError{Joint: joint, Index: index}
	}
	return nil
}

func UnsupportedParam(joint, key string) error {
	return &ParamError{Joint: joint, Key: key, Wrapped: ErrUnsupportedParameter}
}
