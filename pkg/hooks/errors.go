package hooks

import (
	"errors"
	"fmt"

	rterrors "github.com/vango-dev/hookrt/internal/errors"
)

// Sentinel errors for the runtime's error taxonomy. Use errors.Is to test a
// returned or reported error against them.
var (
	// ErrSlotOrderMismatch means the hook kind at a slot index differs from
	// the kind recorded on the previous render.
	ErrSlotOrderMismatch = errors.New("hooks: slot order mismatch")

	// ErrSlotCountMismatch means a render called more or fewer hooks than
	// the previous render of the same instance.
	ErrSlotCountMismatch = errors.New("hooks: slot count mismatch")

	// ErrStaleSetter is the diagnostic for a state setter invoked after its
	// instance was torn down. The update is dropped.
	ErrStaleSetter = errors.New("hooks: state setter called after unmount")

	// ErrEffectExecution is reported when an effect setup or cleanup panics.
	ErrEffectExecution = errors.New("hooks: effect execution failed")

	// ErrMissingProvider means a context without a default was consumed
	// with no providing ancestor.
	ErrMissingProvider = errors.New("hooks: no provider for context")

	// ErrUnknownInstance is returned for IDs the runtime does not track.
	ErrUnknownInstance = errors.New("hooks: unknown instance")

	// ErrUnmounted is returned when a lifecycle call targets an instance
	// that is unmounting or unmounted.
	ErrUnmounted = errors.New("hooks: instance unmounted")

	// ErrRenderInProgress is returned by BeginRender when the instance is
	// already rendering.
	ErrRenderInProgress = errors.New("hooks: render already in progress")

	// ErrRenderFinished is returned when a finished or aborted render is
	// used again.
	ErrRenderFinished = errors.New("hooks: render already finished")

	// ErrNothingToCommit is returned by Commit when the instance has no
	// completed, uncommitted render.
	ErrNothingToCommit = errors.New("hooks: nothing to commit")

	// ErrChildOrder is returned by SetChildOrder when the IDs are not
	// exactly the parent's children.
	ErrChildOrder = errors.New("hooks: child order does not match children")

	// ErrNotProvider is returned by Context.Update when the instance does
	// not provide the context.
	ErrNotProvider = errors.New("hooks: instance does not provide context")
)

// HookError describes a hook usage error together with the violating
// instance and slot index.
type HookError struct {
	// Err is one of the sentinel errors above.
	Err error

	// Instance is the violating instance.
	Instance InstanceID

	// Name is the instance's display name.
	Name string

	// Slot is the divergent slot index, or -1.
	Slot int

	// Expected and Actual are the recorded and requested slot kinds.
	// Expected is zero when the render went past the recorded slot count.
	Expected SlotKind
	Actual   SlotKind

	// Detail carries extra context (e.g. counts).
	Detail string
}

// Error implements the error interface.
func (e *HookError) Error() string {
	msg := fmt.Sprintf("%v in %s", e.Err, e.instanceLabel())
	if e.Slot >= 0 {
		msg += fmt.Sprintf(" at slot %d", e.Slot)
	}
	if d := e.describe(); d != "" {
		msg += ": " + d
	}
	return msg
}

// Unwrap returns the sentinel error.
func (e *HookError) Unwrap() error {
	return e.Err
}

// Coded converts the error into a formatted diagnostic.
func (e *HookError) Coded() *rterrors.Error {
	ce := rterrors.New(codeFor(e.Err)).WithInstance(e.instanceLabel()).WithSlot(e.Slot).Wrap(e)
	if d := e.describe(); d != "" {
		ce.WithDetail(d)
	}
	return ce
}

func (e *HookError) instanceLabel() string {
	if e.Name == "" {
		return fmt.Sprintf("#%d", e.Instance)
	}
	return fmt.Sprintf("%s#%d", e.Name, e.Instance)
}

func (e *HookError) describe() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Expected != 0 && e.Actual != 0:
		return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
	case e.Actual != 0:
		return fmt.Sprintf("extra %s hook", e.Actual)
	}
	return ""
}

// EffectError wraps a panic raised by an effect setup or cleanup function.
type EffectError struct {
	Instance InstanceID
	Name     string
	Slot     int

	// Phase is "setup" or "cleanup".
	Phase string

	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e *EffectError) Error() string {
	return fmt.Sprintf("%v: %s %s#%d slot %d: %v", ErrEffectExecution, e.Phase, e.Name, e.Instance, e.Slot, e.Value)
}

// Unwrap exposes ErrEffectExecution and, when the panic value was an error,
// that error too.
func (e *EffectError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrEffectExecution, err}
	}
	return []error{ErrEffectExecution}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrSlotOrderMismatch):
		return "H001"
	case errors.Is(err, ErrSlotCountMismatch):
		return "H002"
	case errors.Is(err, ErrStaleSetter):
		return "H003"
	case errors.Is(err, ErrEffectExecution):
		return "H020"
	case errors.Is(err, ErrMissingProvider):
		return "H040"
	case errors.Is(err, ErrNotProvider):
		return "H041"
	default:
		return "H005"
	}
}
