package hooks

import (
	"context"
	"time"
)

// EventKind identifies a runtime event delivered to observers.
type EventKind uint8

const (
	EventMount EventKind = iota + 1
	EventRender
	EventRenderAborted
	EventCommit
	EventRenderRequest
	EventInvalidate
	EventEffectSetup
	EventEffectCleanup
	EventEffectError
	EventFlushStart
	EventFlushEnd
	EventUnmount
	EventStaleSetter
	EventDepsLengthChanged
)

// String returns the event name. Names are stable and used as metric labels.
func (k EventKind) String() string {
	switch k {
	case EventMount:
		return "mount"
	case EventRender:
		return "render"
	case EventRenderAborted:
		return "render_aborted"
	case EventCommit:
		return "commit"
	case EventRenderRequest:
		return "render_request"
	case EventInvalidate:
		return "invalidate"
	case EventEffectSetup:
		return "effect_setup"
	case EventEffectCleanup:
		return "effect_cleanup"
	case EventEffectError:
		return "effect_error"
	case EventFlushStart:
		return "flush_start"
	case EventFlushEnd:
		return "flush_end"
	case EventUnmount:
		return "unmount"
	case EventStaleSetter:
		return "stale_setter"
	case EventDepsLengthChanged:
		return "deps_length_changed"
	default:
		return "unknown"
	}
}

// Event describes something the runtime did.
type Event struct {
	Kind EventKind

	// Runtime is the ID of the emitting runtime.
	Runtime string

	// Instance is the instance involved, zero for runtime-wide events.
	Instance InstanceID

	// Name is the instance's display name.
	Name string

	// Slot is the slot index involved, or -1.
	Slot int

	// Count is event specific: effects committed, subscribers invalidated,
	// instances requested, or effects executed by a flush.
	Count int

	// Duration is set on EventRender and EventFlushEnd.
	Duration time.Duration

	// Err is set on error and diagnostic events.
	Err error

	// Context is the context passed to FlushEffects for flush events and
	// context.Background() otherwise.
	Context context.Context
}

// Observer receives runtime events. Events about render requests and stale
// setters are emitted on the goroutine that called the setter, so
// implementations must be safe for concurrent use.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

func (rt *Runtime) emit(ev Event) {
	if len(rt.observers) == 0 {
		return
	}
	ev.Runtime = rt.id
	if ev.Context == nil {
		ev.Context = context.Background()
	}
	for _, o := range rt.observers {
		o.Observe(ev)
	}
}
