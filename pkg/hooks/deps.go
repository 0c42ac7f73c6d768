package hooks

import (
	"fmt"
	"log/slog"
)

// Deps is an effect or memo dependency list.
//
//   - nil (Always()): changed on every render.
//   - empty (Once()): changed only on the first render.
//   - non-empty (On(...)): changed when the length differs or any element
//     differs from the previous committed list under Equal.
type Deps []any

// Always returns the dependency list that re-runs after every commit.
func Always() Deps {
	return nil
}

// Once returns the dependency list that runs on mount only.
func Once() Deps {
	return Deps{}
}

// On returns a dependency list of the given values. On() is the same as Once().
func On(values ...any) Deps {
	if len(values) == 0 {
		return Deps{}
	}
	return Deps(values)
}

// depsChanged compares next against the previously recorded list. A length
// change is a usage error: it is logged and treated as changed.
func (rt *Runtime) depsChanged(r *Render, idx int, prev Deps, prevSet bool, next Deps) bool {
	if !prevSet || prev == nil || next == nil {
		return true
	}
	if len(prev) != len(next) {
		err := &HookError{
			Err:      fmt.Errorf("dependency list length changed"),
			Instance: r.inst.id,
			Name:     r.inst.name,
			Slot:     idx,
			Detail:   fmt.Sprintf("%d -> %d", len(prev), len(next)),
		}
		rt.logger.Warn("dependency list length changed",
			slog.Uint64("instance", uint64(r.inst.id)),
			slog.String("name", r.inst.name),
			slog.Int("slot", idx),
			slog.Int("previous", len(prev)),
			slog.Int("current", len(next)),
		)
		rt.emit(Event{Kind: EventDepsLengthChanged, Instance: r.inst.id, Name: r.inst.name, Slot: idx, Err: err})
		return true
	}
	for i := range next {
		if !Equal(prev[i], next[i]) {
			return true
		}
	}
	return false
}
