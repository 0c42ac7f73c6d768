package hooks

import (
	"log/slog"
)

// stateCell is the slot storage behind UseState.
type stateCell[T any] struct {
	inst   *instance
	index  int
	value  T
	setter *Setter[T]

	// pending is guarded by Runtime.mu.
	pending []stateUpdate[T]
}

// stateUpdate is either a literal value or an updater function.
type stateUpdate[T any] struct {
	value T
	fn    func(T) T
}

// Setter enqueues updates for one state slot. The same *Setter is returned
// on every render of the instance, and it is safe to call from any
// goroutine. Updates are applied at the start of the owning instance's next
// render, never during one.
type Setter[T any] struct {
	cell *stateCell[T]
}

// Set enqueues a literal value and requests a re-render. Setting the current
// value while no other update is queued is dropped without scheduling.
func (s *Setter[T]) Set(value T) {
	s.cell.enqueue(stateUpdate[T]{value: value})
}

// Update enqueues an updater. Updaters run in enqueue order at the next
// render, each receiving the result of the previous update.
func (s *Setter[T]) Update(fn func(prev T) T) {
	if fn == nil {
		return
	}
	s.cell.enqueue(stateUpdate[T]{fn: fn})
}

// UseState returns the state value for this slot and its setter. initial is
// stored on the instance's first render only. A function value is stored as
// is; use UseStateLazy to compute the initial value once.
//
// Example:
//
//	count, setCount := hooks.UseState(r, 0)
//	onClick := func() { setCount.Update(func(n int) int { return n + 1 }) }
func UseState[T any](r *Render, initial T) (T, *Setter[T]) {
	return useState(r, func() T { return initial })
}

// UseStateLazy is UseState with a lazily computed initial value. init is
// invoked exactly once over the instance's lifetime, on its first render.
func UseStateLazy[T any](r *Render, init func() T) (T, *Setter[T]) {
	return useState(r, init)
}

func useState[T any](r *Render, init func() T) (T, *Setter[T]) {
	idx := r.cursor
	cell := slotAs[*stateCell[T]](r, SlotState, func() any {
		c := &stateCell[T]{inst: r.inst, index: idx, value: init()}
		c.setter = &Setter[T]{cell: c}
		return c
	})
	return cell.value, cell.setter
}

func (c *stateCell[T]) enqueue(u stateUpdate[T]) {
	rt := c.inst.rt

	rt.mu.Lock()
	switch c.inst.status {
	case StatusUnmounted:
		rt.mu.Unlock()
		rt.staleSetter(c.inst, c.index)
		return
	case StatusUnmounting:
		// Cleanups may still call setters; keep the update, schedule nothing.
		c.pending = append(c.pending, u)
		rt.mu.Unlock()
		return
	}
	if len(c.pending) == 0 && u.fn == nil && equalValues(c.value, u.value) {
		rt.mu.Unlock()
		return
	}
	c.pending = append(c.pending, u)
	ids := rt.markDirtyLocked(c.inst)
	rt.mu.Unlock()

	rt.requestRender(ids)
}

// resolve folds the pending queue over the current value. Updaters run
// without the lock held so they may call setters themselves.
func (c *stateCell[T]) resolve() bool {
	rt := c.inst.rt

	rt.mu.Lock()
	pending := c.pending
	c.pending = nil
	current := c.value
	rt.mu.Unlock()

	if len(pending) == 0 {
		return false
	}

	next := current
	for _, u := range pending {
		if u.fn != nil {
			next = u.fn(next)
		} else {
			next = u.value
		}
	}
	if equalValues(current, next) {
		return false
	}

	rt.mu.Lock()
	c.value = next
	rt.mu.Unlock()
	return true
}

func (rt *Runtime) staleSetter(inst *instance, idx int) {
	err := &HookError{Err: ErrStaleSetter, Instance: inst.id, Name: inst.name, Slot: idx}
	rt.logger.Warn(err.Coded().FormatCompact(),
		slog.Uint64("instance", uint64(inst.id)),
		slog.String("name", inst.name),
		slog.Int("slot", idx),
	)
	rt.emit(Event{Kind: EventStaleSetter, Instance: inst.id, Name: inst.name, Slot: idx, Err: err})
}
