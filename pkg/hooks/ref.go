package hooks

import "sync"

// Ref holds a mutable value that survives re-renders. Reading or writing it
// never requests a render.
//
// Ref[T] is safe for concurrent access.
type Ref[T any] struct {
	value T
	mu    sync.RWMutex
}

// UseRef returns the instance's Ref for this slot. initial is applied only
// when the Ref is created on the first render; later renders return the same
// *Ref.
//
// Example:
//
//	renders := hooks.UseRef(r, 0)
//	renders.Set(renders.Current() + 1)
func UseRef[T any](r *Render, initial T) *Ref[T] {
	return slotAs[*Ref[T]](r, SlotRef, func() any {
		return &Ref[T]{value: initial}
	})
}

// Current returns the current value of the ref.
func (r *Ref[T]) Current() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set sets the ref's value.
func (r *Ref[T]) Set(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
}
