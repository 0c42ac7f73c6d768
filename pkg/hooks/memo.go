package hooks

// memoSlot caches a computed value with the deps it was computed from.
type memoSlot[T any] struct {
	value T
	deps  Deps
	set   bool
}

// UseMemo returns compute's result, recomputing only when deps change under
// the same rules as UseEffect. With Always() it recomputes on every render.
//
// Example:
//
//	total := hooks.UseMemo(r, func() int { return sum(items) }, hooks.On(items))
func UseMemo[T any](r *Render, compute func() T, deps Deps) T {
	idx := r.cursor
	m := slotAs[*memoSlot[T]](r, SlotMemo, func() any {
		return &memoSlot[T]{}
	})
	if r.rt.depsChanged(r, idx, m.deps, m.set, deps) {
		m.value = compute()
		m.deps = deps
		m.set = true
	}
	return m.value
}
