package hooks

// UseReducer keeps state that changes through a reducer. dispatch enqueues
// the action as an updater on the underlying state slot, so actions
// dispatched between renders are applied in order at the next render.
//
// Example:
//
//	count, dispatch := hooks.UseReducer(r, func(n int, delta int) int { return n + delta }, 0)
//	dispatch(+1)
func UseReducer[S, A any](r *Render, reducer func(state S, action A) S, initial S) (S, func(A)) {
	state, set := UseState(r, initial)
	dispatch := func(action A) {
		set.Update(func(prev S) S {
			return reducer(prev, action)
		})
	}
	return state, dispatch
}
