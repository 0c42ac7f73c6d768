// Package hooks provides a hook runtime for component-oriented UIs.
//
// A render function is a plain function that is invoked again on every
// render. Hooks give it identity-stable state, side effects with ordered
// setup and cleanup, mutable refs and tree-scoped context values. Every hook
// takes the explicit *Render of the current pass and is resolved by call
// order, so hooks must be called unconditionally and in the same order on
// every render. The runtime detects divergence and aborts the offending
// render with ErrSlotOrderMismatch or ErrSlotCountMismatch.
//
// # Hooks
//
//	count, setCount := hooks.UseState(r, 0)
//	items, _ := hooks.UseStateLazy(r, loadItems)
//	box := hooks.UseRef(r, 0)
//	total := hooks.UseMemo(r, func() int { return sum(items) }, hooks.On(items))
//	hooks.UseEffect(r, func() hooks.Cleanup {
//	    stop := ticker.Start()
//	    return stop
//	}, hooks.Once())
//	theme := Theme.Use(r)
//
// # Render Driver
//
// The runtime does not decide when components render. A render driver owns
// the tree and calls the runtime around each render:
//
//	id, _ := rt.Mount(parentID, "Counter")
//	out, err := rt.Render(id, Counter)   // BeginRender + Counter + EndRender
//	rt.Commit(id, out)                  // stage due effects
//	rt.FlushEffects(ctx)                // cleanups, then setups
//	rt.Unmount(id)                      // reverse-order cleanups, teardown
//
// Setters request renders through the RenderRequester, coalesced per batch;
// drivers may call Prepare to skip renders whose state resolved unchanged.
//
// # Thread Safety
//
// Rendering, committing, flushing and unmounting happen on one goroutine.
// Setters, Ref and Dispatch are safe from any goroutine; their effects are
// applied on the render thread at the next render or Drain.
package hooks
