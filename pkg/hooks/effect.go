package hooks

// Cleanup is returned by an effect setup to tear down what it started. It
// runs before the effect's next setup or when the instance unmounts, exactly
// once per setup.
type Cleanup func()

// effectSlot is the slot storage behind UseEffect.
type effectSlot struct {
	index int

	// cleanup is present only after a setup returned one.
	cleanup Cleanup

	// deps is the list recorded by the last commit; depsSet is false until
	// the first commit.
	deps    Deps
	depsSet bool

	// hasRun is set once setup has executed.
	hasRun bool

	// task is the queued, not yet flushed, work for this slot.
	task *effectTask
}

// stagedEffect is effect work produced by a render, waiting for Commit.
type stagedEffect struct {
	slot  *effectSlot
	setup func() Cleanup
	deps  Deps
}

// UseEffect registers a side effect that runs after the instance commits.
//
// deps decides when setup runs again: Always() after every commit, Once()
// after the first commit only, On(values...) whenever a value changes. When
// setup runs again, the cleanup returned by its previous run is called first.
// All due cleanups of a FlushEffects pass run before any of its setups.
//
// Example:
//
//	hooks.UseEffect(r, func() hooks.Cleanup {
//	    unsubscribe := feed.Subscribe(onItem)
//	    return unsubscribe
//	}, hooks.On(feed))
func UseEffect(r *Render, setup func() Cleanup, deps Deps) {
	idx := r.cursor
	e := slotAs[*effectSlot](r, SlotEffect, func() any {
		return &effectSlot{index: idx}
	})
	if setup == nil {
		return
	}
	if !r.rt.depsChanged(r, idx, e.deps, e.depsSet, deps) {
		return
	}
	r.effects = append(r.effects, stagedEffect{slot: e, setup: setup, deps: deps})
}

// UseMountEffect runs fn once after the first commit and onUnmount, if not
// nil, when the instance unmounts.
func UseMountEffect(r *Render, fn func(), onUnmount func()) {
	UseEffect(r, func() Cleanup {
		if fn != nil {
			fn()
		}
		return onUnmount
	}, Once())
}
