package hooks

import (
	"fmt"
	"log/slog"
	"time"
)

// Render is the explicit render context for one render pass of one
// instance. Every hook takes it as its first argument; hooks resolve their
// slot by the Render's cursor, so they must be called unconditionally and in
// the same order on every render.
type Render struct {
	rt      *Runtime
	inst    *instance
	cursor  int
	first   bool
	done    bool
	started time.Time

	effects  []stagedEffect
	provides []pendingProvide
	subs     map[*binding]struct{}
}

// Instance returns the ID of the instance being rendered.
func (r *Render) Instance() InstanceID {
	return r.inst.id
}

// Name returns the display name of the instance being rendered.
func (r *Render) Name() string {
	return r.inst.name
}

// Runtime returns the runtime the render belongs to.
func (r *Render) Runtime() *Runtime {
	return r.rt
}

// checkActive panics when a hook is called on a finished render.
func (r *Render) checkActive() {
	if r.done {
		panic(&HookError{
			Err:      ErrRenderFinished,
			Instance: r.inst.id,
			Name:     r.inst.name,
			Slot:     r.cursor,
		})
	}
}

// fail aborts the render and returns the error to panic with.
func (r *Render) fail(err error, idx int, expected, actual SlotKind) *HookError {
	he := &HookError{
		Err:      err,
		Instance: r.inst.id,
		Name:     r.inst.name,
		Slot:     idx,
		Expected: expected,
		Actual:   actual,
	}
	r.rt.abort(r, he)
	return he
}

// slotAs fetches the next slot and asserts its Go type. A type change at the
// same position is reported as an order mismatch.
func slotAs[V any](r *Render, kind SlotKind, init func() any) V {
	idx := r.cursor
	raw := r.nextSlot(kind, init)
	v, ok := raw.(V)
	if !ok {
		he := r.fail(ErrSlotOrderMismatch, idx, kind, kind)
		he.Detail = fmt.Sprintf("%s slot holds %T, hook expects %T", kind, raw, *new(V))
		panic(he)
	}
	return v
}

// BeginRender starts a render pass: it applies queued state updates, clears
// the instance's render request and resets the slot cursor to 0.
func (rt *Runtime) BeginRender(id InstanceID) (*Render, error) {
	inst, err := rt.live(id)
	if err != nil {
		return nil, err
	}
	if inst.rendering {
		return nil, fmt.Errorf("%w: instance %d", ErrRenderInProgress, id)
	}

	rt.resolve(inst)

	rt.mu.Lock()
	inst.dirty = false
	inst.forced = false
	delete(rt.dirty, inst.id)
	rt.mu.Unlock()

	inst.rendering = true
	return &Render{
		rt:      rt,
		inst:    inst,
		first:   inst.renders == 0,
		started: time.Now(),
		subs:    make(map[*binding]struct{}),
	}, nil
}

// EndRender completes a render pass. It fails with ErrSlotCountMismatch when
// the pass consumed a different number of slots than the previous render.
// On success the render's context subscriptions replace the previous ones,
// provided context values are published, and effect work is staged for
// Commit.
func (rt *Runtime) EndRender(r *Render) error {
	if r.done {
		return fmt.Errorf("%w: instance %d", ErrRenderFinished, r.inst.id)
	}
	inst := r.inst

	if rt.statusOf(inst) != StatusMounted {
		he := &HookError{Err: ErrUnmounted, Instance: inst.id, Name: inst.name, Slot: -1}
		rt.abort(r, he)
		return he
	}
	if r.first {
		// Slots an aborted attempt created beyond this render's last hook
		// were never committed.
		inst.slots = inst.slots[:r.cursor]
	} else if r.cursor != len(inst.slots) {
		he := &HookError{
			Err:      ErrSlotCountMismatch,
			Instance: inst.id,
			Name:     inst.name,
			Slot:     r.cursor,
			Detail:   fmt.Sprintf("expected %d hooks, got %d", len(inst.slots), r.cursor),
		}
		rt.abort(r, he)
		return he
	}

	r.done = true
	inst.rendering = false
	inst.renders++

	for b := range inst.subs {
		if _, ok := r.subs[b]; !ok {
			delete(b.subscribers, inst)
		}
	}
	for b := range r.subs {
		if b.subscribers != nil {
			b.subscribers[inst] = struct{}{}
		}
	}
	inst.subs = r.subs

	for _, p := range r.provides {
		rt.publish(inst, p)
	}

	inst.staged = r.effects
	inst.uncommitted = true

	rt.emit(Event{
		Kind:     EventRender,
		Instance: inst.id,
		Name:     inst.name,
		Slot:     -1,
		Count:    r.cursor,
		Duration: time.Since(r.started),
	})
	return nil
}

// Render runs one complete render pass: BeginRender, fn, EndRender. Hook
// usage errors raised inside fn abort only this instance's render and are
// returned as *HookError. Setter calls made during fn are batched. Any other
// panic from fn aborts the render and is re-raised.
func (rt *Runtime) Render(id InstanceID, fn func(r *Render) any) (out any, err error) {
	r, err := rt.BeginRender(id)
	if err != nil {
		return nil, err
	}

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if he, ok := rec.(*HookError); ok {
			rt.abort(r, he)
			out, err = nil, he
			return
		}
		rt.abort(r, fmt.Errorf("render panic: %v", rec))
		panic(rec)
	}()

	rt.Batch(func() {
		out = fn(r)
	})
	if err := rt.EndRender(r); err != nil {
		return nil, err
	}
	return out, nil
}

// abort discards a failed render: its staged effects, provided values and
// subscriptions are dropped. Slots are kept, including those an aborted first
// render created, so a retry reuses them with their kinds checked and lazy
// initializers never run twice. Other instances are left untouched.
func (rt *Runtime) abort(r *Render, err error) {
	if r.done {
		return
	}
	r.done = true
	inst := r.inst
	inst.rendering = false

	rt.logger.Error("render aborted",
		slog.Uint64("instance", uint64(inst.id)),
		slog.String("name", inst.name),
		slog.Int("slot", r.cursor),
		slog.Any("error", err),
	)
	rt.emit(Event{Kind: EventRenderAborted, Instance: inst.id, Name: inst.name, Slot: r.cursor, Err: err})
}
