package hooks

import (
	"fmt"
	"log/slog"
	"sort"
)

// contextKey identifies a Context independently of its type parameter.
type contextKey struct {
	id uint64
}

// binding is one provided value for one context key.
type binding struct {
	key      *contextKey
	provider *instance
	value    any
	version  uint64

	// subscribers are the instances that consumed this binding on their
	// last render.
	subscribers map[*instance]struct{}
}

// pendingProvide is a provided value waiting for EndRender.
type pendingProvide struct {
	b     *binding
	value any
}

// Context broadcasts a value from a providing instance to its descendants.
// Create it once at package level with CreateContext, provide values with
// Provide and consume them with Use.
//
// Example:
//
//	var Theme = hooks.CreateContext("light")
//
//	func App(r *hooks.Render) any {
//	    Theme.Provide(r, "dark")
//	    return nil
//	}
//
//	func Button(r *hooks.Render) any {
//	    return "btn-" + Theme.Use(r)
//	}
type Context[T any] struct {
	key          *contextKey
	defaultValue T
	hasDefault   bool
}

// CreateContext creates a context whose consumers fall back to defaultValue
// when no ancestor provides it.
func CreateContext[T any](defaultValue T) *Context[T] {
	return &Context[T]{
		key:          &contextKey{id: nextID()},
		defaultValue: defaultValue,
		hasDefault:   true,
	}
}

// CreateRequiredContext creates a context without a default. Consuming it
// with no providing ancestor aborts the render with ErrMissingProvider.
func CreateRequiredContext[T any]() *Context[T] {
	return &Context[T]{key: &contextKey{id: nextID()}}
}

// Default returns the default value and whether one was configured.
func (c *Context[T]) Default() (T, bool) {
	return c.defaultValue, c.hasDefault
}

// Provide makes value visible to the instance's descendants. It is a hook.
// The first render establishes the binding; later renders replace its value
// through a comparison-guarded update that invalidates every subscriber when
// the value changed. The instance itself does not see what it provides.
func (c *Context[T]) Provide(r *Render, value T) {
	idx := r.cursor
	b := slotAs[*binding](r, SlotProvide, func() any {
		return &binding{
			key:         c.key,
			provider:    r.inst,
			subscribers: make(map[*instance]struct{}),
		}
	})
	if b.key != c.key {
		he := r.fail(ErrSlotOrderMismatch, idx, SlotProvide, SlotProvide)
		he.Detail = "a different context is provided at this slot"
		panic(he)
	}
	r.provides = append(r.provides, pendingProvide{b: b, value: value})
}

// Use returns the value of the nearest providing ancestor, or the default,
// and subscribes the instance to that binding for this render. It is a hook.
// Subscriptions are renewed by every render; a binding not consumed by the
// latest render no longer invalidates the instance.
func (c *Context[T]) Use(r *Render) T {
	idx := r.cursor
	key := slotAs[*contextKey](r, SlotContext, func() any {
		return c.key
	})
	if key != c.key {
		he := r.fail(ErrSlotOrderMismatch, idx, SlotContext, SlotContext)
		he.Detail = "a different context is consumed at this slot"
		panic(he)
	}

	b := r.inst.lookup(c.key)
	if b == nil {
		if !c.hasDefault {
			panic(r.fail(ErrMissingProvider, idx, 0, 0))
		}
		return c.defaultValue
	}
	r.subs[b] = struct{}{}
	return valueAs[T](b.value)
}

// Peek returns the nearest provided value, or the default, without taking a
// slot or subscribing. It may be called conditionally.
func (c *Context[T]) Peek(r *Render) T {
	if b := r.inst.lookup(c.key); b != nil {
		return valueAs[T](b.value)
	}
	return c.defaultValue
}

// Update replaces the value provided by the given instance outside of a
// render pass. It reports whether the value changed; an equal value leaves
// the binding and its subscribers untouched.
func (c *Context[T]) Update(rt *Runtime, provider InstanceID, value T) (bool, error) {
	inst, err := rt.live(provider)
	if err != nil {
		return false, err
	}
	b, ok := inst.bindings[c.key]
	if !ok {
		return false, &HookError{Err: ErrNotProvider, Instance: inst.id, Name: inst.name, Slot: -1}
	}
	return rt.updateBinding(b, value), nil
}

// publish applies a provided value at EndRender.
func (rt *Runtime) publish(inst *instance, p pendingProvide) {
	if inst.bindings == nil {
		inst.bindings = make(map[*contextKey]*binding)
	}
	if cur, ok := inst.bindings[p.b.key]; !ok || cur != p.b {
		p.b.value = p.value
		inst.bindings[p.b.key] = p.b
		return
	}
	rt.updateBinding(p.b, p.value)
}

// updateBinding stores value if it differs from the bound value, bumps the
// version and marks every subscriber for re-render.
func (rt *Runtime) updateBinding(b *binding, value any) bool {
	if Equal(b.value, value) {
		return false
	}
	b.value = value
	b.version++

	subs := make([]*instance, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	var ids []InstanceID
	rt.mu.Lock()
	for _, s := range subs {
		if s.status != StatusMounted {
			continue
		}
		s.forced = true
		ids = append(ids, rt.markDirtyLocked(s)...)
	}
	rt.mu.Unlock()

	rt.logger.Debug("context binding updated",
		slog.Uint64("instance", uint64(b.provider.id)),
		slog.Uint64("version", b.version),
		slog.Int("subscribers", len(subs)),
	)
	rt.emit(Event{Kind: EventInvalidate, Instance: b.provider.id, Name: b.provider.name, Slot: -1, Count: len(subs)})
	rt.requestRender(ids)
	return true
}

func valueAs[T any](v any) T {
	t, _ := v.(T)
	return t
}

// String implements fmt.Stringer for debugging output.
func (c *Context[T]) String() string {
	return fmt.Sprintf("Context[%T]#%d", c.defaultValue, c.key.id)
}
