package hooks

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Runtime is the hook runtime shared by every instance of one component tree.
//
// The render driver calls Mount, BeginRender/EndRender (or Render), Commit,
// FlushEffects and Unmount from a single goroutine, the render thread.
// State setters and Dispatch may be called from any goroutine; their work is
// queued and applied on the render thread.
type Runtime struct {
	id        string
	logger    *slog.Logger
	observers []Observer
	reporter  ErrorReporter
	requester RenderRequester

	// Render thread state.
	instances map[InstanceID]*instance
	queue     effectQueue
	flushing  bool

	// mu guards cross-goroutine state: instance status/dirty/forced, state
	// cell queues, the dirty set, batching and the mailbox.
	mu         sync.Mutex
	dirty      map[InstanceID]*instance
	batchDepth int
	deferred   []InstanceID
	mailbox    []func()
	wake       chan struct{}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		id:        uuid.NewString(),
		instances: make(map[InstanceID]*instance),
		dirty:     make(map[InstanceID]*instance),
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	rt.logger = rt.logger.With(slog.String("runtime", rt.id))
	return rt
}

// ID returns the runtime's unique identifier.
func (rt *Runtime) ID() string {
	return rt.id
}

// Mount creates an instance at a tree position. Pass 0 as parent for a root.
// The instance has no slots until its first render.
func (rt *Runtime) Mount(parent InstanceID, name string) (InstanceID, error) {
	inst := &instance{
		id:     InstanceID(nextID()),
		name:   name,
		rt:     rt,
		status: StatusMounted,
	}
	if parent != 0 {
		p, err := rt.live(parent)
		if err != nil {
			return 0, err
		}
		inst.parent = p
		p.children = append(p.children, inst)
	}
	rt.instances[inst.id] = inst
	rt.emit(Event{Kind: EventMount, Instance: inst.id, Name: name, Slot: -1})
	return inst.id, nil
}

// SetChildOrder records the current order of parent's children. Unmount
// tears children down last first in this order; without a call it is mount
// order. ids must list exactly parent's live children.
func (rt *Runtime) SetChildOrder(parent InstanceID, ids []InstanceID) error {
	p, err := rt.live(parent)
	if err != nil {
		return err
	}
	if len(ids) != len(p.children) {
		return fmt.Errorf("%w: instance %d has %d children, got %d ids", ErrChildOrder, parent, len(p.children), len(ids))
	}
	byID := make(map[InstanceID]*instance, len(p.children))
	for _, c := range p.children {
		byID[c.id] = c
	}
	ordered := make([]*instance, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %d is not a child of %d", ErrChildOrder, id, parent)
		}
		delete(byID, id)
		ordered = append(ordered, c)
	}
	p.children = ordered
	return nil
}

// Status returns an instance's lifecycle state. Instances that were fully
// torn down report StatusUnmounted.
func (rt *Runtime) Status(id InstanceID) Status {
	inst, ok := rt.instances[id]
	if !ok {
		return StatusUnmounted
	}
	return rt.statusOf(inst)
}

// Output returns what the last Commit stored for the instance.
func (rt *Runtime) Output(id InstanceID) any {
	if inst, ok := rt.instances[id]; ok {
		return inst.output
	}
	return nil
}

// Commit records the committed output of the instance's last completed render
// and hands its due effects to the scheduler, in slot order, behind the work
// of instances committed earlier. Effects run on the next FlushEffects.
func (rt *Runtime) Commit(id InstanceID, output any) error {
	inst, err := rt.live(id)
	if err != nil {
		return err
	}
	if !inst.uncommitted {
		return fmt.Errorf("%w: instance %d", ErrNothingToCommit, id)
	}

	inst.uncommitted = false
	inst.output = output
	for _, se := range inst.staged {
		se.slot.deps = se.deps
		se.slot.depsSet = true
		rt.queue.push(inst, se)
	}
	n := len(inst.staged)
	inst.staged = nil

	rt.emit(Event{Kind: EventCommit, Instance: id, Name: inst.name, Slot: -1, Count: n})
	return nil
}

// Unmount tears down an instance and its descendants. Descendants go first,
// last child first, in mount order or the order set by SetChildOrder. For each instance, effect cleanups run synchronously in
// reverse slot order, queued effect work is dropped and context
// subscriptions are pruned before the slot store is discarded.
//
// Unmounting an instance that is already being unmounted is a no-op.
func (rt *Runtime) Unmount(id InstanceID) error {
	inst, ok := rt.instances[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownInstance, id)
	}
	if rt.statusOf(inst) != StatusMounted {
		return nil
	}

	rt.Batch(func() {
		rt.unmount(inst)
	})
	if inst.parent != nil {
		inst.parent.removeChild(inst)
	}
	return nil
}

func (rt *Runtime) unmount(inst *instance) {
	rt.setStatus(inst, StatusUnmounting)

	for i := len(inst.children) - 1; i >= 0; i-- {
		rt.unmount(inst.children[i])
	}
	inst.children = nil

	rt.queue.cancel(inst)
	for i := len(inst.slots) - 1; i >= 0; i-- {
		e, ok := inst.slots[i].value.(*effectSlot)
		if !ok || e.cleanup == nil {
			continue
		}
		cleanup := e.cleanup
		e.cleanup = nil
		rt.runCleanup(inst, e, cleanup, nil)
	}

	for b := range inst.subs {
		delete(b.subscribers, inst)
	}
	inst.subs = nil
	for _, b := range inst.bindings {
		b.subscribers = nil
	}
	inst.bindings = nil

	rt.setStatus(inst, StatusUnmounted)
	inst.slots = nil
	inst.staged = nil
	inst.output = nil
	delete(rt.instances, inst.id)

	rt.logger.Debug("instance unmounted", slog.Uint64("instance", uint64(inst.id)), slog.String("name", inst.name))
	rt.emit(Event{Kind: EventUnmount, Instance: inst.id, Name: inst.name, Slot: -1})
}

// Prepare applies the instance's queued state updates and reports whether a
// re-render is needed: a state value changed, a consumed context changed, or
// the instance never rendered. When it returns false the pending render
// request is dropped, so drivers can skip the render entirely.
func (rt *Runtime) Prepare(id InstanceID) (bool, error) {
	inst, err := rt.live(id)
	if err != nil {
		return false, err
	}

	changed := rt.resolve(inst)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	need := changed || inst.forced || inst.renders == 0
	if !need {
		inst.dirty = false
		delete(rt.dirty, inst.id)
	}
	return need, nil
}

// Dirty returns the instances with an outstanding render request, parents
// before descendants.
func (rt *Runtime) Dirty() []InstanceID {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ids := make([]InstanceID, 0, len(rt.dirty))
	for id := range rt.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dispatch queues fn to run on the render thread at the next Drain. It is
// safe to call from any goroutine and is how timers, network callbacks and
// external subscriptions hand work to the runtime.
func (rt *Runtime) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	rt.mu.Lock()
	rt.mailbox = append(rt.mailbox, fn)
	rt.mu.Unlock()
	rt.notify()
}

// Drain runs dispatched functions on the calling (render) goroutine, each
// inside a batch, until the mailbox is empty. It returns the number run.
func (rt *Runtime) Drain() int {
	n := 0
	for {
		rt.mu.Lock()
		fns := rt.mailbox
		rt.mailbox = nil
		rt.mu.Unlock()

		if len(fns) == 0 {
			return n
		}
		rt.Batch(func() {
			for _, fn := range fns {
				fn()
			}
		})
		n += len(fns)
	}
}

// Wake returns a channel that receives a value whenever work is dispatched or
// a render is requested. Event loops select on it.
func (rt *Runtime) Wake() <-chan struct{} {
	return rt.wake
}

func (rt *Runtime) notify() {
	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

// live returns a mounted instance.
func (rt *Runtime) live(id InstanceID) (*instance, error) {
	inst, ok := rt.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownInstance, id)
	}
	if rt.statusOf(inst) != StatusMounted {
		return nil, fmt.Errorf("%w: %d", ErrUnmounted, id)
	}
	return inst, nil
}

func (rt *Runtime) statusOf(inst *instance) Status {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return inst.status
}

func (rt *Runtime) setStatus(inst *instance, s Status) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	inst.status = s
	if s != StatusMounted {
		inst.dirty = false
		inst.forced = false
		delete(rt.dirty, inst.id)
	}
}

// resolve applies queued state updates for every state slot of inst, in slot
// order, and reports whether any value changed.
func (rt *Runtime) resolve(inst *instance) bool {
	changed := false
	for _, s := range inst.slots {
		if s.kind != SlotState {
			continue
		}
		if res, ok := s.value.(resolver); ok && res.resolve() {
			changed = true
		}
	}
	return changed
}

// markDirtyLocked flags inst for re-render and returns the IDs to request
// now. Requests inside a batch are deferred. rt.mu must be held.
func (rt *Runtime) markDirtyLocked(inst *instance) []InstanceID {
	if inst.dirty || inst.status != StatusMounted {
		return nil
	}
	inst.dirty = true
	rt.dirty[inst.id] = inst
	if rt.batchDepth > 0 {
		rt.deferred = append(rt.deferred, inst.id)
		return nil
	}
	return []InstanceID{inst.id}
}

func (rt *Runtime) requestRender(ids []InstanceID) {
	if len(ids) == 0 {
		return
	}
	rt.emit(Event{Kind: EventRenderRequest, Slot: -1, Count: len(ids)})
	if rt.requester != nil {
		rt.requester.RequestRender(ids)
	}
	rt.notify()
}
