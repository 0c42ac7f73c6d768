package hooks

// SlotKind identifies the kind of hook that created a slot.
type SlotKind uint8

const (
	SlotState SlotKind = iota + 1
	SlotRef
	SlotEffect
	SlotContext
	SlotMemo
	SlotProvide
)

// String returns a human-readable name for the slot kind.
func (k SlotKind) String() string {
	switch k {
	case SlotState:
		return "State"
	case SlotRef:
		return "Ref"
	case SlotEffect:
		return "Effect"
	case SlotContext:
		return "Context"
	case SlotMemo:
		return "Memo"
	case SlotProvide:
		return "Provide"
	default:
		return "Unknown"
	}
}

// slot is one hook invocation's persistent storage.
type slot struct {
	kind  SlotKind
	value any
}

// resolver is implemented by state cells so the runtime can apply queued
// updates without knowing the cell's type parameter.
type resolver interface {
	resolve() bool
}

// nextSlot returns the slot at the cursor, creating it with init on the
// instance's first render, and advances the cursor. Until a first render
// completes, slots left by an aborted attempt are reused, not recreated.
//
// A kind mismatch, or a hook beyond the previous render's slot count, aborts
// the render by panicking with a *HookError. Runtime.Render recovers it.
func (r *Render) nextSlot(kind SlotKind, init func() any) any {
	r.checkActive()

	inst := r.inst
	idx := r.cursor

	if idx < len(inst.slots) {
		s := inst.slots[idx]
		if s.kind != kind {
			panic(r.fail(ErrSlotOrderMismatch, idx, s.kind, kind))
		}
		r.cursor++
		return s.value
	}

	if !r.first {
		panic(r.fail(ErrSlotCountMismatch, idx, 0, kind))
	}

	v := init()
	inst.slots = append(inst.slots, slot{kind: kind, value: v})
	r.cursor++
	return v
}
