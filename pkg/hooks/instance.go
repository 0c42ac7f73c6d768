package hooks

import "sort"

// InstanceID identifies one mounted component activation.
type InstanceID uint64

// Status is an instance's lifecycle state.
type Status uint8

const (
	StatusMounted Status = iota + 1
	StatusUnmounting
	StatusUnmounted
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusMounted:
		return "mounted"
	case StatusUnmounting:
		return "unmounting"
	case StatusUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// instance is one mounted component activation: its ordered slot store,
// its position in the tree and its context bindings.
//
// Everything except status, dirty and forced belongs to the render thread.
// Those three are guarded by Runtime.mu because setters read them from
// other goroutines.
type instance struct {
	id   InstanceID
	name string
	rt   *Runtime

	// parent is a back reference used for context lookup.
	parent   *instance
	children []*instance

	status Status
	dirty  bool
	forced bool

	slots     []slot
	renders   int
	rendering bool

	// staged holds effect work from the last completed render until Commit.
	staged      []stagedEffect
	uncommitted bool
	output      any

	// bindings are the contexts this instance provides.
	bindings map[*contextKey]*binding

	// subs are the bindings this instance consumed on its last render.
	subs map[*binding]struct{}
}

// lookup finds the nearest ancestor binding for key. An instance never sees
// its own bindings.
func (inst *instance) lookup(key *contextKey) *binding {
	for p := inst.parent; p != nil; p = p.parent {
		if b, ok := p.bindings[key]; ok {
			return b
		}
	}
	return nil
}

// removeChild removes a child from this instance's children.
func (inst *instance) removeChild(child *instance) {
	for i, c := range inst.children {
		if c == child {
			inst.children = append(inst.children[:i], inst.children[i+1:]...)
			return
		}
	}
}

// InstanceInfo is a point-in-time description of an instance for tooling.
type InstanceInfo struct {
	ID            InstanceID    `json:"id"`
	Name          string        `json:"name"`
	Parent        InstanceID    `json:"parent,omitempty"`
	Status        string        `json:"status"`
	Renders       int           `json:"renders"`
	Slots         []string      `json:"slots"`
	Subscriptions int           `json:"subscriptions"`
	Provides      []BindingInfo `json:"provides,omitempty"`
	Effects       []EffectInfo  `json:"effects,omitempty"`
}

// EffectInfo describes one effect slot.
type EffectInfo struct {
	Slot       int  `json:"slot"`
	HasRun     bool `json:"hasRun"`
	HasCleanup bool `json:"hasCleanup"`
}

// BindingInfo describes one context binding provided by an instance.
type BindingInfo struct {
	Slot        int    `json:"slot"`
	Version     uint64 `json:"version"`
	Subscribers int    `json:"subscribers"`
}

// Snapshot describes every live instance, ordered by ID.
// It must be called on the render thread (see Dispatch).
func (rt *Runtime) Snapshot() []InstanceInfo {
	out := make([]InstanceInfo, 0, len(rt.instances))
	for _, inst := range rt.instances {
		info := InstanceInfo{
			ID:            inst.id,
			Name:          inst.name,
			Status:        rt.statusOf(inst).String(),
			Renders:       inst.renders,
			Slots:         make([]string, len(inst.slots)),
			Subscriptions: len(inst.subs),
		}
		if inst.parent != nil {
			info.Parent = inst.parent.id
		}
		for i, s := range inst.slots {
			info.Slots[i] = s.kind.String()
			if e, ok := s.value.(*effectSlot); ok {
				info.Effects = append(info.Effects, EffectInfo{
					Slot:       i,
					HasRun:     e.hasRun,
					HasCleanup: e.cleanup != nil,
				})
			}
			if b, ok := s.value.(*binding); ok && inst.bindings[b.key] == b {
				info.Provides = append(info.Provides, BindingInfo{
					Slot:        i,
					Version:     b.version,
					Subscribers: len(b.subscribers),
				})
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
