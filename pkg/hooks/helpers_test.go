package hooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// harness is a minimal render driver for tests.
type harness struct {
	t  *testing.T
	rt *Runtime

	mu       sync.Mutex
	requests [][]InstanceID
	reported []error
	events   []Event
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t}
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRenderRequester(RenderRequesterFunc(func(ids []InstanceID) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.requests = append(h.requests, append([]InstanceID(nil), ids...))
		})),
		WithErrorReporter(ErrorReporterFunc(func(id InstanceID, err error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.reported = append(h.reported, err)
		})),
		WithObserver(ObserverFunc(func(ev Event) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.events = append(h.events, ev)
		})),
	}
	h.rt = New(append(base, opts...)...)
	return h
}

func (h *harness) mount(parent InstanceID, name string) InstanceID {
	h.t.Helper()
	id, err := h.rt.Mount(parent, name)
	if err != nil {
		h.t.Fatalf("Mount(%d, %q): %v", parent, name, err)
	}
	return id
}

// render runs a full render pass and commits it.
func (h *harness) render(id InstanceID, fn func(r *Render) any) any {
	h.t.Helper()
	out, err := h.rt.Render(id, fn)
	if err != nil {
		h.t.Fatalf("Render(%d): %v", id, err)
	}
	if err := h.rt.Commit(id, out); err != nil {
		h.t.Fatalf("Commit(%d): %v", id, err)
	}
	return out
}

func (h *harness) flush() FlushStats {
	return h.rt.FlushEffects(context.Background())
}

func (h *harness) requestCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.requests)
}

func (h *harness) eventCount(kind EventKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// expectHookError asserts err is a *HookError wrapping target.
func expectHookError(t *testing.T, err error, target error) *HookError {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
	var he *HookError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HookError, got %T", err)
	}
	return he
}
