package hooks

import (
	"context"
	"log/slog"
	"time"
)

// effectTask is one queued setup, with the cleanup of the previous setup of
// the same slot due before it.
type effectTask struct {
	inst     *instance
	slot     *effectSlot
	setup    func() Cleanup
	canceled bool
}

// effectQueue holds committed effect work in commit order.
type effectQueue struct {
	tasks []*effectTask
}

// push queues se. A slot committed again before the queue is flushed keeps
// its position and takes the newer setup, so its cleanup still runs once.
func (q *effectQueue) push(inst *instance, se stagedEffect) {
	if t := se.slot.task; t != nil && !t.canceled {
		t.setup = se.setup
		return
	}
	t := &effectTask{inst: inst, slot: se.slot, setup: se.setup}
	se.slot.task = t
	q.tasks = append(q.tasks, t)
}

// drain removes and returns all queued tasks.
func (q *effectQueue) drain() []*effectTask {
	tasks := q.tasks
	q.tasks = nil
	for _, t := range tasks {
		t.slot.task = nil
	}
	return tasks
}

// cancel drops the queued work of inst.
func (q *effectQueue) cancel(inst *instance) {
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.inst == inst {
			t.canceled = true
			t.slot.task = nil
			continue
		}
		kept = append(kept, t)
	}
	q.tasks = kept
}

// Pending returns the number of effects waiting for FlushEffects.
func (rt *Runtime) Pending() int {
	return len(rt.queue.tasks)
}

// FlushStats summarizes one FlushEffects call.
type FlushStats struct {
	Cleanups int
	Setups   int
	Errors   int
}

// FlushEffects runs all committed effect work: first every due cleanup, then
// every due setup, each phase visiting instances in commit order and slots in
// slot order. A panic in a setup or cleanup is recovered, reported to the
// ErrorReporter and does not stop the remaining effects. Work committed by
// the effects themselves is flushed in a further pass before returning.
//
// A nested call from inside an effect returns immediately.
func (rt *Runtime) FlushEffects(ctx context.Context) FlushStats {
	var stats FlushStats
	if rt.flushing || len(rt.queue.tasks) == 0 {
		return stats
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rt.flushing = true
	defer func() { rt.flushing = false }()

	start := time.Now()
	rt.emit(Event{Kind: EventFlushStart, Slot: -1, Count: len(rt.queue.tasks), Context: ctx})

	rt.Batch(func() {
		for len(rt.queue.tasks) > 0 {
			tasks := rt.queue.drain()

			for _, t := range tasks {
				if t.canceled || t.slot.cleanup == nil {
					continue
				}
				cleanup := t.slot.cleanup
				t.slot.cleanup = nil
				rt.runCleanup(t.inst, t.slot, cleanup, &stats)
			}

			for _, t := range tasks {
				if t.canceled || rt.statusOf(t.inst) != StatusMounted {
					continue
				}
				rt.runSetup(t.inst, t.slot, t.setup, &stats)
			}
		}
	})

	rt.emit(Event{
		Kind:     EventFlushEnd,
		Slot:     -1,
		Count:    stats.Cleanups + stats.Setups,
		Duration: time.Since(start),
		Context:  ctx,
	})
	return stats
}

func (rt *Runtime) runSetup(inst *instance, e *effectSlot, setup func() Cleanup, stats *FlushStats) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.effectFailed(inst, e, "setup", rec, stats)
		}
	}()

	e.hasRun = true
	e.cleanup = setup()
	stats.Setups++
	rt.emit(Event{Kind: EventEffectSetup, Instance: inst.id, Name: inst.name, Slot: e.index})
}

// runCleanup calls a cleanup the caller has already detached from its slot,
// so a panicking cleanup is never called twice. stats may be nil.
func (rt *Runtime) runCleanup(inst *instance, e *effectSlot, cleanup Cleanup, stats *FlushStats) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.effectFailed(inst, e, "cleanup", rec, stats)
		}
	}()

	cleanup()
	if stats != nil {
		stats.Cleanups++
	}
	rt.emit(Event{Kind: EventEffectCleanup, Instance: inst.id, Name: inst.name, Slot: e.index})
}

func (rt *Runtime) effectFailed(inst *instance, e *effectSlot, phase string, rec any, stats *FlushStats) {
	if stats != nil {
		stats.Errors++
	}
	err := &EffectError{Instance: inst.id, Name: inst.name, Slot: e.index, Phase: phase, Value: rec}

	rt.logger.Error("effect panicked",
		slog.Uint64("instance", uint64(inst.id)),
		slog.String("name", inst.name),
		slog.Int("slot", e.index),
		slog.String("phase", phase),
		slog.Any("panic", rec),
	)
	rt.emit(Event{Kind: EventEffectError, Instance: inst.id, Name: inst.name, Slot: e.index, Err: err})
	if rt.reporter != nil {
		rt.reporter.ReportEffectError(inst.id, err)
	}
}
