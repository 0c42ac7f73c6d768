package instrument

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vango-dev/hookrt/pkg/hooks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "hookrt"

// TraceConfig configures the OpenTelemetry observer.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "hookrt").
	TracerName string

	// TracerProvider supplies the tracer. Default: the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which render spans to emit. Flush spans are always
	// emitted. If nil, every render is traced.
	Filter func(ev hooks.Event) bool
}

// TraceOption configures the OpenTelemetry observer.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TraceOption {
	return func(c *TraceConfig) {
		c.TracerProvider = tp
	}
}

// WithRenderFilter limits which renders are traced.
func WithRenderFilter(filter func(ev hooks.Event) bool) TraceOption {
	return func(c *TraceConfig) {
		c.Filter = filter
	}
}

// Tracer is a hooks.Observer emitting OpenTelemetry spans.
type Tracer struct {
	tracer trace.Tracer
	filter func(ev hooks.Event) bool

	mu      sync.Mutex
	flushes map[string]*flushSpan
}

type flushSpan struct {
	span   trace.Span
	errors int
}

var _ hooks.Observer = (*Tracer)(nil)

// OpenTelemetry creates an observer that traces flushes and renders.
//
// Each FlushEffects call becomes a "hookrt.flush" span, started from the
// context passed to FlushEffects, with every effect panic recorded on it as an
// exception event. Renders become "hookrt.render <Name>" spans covering the
// render's duration.
func OpenTelemetry(opts ...TraceOption) *Tracer {
	config := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer:  tp.Tracer(config.TracerName),
		filter:  config.Filter,
		flushes: make(map[string]*flushSpan),
	}
}

// Observe implements hooks.Observer.
func (t *Tracer) Observe(ev hooks.Event) {
	switch ev.Kind {
	case hooks.EventFlushStart:
		t.startFlush(ev)
	case hooks.EventFlushEnd:
		t.endFlush(ev)
	case hooks.EventEffectError:
		t.effectError(ev)
	case hooks.EventRender:
		if t.filter != nil && !t.filter(ev) {
			return
		}
		t.render(ev)
	case hooks.EventRenderAborted:
		t.aborted(ev)
	}
}

func (t *Tracer) startFlush(ev hooks.Event) {
	_, span := t.tracer.Start(ctxOf(ev), "hookrt.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("hookrt.runtime", ev.Runtime),
			attribute.Int("hookrt.queued", ev.Count),
		),
	)

	t.mu.Lock()
	t.flushes[ev.Runtime] = &flushSpan{span: span}
	t.mu.Unlock()
}

func (t *Tracer) endFlush(ev hooks.Event) {
	t.mu.Lock()
	fs, ok := t.flushes[ev.Runtime]
	delete(t.flushes, ev.Runtime)
	t.mu.Unlock()
	if !ok {
		return
	}

	fs.span.SetAttributes(
		attribute.Int("hookrt.effects", ev.Count),
		attribute.Int("hookrt.errors", fs.errors),
	)
	if fs.errors > 0 {
		fs.span.SetStatus(codes.Error, fmt.Sprintf("%d effect(s) panicked", fs.errors))
	} else {
		fs.span.SetStatus(codes.Ok, "")
	}
	fs.span.End()
}

func (t *Tracer) effectError(ev hooks.Event) {
	t.mu.Lock()
	fs, ok := t.flushes[ev.Runtime]
	if ok {
		fs.errors++
	}
	t.mu.Unlock()

	if ok {
		fs.span.RecordError(ev.Err, trace.WithAttributes(instanceAttrs(ev)...))
		return
	}

	// Cleanups run by Unmount happen outside a flush.
	_, span := t.tracer.Start(ctxOf(ev), "hookrt.effect_error", trace.WithAttributes(instanceAttrs(ev)...))
	span.RecordError(ev.Err)
	span.SetStatus(codes.Error, ev.Err.Error())
	span.End()
}

func (t *Tracer) render(ev hooks.Event) {
	end := time.Now()
	_, span := t.tracer.Start(ctxOf(ev), "hookrt.render "+ev.Name,
		trace.WithTimestamp(end.Add(-ev.Duration)),
		trace.WithAttributes(instanceAttrs(ev)...),
		trace.WithAttributes(attribute.Int("hookrt.hooks", ev.Count)),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(end))
}

func (t *Tracer) aborted(ev hooks.Event) {
	_, span := t.tracer.Start(ctxOf(ev), "hookrt.render "+ev.Name, trace.WithAttributes(instanceAttrs(ev)...))
	if ev.Err != nil {
		span.RecordError(ev.Err)
		span.SetStatus(codes.Error, ev.Err.Error())
	}
	span.End()
}

func instanceAttrs(ev hooks.Event) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("hookrt.runtime", ev.Runtime),
		attribute.Int64("hookrt.instance", int64(ev.Instance)),
		attribute.String("hookrt.component", ev.Name),
		attribute.Int("hookrt.slot", ev.Slot),
	}
}

func ctxOf(ev hooks.Event) context.Context {
	if ev.Context != nil {
		return ev.Context
	}
	return context.Background()
}
