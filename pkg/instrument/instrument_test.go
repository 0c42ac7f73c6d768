package instrument

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/hookrt/pkg/hooks"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

// exercise mounts two instances, renders them with one healthy and one
// panicking effect, flushes and unmounts one of them.
func exercise(t *testing.T, observers ...hooks.Observer) {
	t.Helper()
	rt := hooks.New(
		hooks.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		hooks.WithObserver(observers...),
	)

	a, _ := rt.Mount(0, "A")
	b, _ := rt.Mount(0, "B")
	for _, id := range []hooks.InstanceID{a, b} {
		id := id
		out, err := rt.Render(id, func(r *hooks.Render) any {
			hooks.UseEffect(r, func() hooks.Cleanup {
				if id == b {
					panic("boom")
				}
				return nil
			}, hooks.Once())
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := rt.Commit(id, out); err != nil {
			t.Fatal(err)
		}
	}
	rt.FlushEffects(context.Background())
	if err := rt.Unmount(a); err != nil {
		t.Fatal(err)
	}
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg), WithNamespace("test"), WithConstLabels(prometheus.Labels{"app": "x"}))

	exercise(t, m)

	if got := metricCounterValue(t, m.eventsTotal.WithLabelValues("render")); got != 2 {
		t.Errorf("render events = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.eventsTotal.WithLabelValues("effect_setup")); got != 1 {
		t.Errorf("setup events = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.effectErrors.WithLabelValues("setup")); got != 1 {
		t.Errorf("effect errors = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.mounted); got != 1 {
		t.Errorf("mounted = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.renderDuration); got != 2 {
		t.Errorf("render observations = %d, want 2", got)
	}
	if got := metricHistogramCount(t, m.flushDuration); got != 1 {
		t.Errorf("flush observations = %d, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_events_total" {
			found = true
		}
	}
	if !found {
		t.Error("test_events_total not registered")
	}
}

func TestPrometheusDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Prometheus(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Prometheus(WithRegistry(reg))
}

func TestOpenTelemetryObserver(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := OpenTelemetry(WithTracerProvider(tp), WithTracerName("test"))

	exercise(t, tr)

	var flush sdktrace.ReadOnlySpan
	renders := 0
	for _, s := range sr.Ended() {
		switch {
		case s.Name() == "hookrt.flush":
			flush = s
		case strings.HasPrefix(s.Name(), "hookrt.render "):
			renders++
		}
	}
	if renders != 2 {
		t.Errorf("render spans = %d, want 2", renders)
	}
	if flush == nil {
		t.Fatal("no flush span")
	}
	if flush.Status().Code != codes.Error {
		t.Errorf("flush status = %v, want Error", flush.Status().Code)
	}
	exceptions := 0
	for _, ev := range flush.Events() {
		if ev.Name == "exception" {
			exceptions++
		}
	}
	if exceptions != 1 {
		t.Errorf("exception events = %d, want 1", exceptions)
	}
	if flush.InstrumentationScope().Name != "test" {
		t.Errorf("scope = %q", flush.InstrumentationScope().Name)
	}
}

func TestOpenTelemetryRenderFilter(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tr := OpenTelemetry(
		WithTracerProvider(tp),
		WithRenderFilter(func(ev hooks.Event) bool { return ev.Name == "A" }),
	)

	exercise(t, tr)

	for _, s := range sr.Ended() {
		if s.Name() == "hookrt.render B" {
			t.Error("filtered render was traced")
		}
	}
}

func TestOpenTelemetryAbortedRender(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	rt := hooks.New(
		hooks.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		hooks.WithObserver(OpenTelemetry(WithTracerProvider(tp))),
	)
	required := hooks.CreateRequiredContext[int]()
	id, _ := rt.Mount(0, "Orphan")
	if _, err := rt.Render(id, func(r *hooks.Render) any { return required.Use(r) }); err == nil {
		t.Fatal("expected missing provider error")
	}

	spans := sr.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("spans = %d", len(spans))
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	exercise(t, Log(logger, slog.LevelDebug))

	out := buf.String()
	for _, want := range []string{"msg=mount", "msg=render", "msg=flush_end", "level=WARN msg=effect_error"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}
