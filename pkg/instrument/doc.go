// Package instrument provides hooks.Observer implementations that export
// runtime events to Prometheus, OpenTelemetry and slog.
//
// Attach them when creating a runtime:
//
//	reg := prometheus.NewRegistry()
//	rt := hooks.New(
//	    hooks.WithObserver(
//	        instrument.Prometheus(instrument.WithRegistry(reg)),
//	        instrument.OpenTelemetry(instrument.WithTracerName("my-app")),
//	    ),
//	)
//
// Metrics collected (default namespace "hookrt"):
//   - hookrt_events_total: events by kind
//   - hookrt_render_duration_seconds: render pass duration
//   - hookrt_flush_duration_seconds: FlushEffects duration
//   - hookrt_flush_effects: effects run per flush
//   - hookrt_effect_errors_total: effect panics by phase
//   - hookrt_mounted_instances: instances currently mounted
//
// The OpenTelemetry observer emits one span per FlushEffects pass, one per
// render and one per aborted render, using the global tracer provider unless
// WithTracerProvider is given.
package instrument
