package hooks

import "log/slog"

// ErrorReporter is the render driver's error boundary. It receives every
// panic recovered from an effect setup or cleanup.
type ErrorReporter interface {
	ReportEffectError(id InstanceID, err error)
}

// ErrorReporterFunc adapts a function to the ErrorReporter interface.
type ErrorReporterFunc func(id InstanceID, err error)

// ReportEffectError calls f(id, err).
func (f ErrorReporterFunc) ReportEffectError(id InstanceID, err error) { f(id, err) }

// RenderRequester is notified when instances need to re-render. Requests
// raised inside a batch are coalesced and delivered once when the outermost
// batch ends. It may be called from any goroutine that calls a setter.
type RenderRequester interface {
	RequestRender(ids []InstanceID)
}

// RenderRequesterFunc adapts a function to the RenderRequester interface.
type RenderRequesterFunc func(ids []InstanceID)

// RequestRender calls f(ids).
func (f RenderRequesterFunc) RequestRender(ids []InstanceID) { f(ids) }

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithObserver adds observers that receive runtime events.
func WithObserver(observers ...Observer) Option {
	return func(rt *Runtime) {
		for _, o := range observers {
			if o != nil {
				rt.observers = append(rt.observers, o)
			}
		}
	}
}

// WithErrorReporter sets the error boundary for effect failures.
func WithErrorReporter(reporter ErrorReporter) Option {
	return func(rt *Runtime) {
		rt.reporter = reporter
	}
}

// WithRenderRequester sets the callback for coalesced render requests.
func WithRenderRequester(requester RenderRequester) Option {
	return func(rt *Runtime) {
		rt.requester = requester
	}
}

// WithID overrides the generated runtime ID.
func WithID(id string) Option {
	return func(rt *Runtime) {
		if id != "" {
			rt.id = id
		}
	}
}
