package instrument

import (
	"context"
	"log/slog"

	"github.com/vango-dev/hookrt/pkg/hooks"
)

// Logger is a hooks.Observer writing every event to a slog.Logger. Errors are
// logged at Warn, everything else at the configured level.
type Logger struct {
	logger *slog.Logger
	level  slog.Level
}

var _ hooks.Observer = (*Logger)(nil)

// Log creates a logging observer. Use slog.LevelDebug to keep event traffic
// out of normal output.
func Log(logger *slog.Logger, level slog.Level) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, level: level}
}

// Observe implements hooks.Observer.
func (l *Logger) Observe(ev hooks.Event) {
	level := l.level
	attrs := []slog.Attr{slog.String("runtime", ev.Runtime)}
	if ev.Instance != 0 {
		attrs = append(attrs,
			slog.Uint64("instance", uint64(ev.Instance)),
			slog.String("name", ev.Name),
		)
	}
	if ev.Slot >= 0 && ev.Instance != 0 {
		attrs = append(attrs, slog.Int("slot", ev.Slot))
	}
	if ev.Count != 0 {
		attrs = append(attrs, slog.Int("count", ev.Count))
	}
	if ev.Duration != 0 {
		attrs = append(attrs, slog.Duration("duration", ev.Duration))
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.Any("error", ev.Err))
		if level < slog.LevelWarn {
			level = slog.LevelWarn
		}
	}

	ctx := ev.Context
	if ctx == nil {
		ctx = context.Background()
	}
	l.logger.LogAttrs(ctx, level, ev.Kind.String(), attrs...)
}
