package telemetry

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger on top of github.com/rs/zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger constructs a Logger backed by logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return ZerologLogger{logger: logger}
}

// Debug emits a debug-level log event with structured key-value pairs.
func (l ZerologLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger.Debug(), keyvals).Msg(msg)
}

// Info emits an info-level log event with structured key-value pairs.
func (l ZerologLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger.Info(), keyvals).Msg(msg)
}

// Warn emits a warning-level log event with structured key-value pairs.
func (l ZerologLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger.Warn(), keyvals).Msg(msg)
}

// Error emits an error-level log event with structured key-value pairs. Any
// pair whose value is an error, under whatever key, is attached via AnErr
// rather than Interface so zerolog formats it consistently.
func (l ZerologLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	applyKeyvals(l.logger.Error(), keyvals).Msg(msg)
}

// applyKeyvals folds (k1, v1, k2, v2, ...) pairs onto a zerolog event. Keys
// that are not strings are skipped; an odd trailing key is paired with nil.
func applyKeyvals(ev *zerolog.Event, keyvals []any) *zerolog.Event {
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		var val any
		if i+1 < len(keyvals) {
			val = keyvals[i+1]
		}
		if err, ok := val.(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, val)
	}
	return ev
}
