package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// CommandLogger writes dispatcher events through zerolog. Values are written
// with typed fields so errors land under zerolog's error conventions and
// durations use its configured unit.
type CommandLogger struct {
	logger zerolog.Logger
}

// NewCommandLogger wraps logger and tags every event with the dispatcher
// component.
func NewCommandLogger(logger zerolog.Logger) *CommandLogger {
	return &CommandLogger{logger: logger.With().Str("component", "dispatcher").Logger()}
}

// Debug logs a debug message with optional key-value pairs.
func (l *CommandLogger) Debug(msg string, keysAndValues ...any) {
	write(l.logger.Debug(), msg, keysAndValues)
}

// Info logs an info message with optional key-value pairs.
func (l *CommandLogger) Info(msg string, keysAndValues ...any) {
	write(l.logger.Info(), msg, keysAndValues)
}

// Error logs an error message with optional key-value pairs.
func (l *CommandLogger) Error(msg string, keysAndValues ...any) {
	write(l.logger.Error(), msg, keysAndValues)
}

// write adds the pairs to e and sends it. Pairs with a non-string key, a
// dangling key and empty strings are skipped.
func write(e *zerolog.Event, msg string, keysAndValues []any) {
	if e == nil {
		return
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		switch v := keysAndValues[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		case string:
			if v != "" {
				e = e.Str(key, v)
			}
		case int:
			e = e.Int(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}
