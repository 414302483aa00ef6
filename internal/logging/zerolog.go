package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// NewZerolog builds the root zerolog logger of the infrastructure managers.
// Children add their own component field.
func NewZerolog(w io.Writer, level string, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
