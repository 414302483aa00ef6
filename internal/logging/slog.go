package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// swapped in tests
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// Options selects the log outputs.
type Options struct {
	// File receives text records; stdout is used when nil.
	File io.Writer
	// Level is the minimum level for File (or stdout).
	Level string
	// Remote, when set, receives JSON records, e.g. a GELF writer.
	Remote io.Writer
	// RemoteLevel is the minimum level for Remote; Level is used when empty.
	RemoteLevel string
}

// SlogManager manages slog-based logging with optional Graylog output.
type SlogManager struct {
	logger *slog.Logger

	// remote is closed on Close when it is an io.Closer
	remote io.Writer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// NewGraylogWriter dials the GELF UDP endpoint at addr.
func NewGraylogWriter(addr string) (*gelf.Writer, error) {
	return gelf.NewWriter(addr)
}

// parseLevel converts a level name such as "debug" or "WARN" to a slog.Level.
// Unknown names yield info.
func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup builds the logger from opts, replacing any earlier one.
func (m *SlogManager) Setup(opts Options) {
	m.remote = opts.Remote

	local := opts.File
	if local == nil {
		local = osStdout
	}
	level := parseLevel(opts.Level)
	handlers := []slog.Handler{slog.NewTextHandler(local, handlerOptions(level))}

	if opts.Remote != nil {
		remoteLevel := level
		if opts.RemoteLevel != "" {
			remoteLevel = parseLevel(opts.RemoteLevel)
		}
		handlers = append(handlers, slog.NewJSONHandler(opts.Remote, handlerOptions(remoteLevel)))
	}

	m.logger = slog.New(NewMultiHandler(handlers...))
	m.logger.Info("Logging initialized", "level", level.String(), "remote", opts.Remote != nil)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Close releases the remote writer.
func (m *SlogManager) Close() error {
	if c, ok := m.remote.(io.Closer); ok {
		m.remote = nil
		return c.Close()
	}
	return nil
}
