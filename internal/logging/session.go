package logging

import (
	"context"
	"log/slog"
)

// SessionKey is the attribute carrying the navigation session id.
const SessionKey = "session"

// SessionHandler tags every record with the current navigation session.
// Records that already carry a session attribute are left alone, so a log
// line about a session that just ended keeps that session's id.
type SessionHandler struct {
	inner   slog.Handler
	current func() string
	// pinned is set once a session attribute was bound with WithAttrs.
	pinned bool
}

// NewSessionHandler wraps inner. current returns the open session's id, or ""
// outside a session.
func NewSessionHandler(inner slog.Handler, current func() string) *SessionHandler {
	return &SessionHandler{inner: inner, current: current}
}

// Enabled delegates to the inner handler.
func (h *SessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the session attribute when missing and delegates.
func (h *SessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.current == nil || h.pinned || hasSession(r) {
		return h.inner.Handle(ctx, r)
	}
	if id := h.current(); id != "" {
		r.AddAttrs(slog.String(SessionKey, id))
	}
	return h.inner.Handle(ctx, r)
}

func hasSession(r slog.Record) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == SessionKey
		return !found
	})
	return found
}

// WithAttrs returns a handler with attrs bound.
func (h *SessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	pinned := h.pinned
	for _, a := range attrs {
		if a.Key == SessionKey {
			pinned = true
		}
	}
	return &SessionHandler{
		inner:   h.inner.WithAttrs(attrs),
		current: h.current,
		pinned:  pinned,
	}
}

// WithGroup returns a handler that nests later attributes under name.
func (h *SessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SessionHandler{
		inner:   h.inner.WithGroup(name),
		current: h.current,
		pinned:  h.pinned,
	}
}
