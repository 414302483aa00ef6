// Package worker binds navigation commands to the waypoint engine.
package worker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/routecue/waypointd/internal/parser"
	"github.com/routecue/waypointd/internal/poi"
	"github.com/routecue/waypointd/internal/session"
	"github.com/routecue/waypointd/internal/storage"
	"github.com/routecue/waypointd/internal/voice"
	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/pkg/core"
)

var (
	// ErrNotConfigurable is returned when toggling a category that is always on.
	ErrNotConfigurable = errors.New("category is not configurable")
)

// DefaultLocationBuffer is the queue size for location fixes.
const DefaultLocationBuffer = 1000

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Helper    *waypoint.Helper
	Session   *session.Context
	Parser    *parser.Parser
	Voice     *voice.Router
	Favorites *poi.Store
	Waypoints *poi.Store
	// POICache is reset whenever a new route arrives.
	POICache interface{ Reset() }
	Logger   *slog.Logger
	Now      func() time.Time
	// LocationBuffer is the queue size of the :LOCATION: handler.
	LocationBuffer int
}

// Manager drives the engine from dispatched commands
type Manager struct {
	deps    Dependencies
	backend storage.Backend
}

// NewManager creates a new worker manager. backend may be nil.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Parser == nil {
		deps.Parser = parser.NewParser(deps.Logger)
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.LocationBuffer <= 0 {
		deps.LocationBuffer = DefaultLocationBuffer
	}
	return &Manager{
		deps:    deps,
		backend: backend,
	}
}

func (m *Manager) hasBackend() bool {
	return m.backend != nil
}

func (m *Manager) units() core.Units {
	if m.deps.Voice != nil {
		return m.deps.Voice.Units()
	}
	return m.deps.Helper.Settings().Units
}

// EndSession closes the open session, if any, and tells the backend.
func (m *Manager) EndSession() error {
	s, ok := m.deps.Session.End(m.deps.Now())
	if !ok {
		return nil
	}
	m.deps.Logger.Info("Session ended", "session", s.ID, "route", s.RouteLabel)
	if m.hasBackend() {
		return m.backend.EndSession()
	}
	return nil
}

func (m *Manager) startSession(label string) error {
	s := m.deps.Session.Start(label, m.deps.Now())
	m.deps.Logger.Info("Session started", "session", s.ID, "route", label)
	if m.hasBackend() {
		return m.backend.StartSession(&s)
	}
	return nil
}
