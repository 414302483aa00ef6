// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/routecue/waypointd/internal/config"
	"github.com/routecue/waypointd/pkg/core"
)

// Backend keeps the session journal in memory and exports it to JSON when
// the session ends.
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	notifications []core.Notification
	statuses      []core.StatusSample

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session, dropping anything kept from
// the previous one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *s
	b.session = &cp
	b.notifications = nil
	b.statuses = nil
	return nil
}

// EndSession exports the session when an output directory is configured.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil || b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// RecordNotification appends a notification to the journal.
func (b *Backend) RecordNotification(n *core.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *n
	if cp.SessionID == "" && b.session != nil {
		cp.SessionID = b.session.ID
	}
	b.notifications = append(b.notifications, cp)
	return nil
}

// RecordStatus appends a status sample to the journal.
func (b *Backend) RecordStatus(s *core.StatusSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.statuses = append(b.statuses, *s)
	return nil
}

// Notifications returns a copy of the journalled notifications.
func (b *Backend) Notifications() []core.Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Notification, len(b.notifications))
	copy(out, b.notifications)
	return out
}

// Statuses returns a copy of the journalled status samples.
func (b *Backend) Statuses() []core.StatusSample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.StatusSample, len(b.statuses))
	copy(out, b.statuses)
	return out
}

// ExportedFilePath returns the path of the last export, empty if none.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
