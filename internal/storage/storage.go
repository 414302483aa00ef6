// internal/storage/storage.go
package storage

import "github.com/routecue/waypointd/pkg/core"

// Backend is the interface all journal implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// RecordNotification journals a delivered notification. It must be safe
	// to call from the announcement path.
	RecordNotification(n *core.Notification) error
}

// StatusRecorder is an optional interface for backends that also keep the
// periodic status samples.
type StatusRecorder interface {
	RecordStatus(s *core.StatusSample) error
}

// Exportable is an optional interface for backends that produce a file when
// a session ends.
type Exportable interface {
	ExportedFilePath() string
}
