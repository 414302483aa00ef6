// Package postgres implements the storage.Backend interface on PostgreSQL
// through the GORM backend.
package postgres

import (
	"log/slog"

	"github.com/routecue/waypointd/internal/database"
	gormstorage "github.com/routecue/waypointd/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend is the GORM backend with a Postgres connection opened on Init.
type Backend struct {
	*gormstorage.Backend
	cfg database.PostgresConfig
}

// New creates a Postgres backend. No connection is made until Init.
func New(cfg database.PostgresConfig, writer gormstorage.Config, logger *slog.Logger) *Backend {
	b := &Backend{cfg: cfg}
	b.Backend = gormstorage.New(gormstorage.Dependencies{
		Open:   b.open,
		Logger: logger,
	}, writer)
	return b
}

func (b *Backend) open() (*gorm.DB, error) {
	return database.OpenPostgres(b.cfg)
}
