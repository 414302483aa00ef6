// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"

	"github.com/routecue/waypointd/internal/config"
	gormstorage "github.com/routecue/waypointd/internal/storage/gorm"
	"github.com/routecue/waypointd/internal/storage/memory"
	"github.com/routecue/waypointd/internal/storage/postgres"
	sqlitestorage "github.com/routecue/waypointd/internal/storage/sqlite"
)

// Dependencies are shared by all backends.
type Dependencies struct {
	Logger *slog.Logger
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, deps Dependencies) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres, gormstorage.Config{
			FlushInterval: cfg.FlushInterval,
			MaxPending:    cfg.MaxPending,
		}, deps.Logger), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpPath:      cfg.SQLite.DumpPath,
			DumpInterval:  cfg.SQLite.DumpInterval,
			FlushInterval: cfg.FlushInterval,
			MaxPending:    cfg.MaxPending,
		}, deps.Logger)
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
