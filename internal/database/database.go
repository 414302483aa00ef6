// Package database opens the gorm connections behind the journal backends.
package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/routecue/waypointd/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SchemaVersion is stored in the SQLite user_version of every journal file.
const SchemaVersion = 1

// ErrNoSnapshotPath is returned by Snapshot when no target path is given.
var ErrNoSnapshotPath = errors.New("snapshot path not set")

// PostgresConfig holds the Postgres connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DSN renders the connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

func gormConfig(batch int, prepare bool) *gorm.Config {
	return &gorm.Config{
		PrepareStmt:            prepare,
		SkipDefaultTransaction: true,
		CreateBatchSize:        batch,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// OpenPostgres connects to Postgres and checks the connection.
func OpenPostgres(cfg PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), gormConfig(5000, false))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach postgres at %s:%s: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

// OpenSqlite opens the SQLite file at path. An empty path opens a private
// in-memory database that lives until the returned handle is closed.
func OpenSqlite(path string) (*gorm.DB, error) {
	inMemory := path == ""
	dsn := path
	if inMemory {
		// a named shared-cache db so pooled connections see the same data
		dsn = "file:journal-" + uuid.NewString() + "?mode=memory&cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(1000, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	journal := "WAL"
	if inMemory {
		journal = "MEMORY"
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion),
		"PRAGMA journal_mode = " + journal,
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return db, nil
}

// Migrate creates or updates the journal tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Snapshot writes a consistent copy of a SQLite database to path, replacing
// any earlier snapshot there. The copy is built next to path and renamed into
// place so readers never see a partial file.
func Snapshot(db *gorm.DB, path string) error {
	if path == "" {
		return ErrNoSnapshotPath
	}
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear stale snapshot: %w", err)
	}
	quoted := strings.ReplaceAll(tmp, "'", "''")
	if err := db.Exec("VACUUM INTO '" + quoted + "'").Error; err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}
