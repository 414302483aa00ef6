// Package sqlitestorage keeps the journal in a private in-memory SQLite
// database and snapshots it to DumpPath on a timer and on Close.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/routecue/waypointd/internal/database"
	gormstorage "github.com/routecue/waypointd/internal/storage/gorm"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	// DumpInterval is the snapshot period; zero snapshots only on Close.
	DumpInterval time.Duration
	// DumpPath is the snapshot file; empty disables snapshots.
	DumpPath      string
	FlushInterval time.Duration
	MaxPending    int
}

// Backend is the GORM journal over an in-memory SQLite database.
type Backend struct {
	*gormstorage.Backend
	db  *gorm.DB
	cfg Config
	log *slog.Logger

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New opens the in-memory database. Nothing is written until Init.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := database.OpenSqlite("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}, gormstorage.Config{
			FlushInterval: cfg.FlushInterval,
			MaxPending:    cfg.MaxPending,
		}),
		db:   db,
		cfg:  cfg,
		log:  logger.With("component", "sqlite"),
		stop: make(chan struct{}),
	}, nil
}

// Init migrates the journal and starts periodic snapshots.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.snapshotLoop()
	}
	return nil
}

// Close flushes the journal, takes a final snapshot and closes the database.
// Later calls return the first result.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		close(b.stop)
		b.wg.Wait()

		if err := b.Backend.Close(); err != nil {
			b.closeErr = err
			return
		}
		if b.cfg.DumpPath != "" {
			b.closeErr = b.snapshot("close")
		}
		if sqlDB, err := b.db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return b.closeErr
}

// Dump snapshots the journal to DumpPath now.
func (b *Backend) Dump() error {
	return database.Snapshot(b.db, b.cfg.DumpPath)
}

// ExportedFilePath returns the snapshot location.
func (b *Backend) ExportedFilePath() string {
	return b.cfg.DumpPath
}

func (b *Backend) snapshot(reason string) error {
	start := time.Now()
	if err := b.Dump(); err != nil {
		b.log.Error("Journal snapshot failed", "reason", reason, "error", err)
		return err
	}
	b.log.Debug("Journal snapshot written", "reason", reason, "path", b.cfg.DumpPath, "took", time.Since(start))
	return nil
}

func (b *Backend) snapshotLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.snapshot("interval")
		}
	}
}
