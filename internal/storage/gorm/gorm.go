// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/routecue/waypointd/internal/database"
	"github.com/routecue/waypointd/internal/model"
	"github.com/routecue/waypointd/internal/model/convert"
	"github.com/routecue/waypointd/internal/queue"
	"github.com/routecue/waypointd/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is used when Config.FlushInterval is unset.
const DefaultFlushInterval = 2 * time.Second

// ErrNoDatabase is returned by Init when neither a DB nor an opener is set.
var ErrNoDatabase = errors.New("no database configured")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB *gorm.DB
	// Open is called by Init when DB is nil.
	Open   func() (*gorm.DB, error)
	Logger *slog.Logger
}

// Config holds writer settings.
type Config struct {
	FlushInterval time.Duration
	// MaxPending bounds each write queue; the oldest rows are dropped when
	// the database stays unreachable.
	MaxPending int
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	Notifications *queue.Queue[model.Notification]
	Statuses      *queue.Queue[model.StatusSample]
}

func newQueues(limit int) *queues {
	return &queues{
		Notifications: queue.New[model.Notification](limit),
		Statuses:      queue.New[model.StatusSample](limit),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	cfg       Config
	queues    *queues
	sessionID atomic.Pointer[uuid.UUID]
	flushMu   sync.Mutex
	// reported is the drop count already logged.
	reported  uint64
	stopChan  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies, cfg Config) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		cfg:    cfg,
		queues: newQueues(cfg.MaxPending),
	}
}

// DB returns the underlying connection, nil before Init.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init opens the DB if needed, runs schema migration, and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		if b.deps.Open == nil {
			return ErrNoDatabase
		}
		db, err := b.deps.Open()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine and flushes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	return b.Flush()
}

// StartSession inserts the session synchronously so later rows can reference it.
func (b *Backend) StartSession(s *core.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row, err := convert.CoreToSession(*s)
	if err != nil {
		return err
	}
	if b.deps.DB != nil {
		if err := b.deps.DB.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}
	b.sessionID.Store(&row.ID)
	return nil
}

// EndSession stamps the end time on the current session and flushes the queues.
func (b *Backend) EndSession() error {
	id := b.sessionID.Load()
	if id == nil {
		return nil
	}
	// rows of this session are already stamped; write them before it closes
	flushErr := b.Flush()
	b.sessionID.CompareAndSwap(id, nil)
	if flushErr != nil {
		return flushErr
	}
	if b.deps.DB == nil {
		return nil
	}
	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", *id).
		Update("ended_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// RecordNotification converts and queues a notification.
func (b *Backend) RecordNotification(n *core.Notification) error {
	row, err := convert.CoreToNotification(*n)
	if err != nil {
		return err
	}
	row.SessionID = b.stamp(row.SessionID)
	b.queues.Notifications.Push(row)
	return nil
}

// RecordStatus converts and queues a status sample.
func (b *Backend) RecordStatus(s *core.StatusSample) error {
	row, err := convert.CoreToStatusSample(*s)
	if err != nil {
		return err
	}
	row.SessionID = b.stamp(row.SessionID)
	b.queues.Statuses.Push(row)
	return nil
}

// stamp returns id, or the current session when id is unset.
func (b *Backend) stamp(id uuid.UUID) uuid.UUID {
	if id != uuid.Nil {
		return id
	}
	if cur := b.sessionID.Load(); cur != nil {
		return *cur
	}
	return uuid.Nil
}

// QueueLen reports the number of rows waiting for the writer.
func (b *Backend) QueueLen() int {
	return b.queues.Notifications.Len() + b.queues.Statuses.Len()
}

// Dropped reports rows evicted from full queues.
func (b *Backend) Dropped() uint64 {
	return b.queues.Notifications.Dropped() + b.queues.Statuses.Dropped()
}

// Flush writes all queued rows now.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if dropped := b.Dropped(); dropped > b.reported {
		b.deps.Logger.Warn("Journal queue full, oldest rows dropped", "dropped", dropped-b.reported)
		b.reported = dropped
	}

	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Notifications, "notifications", b.deps.Logger),
		writeQueue(b.deps.DB, b.queues.Statuses, "status samples", b.deps.Logger),
	)
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	if q.Empty() {
		return nil
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error creating rows", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Requeue(items)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := tx.Commit().Error; err != nil {
		q.Requeue(items)
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	log.Debug("Wrote rows", "table", name, "count", len(items))
	return nil
}

// writerLoop periodically drains queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			// errors are logged by writeQueue and retried next tick
			_ = b.Flush()
		}
	}
}
