// Package influx mirrors delivered notifications and status samples into
// InfluxDB v2, or into a gzipped line protocol file when the server is down.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/routecue/waypointd/internal/config"
	"github.com/routecue/waypointd/pkg/core"
	"github.com/rs/zerolog"
)

const (
	// EventsBucket holds one point per delivered notification.
	EventsBucket = "navigation_events"
	// StatusBucket holds the periodic engine status.
	StatusBucket = "navigation_status"

	retention = 30 * 24 * time.Hour

	// noSession tags status samples taken outside a journal session.
	noSession = "none"
)

// Buckets are created on connect when missing.
var Buckets = []string{EventsBucket, StatusBucket}

var (
	// ErrDisabled is returned by Connect when influx is turned off.
	ErrDisabled = errors.New("influx.enabled is false")
	// ErrNoSink is returned by writes when neither the server nor a backup
	// file is available.
	ErrNoSink = errors.New("influx not connected and backup writer not available")
)

// backupFile appends gzipped line protocol.
type backupFile struct {
	mu   sync.Mutex
	file *os.File
	gz   *gzip.Writer
}

func openBackup(path string) (*backupFile, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open influx backup file: %w", err)
	}
	return &backupFile{file: f, gz: gzip.NewWriter(f)}, nil
}

func (b *backupFile) write(p *influxdb2_write.Point) error {
	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.gz.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to write influx backup: %w", err)
	}
	return nil
}

func (b *backupFile) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.gz.Close(), b.file.Close())
}

// Manager writes to InfluxDB when it is reachable and to the backup file
// otherwise. The choice is made once, on Connect.
type Manager struct {
	cfg    config.InfluxConfig
	logger zerolog.Logger

	client  influxdb2.Client
	writers map[string]influxdb2_api.WriteAPI
	backup  *backupFile
	online  bool
}

// NewManager creates an unconnected manager.
func NewManager(logger zerolog.Logger, cfg config.InfluxConfig) *Manager {
	return &Manager{
		cfg:     cfg,
		logger:  logger,
		writers: make(map[string]influxdb2_api.WriteAPI, len(Buckets)),
	}
}

// Online reports whether points go to the server.
func (m *Manager) Online() bool {
	return m.online
}

// Connect pings the server and prepares the buckets. An unreachable server
// with a backup path configured is not an error.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	url := fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port)
	m.client = influxdb2.NewClientWithOptions(url, m.cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(500).SetFlushInterval(1000))

	ok, err := m.client.Ping(ctx)
	if err != nil || !ok {
		return m.fallback(url, err)
	}

	org, err := m.ensureOrg(ctx)
	if err != nil {
		return err
	}
	for _, bucket := range Buckets {
		if err := m.ensureBucket(ctx, org, bucket); err != nil {
			return err
		}
		m.openWriter(bucket)
	}
	m.online = true
	m.logger.Info().Str("url", url).Strs("buckets", Buckets).Msg("InfluxDB connected")
	return nil
}

func (m *Manager) fallback(url string, pingErr error) error {
	if m.cfg.BackupPath == "" {
		return fmt.Errorf("influxdb at %s unreachable and no backup path set: %w", url, pingErr)
	}
	if m.backup == nil {
		b, err := openBackup(m.cfg.BackupPath)
		if err != nil {
			return err
		}
		m.backup = b
	}
	m.logger.Warn().AnErr("ping", pingErr).Str("backupPath", m.cfg.BackupPath).
		Msg("InfluxDB unreachable, writing line protocol to backup file")
	return nil
}

func (m *Manager) ensureOrg(ctx context.Context) (*domain.Organization, error) {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err == nil {
		return org, nil
	}
	m.logger.Info().Str("org", m.cfg.Org).Msg("Creating organization")
	org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
	if err != nil {
		return nil, fmt.Errorf("failed to create influx org %q: %w", m.cfg.Org, err)
	}
	return org, nil
}

func (m *Manager) ensureBucket(ctx context.Context, org *domain.Organization, name string) error {
	buckets := m.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, name); err == nil {
		return nil
	}
	m.logger.Info().Str("bucket", name).Dur("retention", retention).Msg("Creating bucket")
	expire := domain.RetentionRuleTypeExpire
	_, err := buckets.CreateBucketWithName(ctx, org, name, domain.RetentionRule{
		Type:         &expire,
		EverySeconds: int64(retention / time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to create influx bucket %q: %w", name, err)
	}
	return nil
}

func (m *Manager) openWriter(bucket string) {
	w := m.client.WriteAPI(m.cfg.Org, bucket)
	m.writers[bucket] = w
	go func(errs <-chan error) {
		for err := range errs {
			m.logger.Error().Err(err).Str("bucket", bucket).Msg("InfluxDB write failed")
		}
	}(w.Errors())
}

// WritePoint queues p for bucket on the server, or appends it to the backup.
func (m *Manager) WritePoint(bucket string, p *influxdb2_write.Point) error {
	if m.online {
		w, ok := m.writers[bucket]
		if !ok {
			return fmt.Errorf("influx bucket %q not registered", bucket)
		}
		w.WritePoint(p)
		return nil
	}
	if m.backup == nil {
		return ErrNoSink
	}
	return m.backup.write(p)
}

// RecordNotification writes one point per delivered notification.
func (m *Manager) RecordNotification(n *core.Notification) error {
	return m.WritePoint(EventsBucket, NotificationPoint(n))
}

// RecordStatus writes a status sample.
func (m *Manager) RecordStatus(s *core.StatusSample) error {
	return m.WritePoint(StatusBucket, StatusPoint(s))
}

// NotificationPoint renders a notification as a point.
func NotificationPoint(n *core.Notification) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement("notification").
		AddTag("category", n.Category).
		AddTag("stage", string(n.Stage)).
		AddField("points", len(n.Points)).
		AddField("distance", n.Distance).
		AddField("speed", n.Speed).
		AddField("text", n.Text).
		SetTime(n.Time)
	if n.SessionID != "" {
		p.AddTag("session", n.SessionID)
	}
	return p
}

// StatusPoint renders a status sample as a point. Remaining counts become one
// field per category.
func StatusPoint(s *core.StatusSample) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement("status").
		AddField("route_set", s.RouteSet).
		AddField("route_index", s.RouteIndex).
		AddField("tracked_states", s.TrackedStates).
		AddField("queue_depth", s.QueueDepth).
		SetTime(s.Time)
	// line protocol needs at least one tag after the measurement
	session := s.SessionID
	if session == "" {
		session = noSession
	}
	p.AddTag("session", session)
	for cat, n := range s.Remaining {
		p.AddField("remaining_"+cat, n)
	}
	return p
}

// Close flushes pending writes and releases the client and backup file.
func (m *Manager) Close() error {
	for _, w := range m.writers {
		w.Flush()
	}
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.online = false
	if m.backup == nil {
		return nil
	}
	err := m.backup.close()
	m.backup = nil
	return err
}
