// Package monitor samples the engine state periodically.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/routecue/waypointd/internal/storage"
	"github.com/routecue/waypointd/internal/waypoint"
	"github.com/routecue/waypointd/pkg/core"
)

// DefaultInterval is used when no sampling interval is configured.
const DefaultInterval = 30 * time.Second

// StatusSource reports the engine state.
type StatusSource interface {
	Status() waypoint.Status
}

// QueueSource reports how many commands are waiting.
type QueueSource interface {
	QueueDepth() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Engine    StatusSource
	Queues    QueueSource
	SessionID func() string
	// Recorders receive every sample, e.g. influx and the journal backend.
	Recorders  []storage.StatusRecorder
	Logger     *slog.Logger
	StatusFile string
	Interval   time.Duration
	Now        func() time.Time
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.SessionID == nil {
		deps.SessionID = func() string { return "" }
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample builds a status sample from the current engine state.
func (s *Service) Sample() core.StatusSample {
	st := s.deps.Engine.Status()
	sample := core.StatusSample{
		SessionID:     s.deps.SessionID(),
		Time:          s.deps.Now().UTC(),
		RouteSet:      st.RouteSet,
		RouteIndex:    st.RouteIndex,
		Remaining:     st.Remaining,
		TrackedStates: st.TrackedState,
	}
	if s.deps.Queues != nil {
		sample.QueueDepth = s.deps.Queues.QueueDepth()
	}
	return sample
}

// StatusLines renders a sample for the status file.
func StatusLines(sample core.StatusSample) []string {
	lines := []string{
		"time: " + sample.Time.Format(time.RFC3339),
		"session: " + sample.SessionID,
		fmt.Sprintf("route set: %t", sample.RouteSet),
		"route index: " + humanize.Comma(int64(sample.RouteIndex)),
		"tracked states: " + humanize.Comma(int64(sample.TrackedStates)),
		"queue depth: " + humanize.Comma(int64(sample.QueueDepth)),
	}
	names := make([]string, 0, len(sample.Remaining))
	for name := range sample.Remaining {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("remaining %s: %s", name, humanize.Comma(int64(sample.Remaining[name]))))
	}
	raw, err := json.Marshal(sample)
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	return append(lines, string(raw))
}

// Tick takes one sample and hands it to the log, the recorders and the
// status file.
func (s *Service) Tick() core.StatusSample {
	logger := s.deps.Logger
	sample := s.Sample()

	logger.Debug("Status",
		"session", sample.SessionID,
		"routeSet", sample.RouteSet,
		"routeIndex", sample.RouteIndex,
		"trackedStates", sample.TrackedStates,
		"queueDepth", sample.QueueDepth)

	for _, rec := range s.deps.Recorders {
		if err := rec.RecordStatus(&sample); err != nil {
			logger.Warn("Error recording status", "error", err)
		}
	}

	if s.deps.StatusFile != "" {
		if err := writeStatusFile(s.deps.StatusFile, StatusLines(sample)); err != nil {
			logger.Error("Error writing status file", "error", err)
		}
	}
	return sample
}

func writeStatusFile(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.Engine == nil {
		s.mu.Unlock()
		return fmt.Errorf("monitor: no status source")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	done := s.done
	s.mu.Unlock()
	<-done
}
