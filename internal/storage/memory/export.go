// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/routecue/waypointd/pkg/core"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	SessionID     string              `json:"sessionId"`
	RouteLabel    string              `json:"routeLabel"`
	StartedAt     time.Time           `json:"startedAt"`
	EndedAt       time.Time           `json:"endedAt"`
	Notifications []core.Notification `json:"notifications"`
	Status        []core.StatusSample `json:"status"`
	// Counts tallies notifications per stage.
	Counts map[core.Stage]int `json:"counts"`
}

var filenameReplacer = strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")

// exportJSON writes the session to a JSON file, gzipped when configured.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	label := b.session.RouteLabel
	if label == "" {
		label = "session"
	}
	name := filenameReplacer.Replace(label)
	timestamp := b.session.StartedAt.UTC().Format("20060102_150405")

	filename := fmt.Sprintf("%s_%s.json", name, timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeJSON(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	endedAt := b.session.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now().UTC()
	}
	export := SessionExport{
		SessionID:     b.session.ID,
		RouteLabel:    b.session.RouteLabel,
		StartedAt:     b.session.StartedAt,
		EndedAt:       endedAt,
		Notifications: make([]core.Notification, 0, len(b.notifications)),
		Status:        make([]core.StatusSample, 0, len(b.statuses)),
		Counts:        make(map[core.Stage]int),
	}
	export.Notifications = append(export.Notifications, b.notifications...)
	export.Status = append(export.Status, b.statuses...)
	for _, n := range b.notifications {
		export.Counts[n.Stage]++
	}
	return export
}

func writeJSON(path string, data SessionExport, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if compress {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		w = gzWriter
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return nil
}
