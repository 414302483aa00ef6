// Package logging sets up the daemon's log outputs: per-run log files, an
// optional Graylog sink, session tagging and the zerolog side used by the
// infrastructure managers.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const fileTimeLayout = "20060102_150405"

// LogFilePath builds the per-run log file path.
func LogFilePath(logsDir, serviceName string, runStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", serviceName, runStart.Format(fileTimeLayout)),
	)
}

// OpenLogFile creates logsDir when missing and opens the log file of the run
// started at runStart for appending.
func OpenLogFile(logsDir, serviceName string, runStart time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := LogFilePath(logsDir, serviceName, runStart)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// PruneLogFiles removes all but the newest keep log files of serviceName in
// logsDir and returns the removed paths. keep <= 0 disables pruning.
func PruneLogFiles(logsDir, serviceName string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(logsDir, serviceName+".*.log"))
	if err != nil {
		return nil, err
	}
	if len(matches) <= keep {
		return nil, nil
	}
	// the timestamp layout sorts lexically in time order
	sort.Strings(matches)
	stale := matches[:len(matches)-keep]
	removed := make([]string, 0, len(stale))
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove old log file: %w", err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
