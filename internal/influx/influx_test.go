package influx

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/routecue/waypointd/internal/config"
	"github.com/routecue/waypointd/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachable(backup string) config.InfluxConfig {
	return config.InfluxConfig{
		Enabled:    true,
		Host:       "127.0.0.1",
		Port:       "1",
		Protocol:   "http",
		Org:        "test",
		BackupPath: backup,
	}
}

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	return string(data)
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.NoError(t, m.Close())
}

func TestConnect_UnreachableWithoutBackup(t *testing.T) {
	m := NewManager(zerolog.Nop(), unreachable(""))
	assert.Error(t, m.Connect(context.Background()))
	assert.False(t, m.Online())
	assert.NoError(t, m.Close())
}

func TestWritePoint_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})
	err := m.RecordNotification(&core.Notification{Stage: core.StageAlarm})
	assert.ErrorIs(t, err, ErrNoSink)
}

func TestBackup_RecordsLineProtocol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "influx.lp.gz")
	var logBuf bytes.Buffer
	m := NewManager(zerolog.New(&logBuf), unreachable(path))
	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.Online())
	assert.Contains(t, logBuf.String(), "backup")

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.RecordNotification(&core.Notification{
		SessionID: "s-1",
		Time:      ts,
		Category:  "waypoints",
		Stage:     core.StageApproach,
		Text:      "In 700 meters, Home",
		Points:    []string{"a", "b"},
		Distance:  700,
		Speed:     12.5,
	}))
	require.NoError(t, m.RecordStatus(&core.StatusSample{
		Time:       ts,
		RouteSet:   true,
		RouteIndex: 4,
		Remaining:  map[string]int{"poi": 3},
	}))
	require.NoError(t, m.Close())

	out := readBackup(t, path)
	assert.Contains(t, out, "notification,")
	assert.Contains(t, out, "category=waypoints")
	assert.Contains(t, out, "stage=approach")
	assert.Contains(t, out, "session=s-1")
	assert.Contains(t, out, "points=2i")
	assert.Contains(t, out, "distance=700")
	assert.Contains(t, out, "status,session=none ")
	assert.Contains(t, out, "remaining_poi=3i")
	assert.Contains(t, out, "route_index=4i")

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2, "one line per point, no blank lines")
	for _, line := range lines {
		assert.NotEmpty(t, line)
	}
	assert.NotContains(t, out, "status, ", "empty tag set")
}

func TestStatusPoint_AlwaysTagged(t *testing.T) {
	tests := []struct {
		name    string
		session string
		want    string
	}{
		{"outside a session", "", "status,session=none "},
		{"inside a session", "s-2", "status,session=s-2 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := StatusPoint(&core.StatusSample{SessionID: tt.session, RouteIndex: 1})
			line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
			assert.True(t, strings.HasPrefix(line, tt.want), "got %q", line)
			assert.True(t, strings.HasSuffix(line, "i\n"), "got %q", line)
		})
	}
}

func TestNotificationPoint_NoSession(t *testing.T) {
	p := NotificationPoint(&core.Notification{Category: "alarms", Stage: core.StageSpeedAlarm})
	assert.Equal(t, "notification", p.Name())
	for _, tag := range p.TagList() {
		assert.NotEqual(t, "session", tag.Key)
	}
}

func TestStatusPoint_Fields(t *testing.T) {
	p := StatusPoint(&core.StatusSample{
		RouteSet:      true,
		TrackedStates: 5,
		QueueDepth:    2,
		Remaining:     map[string]int{"waypoints": 1, "favorites": 0},
	})
	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, true, fields["route_set"])
	assert.EqualValues(t, 5, fields["tracked_states"])
	assert.EqualValues(t, 2, fields["queue_depth"])
	assert.Contains(t, fields, "remaining_waypoints")
	assert.Contains(t, fields, "remaining_favorites")
}
