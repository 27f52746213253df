package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/pkg/core"
)

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	var lines []string
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	require.NoError(t, sc.Err())
	return lines
}

func newBackupManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	m := NewManager(config.InfluxConfig{Bucket: "flights"}, zerolog.Nop(), path)
	require.NoError(t, m.UseBackup())
	return m, path
}

func TestNewManager_DefaultBucket(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.Equal(t, "flights", m.Bucket())
	assert.False(t, m.IsValid)
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{Enabled: false}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	p := influxdb2_write.NewPointWithMeasurement("x").AddField("v", 1)
	assert.Error(t, m.WritePoint(m.Bucket(), p))
}

func TestWritePoint_Backup(t *testing.T) {
	m, path := newBackupManager(t)

	p := influxdb2_write.NewPoint("session_status",
		map[string]string{"plan": "loop"},
		map[string]any{"instructions": 4},
		time.Unix(0, 42),
	)
	require.NoError(t, m.WritePoint(m.Bucket(), p))
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "session_status,plan=loop instructions=4i 42", lines[0])
}

func TestUseBackup_Idempotent(t *testing.T) {
	m, _ := newBackupManager(t)
	w := m.BackupWriter
	require.NoError(t, m.UseBackup())
	assert.Same(t, w, m.BackupWriter)
	require.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}

func TestFlightSink(t *testing.T) {
	m, path := newBackupManager(t)
	sink := NewFlightSink(m)

	start := time.Now()
	require.NoError(t, sink.StartFlight(&core.Flight{ID: 7, PlanName: "square", StartTime: start, Steps: 3}))
	require.NoError(t, sink.RecordWaypoint(&core.Waypoint{
		FlightID: 7, Seq: 1, Step: 0, Kind: core.KindMove, Phase: core.PhaseStep,
		Position: core.Vec3{X: 0, Y: 1, Z: 1}, Time: start,
	}))
	require.NoError(t, sink.EndFlight())
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 3)

	assert.True(t, strings.HasPrefix(lines[0], "flight,event=start,plan=square "), lines[0])
	assert.Contains(t, lines[0], "steps=3i")

	assert.True(t, strings.HasPrefix(lines[1], "waypoint,"), lines[1])
	assert.Contains(t, lines[1], "flight=7")
	assert.Contains(t, lines[1], "phase=step")
	assert.Contains(t, lines[1], "plan=square")
	assert.Contains(t, lines[1], "seq=1i")

	assert.True(t, strings.HasPrefix(lines[2], "flight,event=end,plan=square "), lines[2])
	assert.Contains(t, lines[2], "duration=")
}
