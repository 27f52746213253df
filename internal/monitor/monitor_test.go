package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/flight"
	"github.com/dronepath/autopilot/internal/handlers"
	"github.com/dronepath/autopilot/internal/mission"
	"github.com/dronepath/autopilot/internal/worker"
	"github.com/dronepath/autopilot/pkg/core"
)

type mockWriter struct {
	mu     sync.Mutex
	points []*influxdb2_write.Point
}

func (w *mockWriter) Bucket() string { return "flights" }

func (w *mockWriter) WritePoint(_ string, p *influxdb2_write.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, p)
	return nil
}

func (w *mockWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.points)
}

// pendingBackend reports a queue depth and write duration
type pendingBackend struct{}

func (pendingBackend) Init() error                         { return nil }
func (pendingBackend) Close() error                        { return nil }
func (pendingBackend) StartFlight(*core.Flight) error      { return nil }
func (pendingBackend) RecordWaypoint(*core.Waypoint) error { return nil }
func (pendingBackend) EndFlight() error                    { return nil }
func (pendingBackend) Pending() int                        { return 5 }
func (pendingBackend) GetLastDBWriteDuration() time.Duration {
	return 1500 * time.Microsecond
}

func newService(t *testing.T) *handlers.Service {
	t.Helper()
	svc := handlers.NewService(handlers.Dependencies{
		Session: flight.NewSession(flight.Config{DistanceUnit: 1, Speed: 10, Scale: 10}, nil),
	}, mission.NewContext("loop"))
	_, err := svc.Intent(core.Intent{Token: core.Forward})
	require.NoError(t, err)
	return svc
}

func TestGetProgramStatus(t *testing.T) {
	s := NewService(Dependencies{
		Service:       newService(t),
		WorkerManager: worker.NewManager(worker.Dependencies{}, pendingBackend{}),
	})

	r := s.GetProgramStatus()
	assert.Equal(t, "loop", r.Session.Plan)
	assert.Equal(t, 3, r.Session.Instructions)
	assert.Equal(t, 5, r.PendingWrites)
	assert.InDelta(t, 1.5, r.LastWriteDurationMs, 1e-6)
}

func TestTick_WritesFileAndPoint(t *testing.T) {
	w := &mockWriter{}
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{
		Service:    newService(t),
		Influx:     w,
		StatusFile: path,
	})

	s.Tick()

	require.Equal(t, 1, w.count())
	p := w.points[0]
	assert.Equal(t, "session_status", p.Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "session")
}

func TestStatusPoint(t *testing.T) {
	r := Report{
		Time: time.Unix(10, 0),
		Session: handlers.Status{
			Plan:         "loop",
			Orientation:  "north",
			Instructions: 3,
			LastSend:     &mission.SendResult{Commands: 3},
		},
	}
	p := StatusPoint(r)

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"plan": "loop", "orientation": "north"}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(3), fields["instructions"])
	assert.Equal(t, true, fields["lastSendOk"])
	assert.Equal(t, time.Unix(10, 0), p.Time())
}

func TestStartStop(t *testing.T) {
	w := &mockWriter{}
	s := NewService(Dependencies{Service: newService(t), Influx: w, Interval: 5 * time.Millisecond})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return w.count() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestNewService_DefaultInterval(t *testing.T) {
	s := NewService(Dependencies{})
	assert.Equal(t, 30*time.Second, s.deps.Interval)
}
