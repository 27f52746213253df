package influx

import (
	"strconv"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/dronepath/autopilot/pkg/core"
)

// Measurement names.
const (
	MeasurementFlight   = "flight"
	MeasurementWaypoint = "waypoint"
	MeasurementStatus   = "session_status"
)

// FlightSink writes every playback run to InfluxDB. It satisfies playback.Sink.
type FlightSink struct {
	m *Manager

	mu     sync.Mutex
	flight core.Flight
}

// NewFlightSink creates a sink writing to the manager's bucket.
func NewFlightSink(m *Manager) *FlightSink {
	return &FlightSink{m: m}
}

func (s *FlightSink) StartFlight(f *core.Flight) error {
	s.mu.Lock()
	s.flight = *f
	s.mu.Unlock()

	p := influxdb2_write.NewPoint(MeasurementFlight,
		map[string]string{"plan": f.PlanName, "event": "start"},
		map[string]any{"flight": int64(f.ID), "steps": f.Steps},
		f.StartTime,
	)
	return s.m.WritePoint(s.m.Bucket(), p)
}

func (s *FlightSink) RecordWaypoint(w *core.Waypoint) error {
	s.mu.Lock()
	plan := s.flight.PlanName
	s.mu.Unlock()

	p := influxdb2_write.NewPoint(MeasurementWaypoint,
		map[string]string{
			"plan":   plan,
			"flight": strconv.FormatUint(uint64(w.FlightID), 10),
			"kind":   string(w.Kind),
			"phase":  string(w.Phase),
		},
		map[string]any{
			"seq":  w.Seq,
			"step": w.Step,
			"x":    w.Position.X,
			"y":    w.Position.Y,
			"z":    w.Position.Z,
		},
		w.Time,
	)
	return s.m.WritePoint(s.m.Bucket(), p)
}

func (s *FlightSink) EndFlight() error {
	s.mu.Lock()
	f := s.flight
	s.mu.Unlock()

	p := influxdb2_write.NewPoint(MeasurementFlight,
		map[string]string{"plan": f.PlanName, "event": "end"},
		map[string]any{
			"flight":   int64(f.ID),
			"duration": time.Since(f.StartTime).Seconds(),
		},
		time.Now(),
	)
	return s.m.WritePoint(s.m.Bucket(), p)
}
