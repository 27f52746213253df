package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dronepath/autopilot/pkg/core"
)

// PlaybackMetrics counts playback runs and waypoints. It satisfies playback.Sink.
type PlaybackMetrics struct {
	flights   metric.Int64Counter
	waypoints metric.Int64Counter
	active    metric.Int64UpDownCounter
}

// NewPlaybackMetrics registers the playback instruments on meter.
func NewPlaybackMetrics(meter metric.Meter) (*PlaybackMetrics, error) {
	flights, err := meter.Int64Counter("autopilot.playback.flights",
		metric.WithDescription("Playback runs started"),
	)
	if err != nil {
		return nil, fmt.Errorf("create flights counter: %w", err)
	}
	waypoints, err := meter.Int64Counter("autopilot.playback.waypoints",
		metric.WithDescription("Cursor writes recorded during playback"),
	)
	if err != nil {
		return nil, fmt.Errorf("create waypoints counter: %w", err)
	}
	active, err := meter.Int64UpDownCounter("autopilot.playback.active",
		metric.WithDescription("Playback runs not yet released"),
	)
	if err != nil {
		return nil, fmt.Errorf("create active counter: %w", err)
	}
	return &PlaybackMetrics{flights: flights, waypoints: waypoints, active: active}, nil
}

func (m *PlaybackMetrics) StartFlight(f *core.Flight) error {
	ctx := context.Background()
	m.flights.Add(ctx, 1, metric.WithAttributes(attribute.String("plan", f.PlanName)))
	m.active.Add(ctx, 1)
	return nil
}

func (m *PlaybackMetrics) RecordWaypoint(w *core.Waypoint) error {
	m.waypoints.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", string(w.Kind)),
		attribute.String("phase", string(w.Phase)),
	))
	return nil
}

func (m *PlaybackMetrics) EndFlight() error {
	m.active.Add(context.Background(), -1)
	return nil
}
