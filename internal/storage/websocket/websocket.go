// Package websocket streams playback runs to an external visualizer.
// It implements storage.Backend but not storage.Uploadable.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/pkg/core"
	"github.com/dronepath/autopilot/pkg/streaming"
)

const (
	defaultAckTimeout = 10 * time.Second
	defaultTokenTTL   = time.Minute
)

// Backend streams flight start, waypoints and end over one socket.
// Start and end wait for an ack; waypoints are fire-and-forget.
type Backend struct {
	conn      *connection
	cfg       config.WebSocketConfig
	flightID  atomic.Uint64
	waypoints atomic.Int64
}

// New creates a new WebSocket storage backend.
func New(cfg config.WebSocketConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = defaultAckTimeout
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &Backend{
		conn: newConnection(logger.With("component", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the visualizer.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret, b.cfg.TokenTTL)
}

// Close disconnects from the visualizer.
func (b *Backend) Close() error {
	return b.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartFlight announces the run and waits for the ack. The message is kept
// for replay after a reconnect.
func (b *Backend) StartFlight(f *core.Flight) error {
	data, err := marshalEnvelope(streaming.TypeStartFlight, streaming.StartFlightPayload{Flight: f})
	if err != nil {
		return err
	}
	b.flightID.Store(uint64(f.ID))
	b.waypoints.Store(0)
	b.conn.setStart(data)
	return b.conn.sendAndWait(data, streaming.TypeStartFlight, b.cfg.AckTimeout)
}

// RecordWaypoint streams one cursor write.
func (b *Backend) RecordWaypoint(w *core.Waypoint) error {
	data, err := marshalEnvelope(streaming.TypeWaypoint, w)
	if err != nil {
		return err
	}
	b.waypoints.Add(1)
	b.conn.send(data)
	return nil
}

// EndFlight closes the run and waits for the ack.
func (b *Backend) EndFlight() error {
	data, err := marshalEnvelope(streaming.TypeEndFlight, streaming.EndFlightPayload{
		FlightID:  uint(b.flightID.Load()),
		Waypoints: int(b.waypoints.Load()),
	})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndFlight, b.cfg.AckTimeout)
	b.conn.setStart(nil)
	return err
}

// PublishPlan sends the compiled plan so the visualizer can draw it.
func (b *Backend) PublishPlan(p *core.Plan) error {
	r := geo.Render(p.Instructions)
	data, err := marshalEnvelope(streaming.TypePlan, streaming.PlanPayload{
		Plan:       p,
		Path:       r.Points,
		PathWKT:    r.WKT,
		PathLength: r.Length,
		LandLine:   r.LandLine,
	})
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}
