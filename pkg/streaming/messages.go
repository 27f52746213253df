// Package streaming defines the messages exchanged with an external flight visualizer.
package streaming

import (
	"encoding/json"

	"github.com/dronepath/autopilot/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartFlight = "start_flight"
	TypeEndFlight   = "end_flight"
	TypeWaypoint    = "waypoint"
	TypePlan        = "plan"
	TypeAck         = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartFlightPayload announces a playback run.
type StartFlightPayload struct {
	Flight *core.Flight `json:"flight"`
}

// EndFlightPayload closes a playback run.
type EndFlightPayload struct {
	FlightID  uint `json:"flightId"`
	Waypoints int  `json:"waypoints"`
}

// PlanPayload publishes the compiled list so the visualizer can draw the path.
// LandLine is empty while the path has not left the build start.
type PlanPayload struct {
	Plan       *core.Plan  `json:"plan"`
	Path       []core.Vec3 `json:"path"`
	PathWKT    string      `json:"pathWkt,omitempty"`
	PathLength float64     `json:"pathLength"`
	LandLine   []core.Vec3 `json:"landLine,omitempty"`
}
