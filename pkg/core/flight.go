// pkg/core/flight.go
package core

import (
	"errors"
	"time"
)

// Plan is a named, importable/exportable flight plan.
// Commands holds the native command sequence; Instructions the compiled form.
type Plan struct {
	ID           uint          `json:"id,omitempty" yaml:"id,omitempty" msgpack:"id,omitempty"`
	Name         string        `json:"name" yaml:"name" msgpack:"name"`
	CreatedAt    time.Time     `json:"createdAt" yaml:"createdAt" msgpack:"createdAt"`
	DistanceUnit float64       `json:"distanceUnit" yaml:"distanceUnit" msgpack:"distanceUnit"`
	Speed        int           `json:"speed" yaml:"speed" msgpack:"speed"`
	Commands     []string      `json:"commands" yaml:"commands" msgpack:"commands"`
	Instructions []Instruction `json:"instructions,omitempty" yaml:"instructions,omitempty" msgpack:"instructions,omitempty"`
}

// Flight is one playback run of a plan.
type Flight struct {
	ID        uint      `json:"id"`
	PlanName  string    `json:"planName"`
	StartTime time.Time `json:"startTime"`
	Steps     int       `json:"steps"`
	Home      Vec3      `json:"home"`
}

// Phase tells a waypoint from the main loop apart from deferred transitions.
type Phase string

const (
	PhaseStep     Phase = "step"
	PhaseHome     Phase = "home"
	PhaseReleased Phase = "released"
)

// Waypoint is one cursor write during playback.
type Waypoint struct {
	FlightID uint      `json:"flightId"`
	Seq      int       `json:"seq"`
	Step     int       `json:"step"`
	Kind     Kind      `json:"kind"`
	Phase    Phase     `json:"phase"`
	Position Vec3      `json:"position"`
	Time     time.Time `json:"time"`
}

// UploadMetadata summarises an exported flight file for the web frontend.
type UploadMetadata struct {
	PlanName     string
	Instructions int
	PathLength   float64
	Tag          string
}

// ErrPlanNotFound is returned by plan stores for unknown names.
var ErrPlanNotFound = errors.New("plan not found")
