// Package v1 contains the v1 export format for recorded flights.
// Positions are scene coordinates: X west, Y up, Z north.
package v1

import "time"

// Version is written into every export.
const Version = "1"

// Export is the root structure of a flight export file.
type Export struct {
	Version    string     `json:"version" yaml:"version" msgpack:"version"`
	FlightID   uint       `json:"flightId" yaml:"flightId" msgpack:"flightId"`
	PlanName   string     `json:"planName" yaml:"planName" msgpack:"planName"`
	StartTime  time.Time  `json:"startTime" yaml:"startTime" msgpack:"startTime"`
	EndTime    time.Time  `json:"endTime" yaml:"endTime" msgpack:"endTime"`
	Steps      int        `json:"steps" yaml:"steps" msgpack:"steps"`
	Home       []float64  `json:"home" yaml:"home" msgpack:"home"`
	PathLength float64    `json:"pathLength" yaml:"pathLength" msgpack:"pathLength"`
	PathWKT    string     `json:"pathWkt,omitempty" yaml:"pathWkt,omitempty" msgpack:"pathWkt,omitempty"`
	Waypoints  []Waypoint `json:"waypoints" yaml:"waypoints" msgpack:"waypoints"`
	// Track is a GeoJSON LineString of the waypoints, present when a home
	// coordinate is configured.
	Track map[string]any `json:"track,omitempty" yaml:"track,omitempty" msgpack:"track,omitempty"`
}

// Waypoint is one cursor write, timed from the flight start.
type Waypoint struct {
	Seq      int       `json:"seq" yaml:"seq" msgpack:"seq"`
	Step     int       `json:"step" yaml:"step" msgpack:"step"`
	Kind     string    `json:"kind" yaml:"kind" msgpack:"kind"`
	Phase    string    `json:"phase" yaml:"phase" msgpack:"phase"`
	Position []float64 `json:"position" yaml:"position" msgpack:"position"`
	OffsetMs int64     `json:"offsetMs" yaml:"offsetMs" msgpack:"offsetMs"`
}
