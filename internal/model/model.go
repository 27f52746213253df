package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists the structs that map to tables.
var DatabaseModels = []interface{}{
	&Plan{},
	&Flight{},
	&Waypoint{},
}

// Plan is a saved instruction list. Commands holds the native strings,
// Instructions the structured list with labels and draw deltas.
type Plan struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Name         string         `json:"name" gorm:"size:128;uniqueIndex"`
	DistanceUnit float64        `json:"distanceUnit"`
	Speed        int            `json:"speed"`
	Commands     datatypes.JSON `json:"commands"`
	Instructions datatypes.JSON `json:"instructions"`
}

func (*Plan) TableName() string {
	return "plans"
}

// Flight is one playback run.
type Flight struct {
	ID        uint         `json:"id" gorm:"primarykey;autoIncrement;"`
	PlanName  string       `json:"planName" gorm:"size:128;index"`
	StartTime time.Time    `json:"startTime"`
	EndTime   sql.NullTime `json:"endTime"`
	Steps     int          `json:"steps"`
	HomeX     float64      `json:"homeX"`
	HomeY     float64      `json:"homeY"`
	HomeZ     float64      `json:"homeZ"`
	// PathWKT is the flown path as a 3D WKT LineString, filled on end.
	PathWKT   string     `json:"pathWkt"`
	Waypoints []Waypoint `json:"-" gorm:"foreignKey:FlightID"`
}

func (*Flight) TableName() string {
	return "flights"
}

// Waypoint is one cursor write of a flight.
type Waypoint struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	FlightID uint      `json:"flightId" gorm:"index:idx_waypoint_flight_seq,priority:1"`
	Seq      int       `json:"seq" gorm:"index:idx_waypoint_flight_seq,priority:2"`
	Step     int       `json:"step"`
	Kind     string    `json:"kind" gorm:"size:16"`
	Phase    string    `json:"phase" gorm:"size:16"`
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Z        float64   `json:"z"`
	Time     time.Time `json:"time"`
}

func (*Waypoint) TableName() string {
	return "waypoints"
}
