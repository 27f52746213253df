// Package convert maps between pkg/core types and the GORM models.
package convert

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/dronepath/autopilot/internal/model"
	"github.com/dronepath/autopilot/pkg/core"
)

// CoreToPlan converts a core.Plan to its GORM row.
func CoreToPlan(p core.Plan) (model.Plan, error) {
	commands, err := json.Marshal(p.Commands)
	if err != nil {
		return model.Plan{}, fmt.Errorf("marshal commands: %w", err)
	}
	instructions, err := json.Marshal(p.Instructions)
	if err != nil {
		return model.Plan{}, fmt.Errorf("marshal instructions: %w", err)
	}
	return model.Plan{
		ID:           p.ID,
		CreatedAt:    p.CreatedAt,
		Name:         p.Name,
		DistanceUnit: p.DistanceUnit,
		Speed:        p.Speed,
		Commands:     datatypes.JSON(commands),
		Instructions: datatypes.JSON(instructions),
	}, nil
}

// PlanToCore converts a GORM row back to a core.Plan.
func PlanToCore(m model.Plan) (core.Plan, error) {
	p := core.Plan{
		ID:           m.ID,
		Name:         m.Name,
		CreatedAt:    m.CreatedAt,
		DistanceUnit: m.DistanceUnit,
		Speed:        m.Speed,
	}
	if len(m.Commands) > 0 {
		if err := json.Unmarshal(m.Commands, &p.Commands); err != nil {
			return core.Plan{}, fmt.Errorf("unmarshal commands of %q: %w", m.Name, err)
		}
	}
	if len(m.Instructions) > 0 {
		if err := json.Unmarshal(m.Instructions, &p.Instructions); err != nil {
			return core.Plan{}, fmt.Errorf("unmarshal instructions of %q: %w", m.Name, err)
		}
	}
	return p, nil
}

// CoreToFlight converts a core.Flight to its GORM row.
func CoreToFlight(f core.Flight) model.Flight {
	return model.Flight{
		ID:        f.ID,
		PlanName:  f.PlanName,
		StartTime: f.StartTime,
		Steps:     f.Steps,
		HomeX:     f.Home.X,
		HomeY:     f.Home.Y,
		HomeZ:     f.Home.Z,
	}
}

// FlightToCore converts a GORM flight row to core.Flight.
func FlightToCore(m model.Flight) core.Flight {
	return core.Flight{
		ID:        m.ID,
		PlanName:  m.PlanName,
		StartTime: m.StartTime,
		Steps:     m.Steps,
		Home:      core.Vec3{X: m.HomeX, Y: m.HomeY, Z: m.HomeZ},
	}
}

// CoreToWaypoint converts a core.Waypoint to its GORM row.
func CoreToWaypoint(w core.Waypoint) model.Waypoint {
	return model.Waypoint{
		FlightID: w.FlightID,
		Seq:      w.Seq,
		Step:     w.Step,
		Kind:     string(w.Kind),
		Phase:    string(w.Phase),
		X:        w.Position.X,
		Y:        w.Position.Y,
		Z:        w.Position.Z,
		Time:     w.Time,
	}
}

// WaypointToCore converts a GORM waypoint row to core.Waypoint.
func WaypointToCore(m model.Waypoint) core.Waypoint {
	return core.Waypoint{
		FlightID: m.FlightID,
		Seq:      m.Seq,
		Step:     m.Step,
		Kind:     core.Kind(m.Kind),
		Phase:    core.Phase(m.Phase),
		Position: core.Vec3{X: m.X, Y: m.Y, Z: m.Z},
		Time:     m.Time,
	}
}
