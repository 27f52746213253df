package v1

import (
	"encoding/json"
	"time"

	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/pkg/core"
)

// FlightData contains all the data needed to build an export.
type FlightData struct {
	Flight    core.Flight
	Waypoints []core.Waypoint
	EndTime   time.Time

	// Home anchors the GeoJSON track; nil skips it.
	Home          *geo.LatLon
	MetersPerUnit float64
}

// Build creates an Export from the flight data.
func Build(data *FlightData) Export {
	f := data.Flight
	export := Export{
		Version:   Version,
		FlightID:  f.ID,
		PlanName:  f.PlanName,
		StartTime: f.StartTime,
		EndTime:   data.EndTime,
		Steps:     f.Steps,
		Home:      vec(f.Home),
		Waypoints: make([]Waypoint, 0, len(data.Waypoints)),
	}

	track := make([]core.Vec3, 0, len(data.Waypoints))
	for _, w := range data.Waypoints {
		export.Waypoints = append(export.Waypoints, Waypoint{
			Seq:      w.Seq,
			Step:     w.Step,
			Kind:     string(w.Kind),
			Phase:    string(w.Phase),
			Position: vec(w.Position),
			OffsetMs: w.Time.Sub(f.StartTime).Milliseconds(),
		})
		track = append(track, w.Position)
	}

	export.PathLength = geo.Length(track)
	export.PathWKT = geo.WKT(track)

	if data.Home != nil {
		unit := data.MetersPerUnit
		if unit <= 0 {
			unit = 1
		}
		if raw, err := geo.TrackGeoJSON(*data.Home, track, unit); err == nil {
			var obj map[string]any
			if json.Unmarshal(raw, &obj) == nil {
				export.Track = obj
			}
		}
	}
	return export
}

func vec(v core.Vec3) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
