package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/pkg/core"
)

func sampleFlight() *FlightData {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pos := []core.Vec3{{Y: -4}, {Y: -4, Z: 2}, {Y: -5, Z: 2}}
	wps := make([]core.Waypoint, len(pos))
	for i, p := range pos {
		wps[i] = core.Waypoint{
			FlightID: 7, Seq: i + 1, Step: i, Kind: core.KindMove, Phase: core.PhaseStep,
			Position: p, Time: start.Add(time.Duration(i) * 3 * time.Second),
		}
	}
	return &FlightData{
		Flight:    core.Flight{ID: 7, PlanName: "hop", StartTime: start, Steps: 3, Home: core.Vec3{Y: -5}},
		Waypoints: wps,
		EndTime:   start.Add(20 * time.Second),
	}
}

func TestBuild(t *testing.T) {
	export := Build(sampleFlight())

	assert.Equal(t, Version, export.Version)
	assert.Equal(t, uint(7), export.FlightID)
	assert.Equal(t, "hop", export.PlanName)
	assert.Equal(t, []float64{0, -5, 0}, export.Home)
	require.Len(t, export.Waypoints, 3)
	assert.Equal(t, int64(6000), export.Waypoints[2].OffsetMs)
	assert.Equal(t, []float64{0, -4, 2}, export.Waypoints[1].Position)
	assert.InDelta(t, 3.0, export.PathLength, 1e-9)
	assert.Contains(t, export.PathWKT, "LINESTRING Z")
	assert.Nil(t, export.Track)
}

func TestBuild_WithHome(t *testing.T) {
	data := sampleFlight()
	data.Home = &geo.LatLon{Lat: 52.5, Lon: 13.4}
	data.MetersPerUnit = 0.5

	export := Build(data)
	require.NotNil(t, export.Track)
	assert.Equal(t, "LineString", export.Track["type"])
}

func TestBuild_NoWaypoints(t *testing.T) {
	export := Build(&FlightData{Flight: core.Flight{ID: 1}})
	assert.NotNil(t, export.Waypoints)
	assert.Empty(t, export.PathWKT)
	assert.Zero(t, export.PathLength)
}
