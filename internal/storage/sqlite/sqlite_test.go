package sqlitestorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/cache"
	"github.com/dronepath/autopilot/internal/database"
	"github.com/dronepath/autopilot/internal/model"
	"github.com/dronepath/autopilot/pkg/core"
)

func TestEndFlight_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.db")
	b, err := New(Config{DumpPath: path}, cache.NewPlanCache(4), nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartFlight(&core.Flight{PlanName: "hop", StartTime: time.Now()}))
	require.NoError(t, b.RecordWaypoint(&core.Waypoint{Seq: 1, Kind: core.KindTakeoff, Phase: core.PhaseStep, Time: time.Now()}))
	require.NoError(t, b.EndFlight())

	disk, err := database.OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	var count int64
	require.NoError(t, disk.Model(&model.Waypoint{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 20 * time.Millisecond}, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.SavePlan(&core.Plan{Name: "p", Commands: []string{"takeoff", "land"}}))
	assert.Eventually(t, func() bool {
		disk, err := database.OpenSQLite(path, zerolog.Nop())
		if err != nil {
			return false
		}
		var n int64
		return disk.Model(&model.Plan{}).Count(&n).Error == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestClose_WithoutDumpPath(t *testing.T) {
	b, err := New(Config{}, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestFlights_ReadBack(t *testing.T) {
	b, err := New(Config{}, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, b.StartFlight(&core.Flight{PlanName: "hop", StartTime: started, Steps: 2}))
	require.NoError(t, b.RecordWaypoint(&core.Waypoint{Seq: 1, Kind: core.KindTakeoff, Phase: core.PhaseStep, Position: core.Vec3{Y: 1}, Time: started}))
	require.NoError(t, b.EndFlight())

	flights, err := b.Flights()
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.True(t, started.Equal(flights[0].StartTime))

	wps, err := b.FlightWaypoints(flights[0].ID)
	require.NoError(t, err)
	require.Len(t, wps, 1)
	assert.True(t, started.Equal(wps[0].Time))
	assert.Equal(t, core.Vec3{Y: 1}, wps[0].Position)
}
