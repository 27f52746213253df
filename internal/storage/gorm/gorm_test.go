package gormstorage

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/command"
	"github.com/dronepath/autopilot/internal/database"
	"github.com/dronepath/autopilot/pkg/core"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func squarePlan(name string) *core.Plan {
	cmds := []string{"takeoff", "go 50 0 0 20", "cw 90", "land"}
	list := make([]core.Instruction, len(cmds))
	for i, c := range cmds {
		list[i] = decode(c)
	}
	return &core.Plan{Name: name, DistanceUnit: 0.5, Speed: 20, Commands: cmds, Instructions: list}
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestSaveAndLoadPlan(t *testing.T) {
	b := newTestBackend(t)

	p := squarePlan("square")
	require.NoError(t, b.SavePlan(p))
	assert.NotZero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	b.deps.PlanCache.Reset()
	got, err := b.LoadPlan("square")
	require.NoError(t, err)
	assert.Equal(t, p.Commands, got.Commands)
	assert.Equal(t, p.Instructions, got.Instructions)
	assert.Equal(t, 1, b.deps.PlanCache.Len())
}

func TestSavePlan_UpsertsByName(t *testing.T) {
	b := newTestBackend(t)

	first := squarePlan("route")
	require.NoError(t, b.SavePlan(first))

	second := squarePlan("route")
	second.Commands = []string{"takeoff", "land"}
	second.Instructions = []core.Instruction{core.Takeoff(), core.Land()}
	require.NoError(t, b.SavePlan(second))
	assert.Equal(t, first.ID, second.ID)

	b.deps.PlanCache.Reset()
	got, err := b.LoadPlan("route")
	require.NoError(t, err)
	assert.Equal(t, []string{"takeoff", "land"}, got.Commands)

	names, err := b.ListPlans()
	require.NoError(t, err)
	assert.Equal(t, []string{"route"}, names)
}

func TestLoadPlan_NotFound(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.LoadPlan("nope")
	assert.ErrorIs(t, err, core.ErrPlanNotFound)
}

func TestListPlans_Sorted(t *testing.T) {
	b := newTestBackend(t)
	for _, n := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, b.SavePlan(squarePlan(n)))
	}
	names, err := b.ListPlans()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, names)
}

func TestFlightRecording(t *testing.T) {
	b := newTestBackend(t)

	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := &core.Flight{ID: 99, PlanName: "square", StartTime: started, Steps: 4, Home: core.Vec3{Y: -5}}
	require.NoError(t, b.StartFlight(f))

	track := []core.Vec3{{Y: -4}, {Y: -4, Z: 2}, {X: -1, Y: -4, Z: 2}, {X: -1, Y: -5, Z: 2}}
	for i, pos := range track {
		require.NoError(t, b.RecordWaypoint(&core.Waypoint{
			FlightID: f.ID, Seq: i + 1, Step: i, Kind: core.KindMove, Phase: core.PhaseStep, Position: pos, Time: time.Now(),
		}))
	}
	assert.Equal(t, len(track), b.Pending())

	require.NoError(t, b.EndFlight())
	assert.Equal(t, 0, b.Pending())

	flights, err := b.Flights()
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "square", flights[0].PlanName)
	assert.True(t, started.Equal(flights[0].StartTime), "start time %v", flights[0].StartTime)

	wps, err := b.FlightWaypoints(flights[0].ID)
	require.NoError(t, err)
	require.Len(t, wps, len(track))
	for i, wp := range wps {
		assert.Equal(t, i+1, wp.Seq)
		assert.Equal(t, track[i], wp.Position)
		assert.Equal(t, flights[0].ID, wp.FlightID)
		assert.True(t, started.Add(time.Duration(i)*time.Second).Equal(wp.Time), "waypoint time %v", wp.Time)
	}

	path, err := b.FlightPath(flights[0].ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "LINESTRING Z"), path)
}

func TestWriteLoop_FlushesInBackground(t *testing.T) {
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: 10 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartFlight(&core.Flight{PlanName: "bg", StartTime: time.Now()}))
	require.NoError(t, b.RecordWaypoint(&core.Waypoint{Seq: 1, Kind: core.KindTakeoff, Phase: core.PhaseStep, Time: time.Now()}))

	assert.Eventually(t, func() bool { return b.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestEndFlight_WithoutStart(t *testing.T) {
	b := newTestBackend(t)
	assert.NoError(t, b.EndFlight())
}

// decode parses a command literal known to be valid.
func decode(s string) core.Instruction {
	ins, err := command.Decode(s)
	if err != nil {
		panic(err)
	}
	return ins
}
