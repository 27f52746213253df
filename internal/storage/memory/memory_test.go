package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/pkg/core"
)

func newBackend(t *testing.T, cfg config.MemoryConfig, opts ...Option) *Backend {
	t.Helper()
	b := New(cfg, opts...)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func recordFlight(t *testing.T, b *Backend, id uint) {
	t.Helper()
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, b.StartFlight(&core.Flight{ID: id, PlanName: "morning hop", StartTime: start, Steps: 3, Home: core.Vec3{Y: -5}}))
	for i, pos := range []core.Vec3{{Y: -4}, {Y: -4, Z: 1}, {Y: -5, Z: 1}} {
		require.NoError(t, b.RecordWaypoint(&core.Waypoint{
			FlightID: id, Seq: i + 1, Step: i, Kind: core.KindMove, Phase: core.PhaseStep,
			Position: pos, Time: start.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, b.EndFlight())
}

func TestInit_UnknownFormat(t *testing.T) {
	b := New(config.MemoryConfig{Format: "xml"})
	assert.Error(t, b.Init())
}

func TestFlights_InMemoryOnly(t *testing.T) {
	b := newBackend(t, config.MemoryConfig{})

	recordFlight(t, b, 1)
	recordFlight(t, b, 2)

	flights := b.Flights()
	require.Len(t, flights, 2)
	assert.Len(t, flights[0].Waypoints, 3)
	assert.False(t, flights[1].EndTime.IsZero())
	assert.Empty(t, b.GetExportedFilePath())
}

func TestRecordWaypoint_WithoutFlight(t *testing.T) {
	b := newBackend(t, config.MemoryConfig{})
	assert.NoError(t, b.RecordWaypoint(&core.Waypoint{Seq: 1}))
	assert.NoError(t, b.EndFlight())
	assert.Empty(t, b.Flights())
}

func TestEndFlight_Exports(t *testing.T) {
	dir := t.TempDir()
	b := newBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: true})

	recordFlight(t, b, 4)

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "flights", "morning_hop_4_20260601_100000.json.gz"), path)

	export, err := ReadFlightExport(path)
	require.NoError(t, err)
	assert.Equal(t, uint(4), export.FlightID)
	assert.Len(t, export.Waypoints, 3)
	assert.InDelta(t, 2.0, export.PathLength, 1e-9)

	meta := b.GetExportMetadata()
	assert.Equal(t, "morning hop", meta.PlanName)
	assert.Equal(t, 3, meta.Instructions)
	assert.Equal(t, "flight", meta.Tag)
}

func TestEndFlight_ExportsTrackWithGeo(t *testing.T) {
	dir := t.TempDir()
	b := newBackend(t, config.MemoryConfig{OutputDir: dir, Format: "msgpack"},
		WithGeo(geo.LatLon{Lat: 45, Lon: 7}, 0.5))

	recordFlight(t, b, 5)

	export, err := ReadFlightExport(b.GetExportedFilePath())
	require.NoError(t, err)
	require.NotNil(t, export.Track)
	assert.Equal(t, "LineString", export.Track["type"])
}

func TestPlans_PersistAcrossBackends(t *testing.T) {
	dir := t.TempDir()
	first := newBackend(t, config.MemoryConfig{OutputDir: dir, Format: "yaml"})

	p := testPlan()
	require.NoError(t, first.SavePlan(&p))
	assert.FileExists(t, filepath.Join(dir, "plans", "square.yaml"))

	second := newBackend(t, config.MemoryConfig{OutputDir: dir})
	got, err := second.LoadPlan("square")
	require.NoError(t, err)
	assert.Equal(t, p.Commands, got.Commands)
	assert.Equal(t, p.Instructions, got.Instructions)

	names, err := second.ListPlans()
	require.NoError(t, err)
	assert.Equal(t, []string{"square"}, names)
}

func TestLoadPlan_NotFound(t *testing.T) {
	b := newBackend(t, config.MemoryConfig{OutputDir: t.TempDir()})
	_, err := b.LoadPlan("ghost")
	assert.ErrorIs(t, err, core.ErrPlanNotFound)
}

func TestSavePlan_CopiesInput(t *testing.T) {
	b := newBackend(t, config.MemoryConfig{})
	p := testPlan()
	require.NoError(t, b.SavePlan(&p))

	p.Commands[0] = "land"
	got, err := b.LoadPlan("square")
	require.NoError(t, err)
	assert.Equal(t, "takeoff", got.Commands[0])
}

func TestSavePlan_NeedsName(t *testing.T) {
	b := newBackend(t, config.MemoryConfig{})
	assert.Error(t, b.SavePlan(&core.Plan{}))
}

func TestListPlans_MergesMemoryAndDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plans"), 0o755))
	require.NoError(t, WritePlanFile(filepath.Join(dir, "plans", "zulu.json"), testPlan()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans", "README.txt"), []byte("x"), 0o644))

	b := newBackend(t, config.MemoryConfig{OutputDir: dir})
	p := testPlan()
	p.Name = "alpha"
	require.NoError(t, b.SavePlan(&p))

	names, err := b.ListPlans()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zulu"}, names)
}

func TestReadPlanFile_NameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.msgpack.zst")
	p := testPlan()
	p.Name = ""
	require.NoError(t, WritePlanFile(path, p))

	got, err := ReadPlanFile(path)
	require.NoError(t, err)
	assert.Equal(t, "loop", got.Name)
	assert.Equal(t, p.Commands, got.Commands)
}
