package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/command"
	"github.com/dronepath/autopilot/pkg/core"
)

func TestPlanRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := core.Plan{
		Name:         "square",
		CreatedAt:    created,
		DistanceUnit: 0.5,
		Speed:        20,
		Commands:     []string{"takeoff", "go 50 0 0 20", "cw 90", "land"},
		Instructions: []core.Instruction{core.Takeoff(), decode("cw 90"), core.Land()},
	}

	row, err := CoreToPlan(in)
	require.NoError(t, err)
	assert.JSONEq(t, `["takeoff","go 50 0 0 20","cw 90","land"]`, string(row.Commands))

	out, err := PlanToCore(row)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPlanToCore_BadJSON(t *testing.T) {
	row, err := CoreToPlan(core.Plan{Name: "x"})
	require.NoError(t, err)
	row.Commands = []byte("{")

	_, err = PlanToCore(row)
	assert.ErrorContains(t, err, `"x"`)
}

func TestWaypointAndFlight(t *testing.T) {
	now := time.Now().UTC()
	wp := core.Waypoint{FlightID: 3, Seq: 2, Step: 1, Kind: core.KindMove, Phase: core.PhaseStep, Position: core.Vec3{X: 1, Y: -4, Z: 2}, Time: now}
	assert.Equal(t, wp, WaypointToCore(CoreToWaypoint(wp)))

	f := core.Flight{ID: 3, PlanName: "p", StartTime: now, Steps: 4, Home: core.Vec3{Y: -5}}
	assert.Equal(t, f, FlightToCore(CoreToFlight(f)))
}

// decode parses a command literal known to be valid.
func decode(s string) core.Instruction {
	ins, err := command.Decode(s)
	if err != nil {
		panic(err)
	}
	return ins
}
