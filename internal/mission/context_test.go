package mission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/playback"
	"github.com/dronepath/autopilot/pkg/core"
)

func TestContext_Plan(t *testing.T) {
	ctx := NewContext("")
	assert.Equal(t, "untitled", ctx.Plan())

	ctx.SetPlan("survey")
	ctx.SetPlan("")
	assert.Equal(t, "survey", ctx.Plan())
}

func TestContext_Run(t *testing.T) {
	mc := NewContext("demo")
	assert.Nil(t, mc.Run())
	assert.False(t, mc.CancelRun())

	cfg := playback.DefaultConfig(10)
	for k := range cfg.Delays {
		cfg.Delays[k] = time.Hour
	}
	sched := playback.NewScheduler()
	defer sched.Close()
	engine := playback.NewEngine(cfg, sched, playback.NewCursor(cfg.Home), nil)

	released := make(chan struct{})
	run := engine.Play(context.Background(), "demo", []core.Instruction{core.Takeoff(), core.Land()}, func() { close(released) })
	mc.SetRun(run)
	require.Same(t, run, mc.Run())

	assert.True(t, mc.CancelRun())
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("run not released after cancel")
	}
	assert.Nil(t, mc.Run())
}

func TestContext_LastSend(t *testing.T) {
	mc := NewContext("demo")
	_, ok := mc.LastSend()
	assert.False(t, ok)

	boom := errors.New("boom")
	mc.RecordSend(4, boom)
	res, ok := mc.LastSend()
	require.True(t, ok)
	assert.Equal(t, 4, res.Commands)
	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, res.Time.IsZero())
}
