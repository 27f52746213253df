package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/internal/handlers"
	"github.com/dronepath/autopilot/internal/transport"
	"github.com/dronepath/autopilot/pkg/core"
)

func TestNormalizeLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", false},
		{"   # just a comment", "", false},
		{"forward cw", ":INTENTS: forward cw", true},
		{":PLAY: demo # preview", ":PLAY: demo", true},
		{"  :STATUS:  ", ":STATUS:", true},
	}
	for _, tt := range tests {
		got, ok := normalizeLine(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, handlers.Status{
		Plan: "loop", Orientation: "east", Instructions: 3,
		Tip: core.Vec3{Y: 1, Z: 1}, Blocked: []core.Token{core.Down},
	})
	printResult(&buf, core.Plan{Name: "loop", Commands: []string{"takeoff", "land"}})
	printResult(&buf, transport.Report{Sent: 4, Held: 1})
	printResult(&buf, []string{"takeoff", "land"})

	out := buf.String()
	assert.Contains(t, out, `plan="loop" heading=east instructions=3 tip=(0.00, 1.00, 1.00)`)
	assert.Contains(t, out, "blocked=down")
	assert.Contains(t, out, `saved plan "loop" (2 commands)`)
	assert.Contains(t, out, "sent 4 commands, 1 holds")
	assert.Contains(t, out, "  takeoff\n  land\n")
}

func newTestApp(t *testing.T, opts runOptions) *app {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.LoadDefaults()

	dir := t.TempDir()
	viper.Set("logsDir", dir+"/logs")
	viper.Set("storage.memory.outputDir", dir+"/plans")
	viper.Set("storage.memory.compressOutput", false)
	for _, key := range []string{"takeoffDelay", "moveDelay", "rotateDelay", "holdDelay", "landDelay", "returnHomeAfter", "releaseAfter"} {
		viper.Set("playback."+key, "1ms")
	}
	viper.Set("api.serverUrl", "http://127.0.0.1:1")

	opts.Offline = true
	a, err := newApp(context.Background(), opts, time.Now())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestRunScript(t *testing.T) {
	a := newTestApp(t, runOptions{Follow: true})

	script := strings.Join([]string{
		"# square preview",
		"forward forward cw",
		":PLAY:",
		":EXPORT: square",
		":PLANS:",
		":COMMANDS:",
		"sideways",
		":SEND:",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, a.runScripts(context.Background(), nil, strings.NewReader(script), &out))

	got := out.String()
	assert.Contains(t, got, "heading=east instructions=4")
	assert.Contains(t, got, `playing "untitled"`)
	assert.Contains(t, got, "  cursor (")
	assert.Contains(t, got, `saved plan "square" (4 commands)`)
	assert.Contains(t, got, "  go 200 0 0 50\n")
	assert.Contains(t, got, "stdin:7:")
	assert.Contains(t, got, "queued")
	assert.False(t, a.session.Playing())
}

func TestRunScripts_MissingFile(t *testing.T) {
	a := newTestApp(t, runOptions{})
	err := a.runScripts(context.Background(), []string{t.TempDir() + "/nope.txt"}, nil, &bytes.Buffer{})
	assert.Error(t, err)
}
