package playback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/pkg/core"
)

func TestCursor_SetNotifiesObservers(t *testing.T) {
	c := NewCursor(core.Vec3{})
	var seen []core.Vec3
	c.Subscribe(func(p core.Vec3) { seen = append(seen, p) })

	c.Set(core.Vec3{X: 1})
	c.Set(core.Vec3{X: 2})

	assert.Equal(t, core.Vec3{X: 2}, c.Position())
	assert.Equal(t, []core.Vec3{{X: 1}, {X: 2}}, seen)
}

func TestCursor_Stream(t *testing.T) {
	c := NewCursor(core.Vec3{})
	ctx, cancel := context.WithCancel(context.Background())
	s := c.Stream(ctx, 2)

	c.Set(core.Vec3{Y: 1})
	c.Set(core.Vec3{Y: 2})
	c.Set(core.Vec3{Y: 3})

	require.Equal(t, 2, s.Len())
	assert.Equal(t, int64(1), s.Dropped())
	assert.Equal(t, core.Vec3{Y: 1}, <-s.Receive())

	cancel()
	var rest []core.Vec3
	for p := range s.Receive() {
		rest = append(rest, p)
	}
	assert.Equal(t, []core.Vec3{{Y: 2}}, rest)

	c.Set(core.Vec3{Y: 4})
	assert.Equal(t, int64(1), s.Dropped(), "writes after cancel are ignored")
}
