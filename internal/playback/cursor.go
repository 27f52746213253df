package playback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dronepath/autopilot/internal/channel"
	"github.com/dronepath/autopilot/pkg/core"
)

// Observer receives every position written to a Cursor.
type Observer func(core.Vec3)

// Cursor is the single source of truth for the previewed drone position, in scene units.
type Cursor struct {
	mu        sync.RWMutex
	pos       core.Vec3
	observers []Observer
}

// NewCursor returns a cursor parked at start.
func NewCursor(start core.Vec3) *Cursor {
	return &Cursor{pos: start}
}

// Position returns the current position.
func (c *Cursor) Position() core.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos
}

// Set writes a new position and notifies observers.
func (c *Cursor) Set(p core.Vec3) {
	c.mu.Lock()
	c.pos = p
	obs := c.observers
	c.mu.Unlock()

	for _, o := range obs {
		o(p)
	}
}

// Subscribe registers an observer for subsequent writes.
func (c *Cursor) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers[:len(c.observers):len(c.observers)], o)
}

// Stream is a cursor subscription delivered over a channel.
type Stream struct {
	channel.Channel[core.Vec3]
	dropped atomic.Int64
}

// Dropped counts positions discarded because the consumer fell behind.
func (s *Stream) Dropped() int64 {
	return s.dropped.Load()
}

// Stream subscribes a channel of the given size to the cursor. Writes never block on a
// slow consumer; they are dropped instead. The channel closes when ctx ends.
func (c *Cursor) Stream(ctx context.Context, size int) *Stream {
	s := &Stream{Channel: channel.New[core.Vec3](size)}
	c.Subscribe(func(p core.Vec3) {
		if ctx.Err() != nil {
			return
		}
		if !s.TrySend(p) {
			s.dropped.Add(1)
		}
	})
	context.AfterFunc(ctx, s.Close)
	return s
}
