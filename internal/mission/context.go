// Package mission tracks what the operator is currently working on: the plan name, the
// preview run in flight and the outcome of the last send to the drone.
package mission

import (
	"sync"
	"time"

	"github.com/dronepath/autopilot/internal/playback"
)

// SendResult records the last delivery attempt.
type SendResult struct {
	Time     time.Time
	Commands int
	Err      error
}

// Context holds the current plan and run state
type Context struct {
	mu       sync.RWMutex
	plan     string
	run      *playback.Run
	lastSend *SendResult
}

// NewContext creates a new Context for the given plan name
func NewContext(plan string) *Context {
	if plan == "" {
		plan = "untitled"
	}
	return &Context{plan: plan}
}

// Plan returns the current plan name
func (mc *Context) Plan() string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.plan
}

// SetPlan renames the current plan
func (mc *Context) SetPlan(name string) {
	if name == "" {
		return
	}
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.plan = name
}

// Run returns the active preview run, or nil once it has released
func (mc *Context) Run() *playback.Run {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.run == nil {
		return nil
	}
	select {
	case <-mc.run.Done():
		return nil
	default:
		return mc.run
	}
}

// SetRun stores the active run
func (mc *Context) SetRun(r *playback.Run) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.run = r
}

// CancelRun cancels the active run, if any, and reports whether there was one
func (mc *Context) CancelRun() bool {
	r := mc.Run()
	if r == nil {
		return false
	}
	r.Cancel()
	return true
}

// LastSend returns a copy of the last send result
func (mc *Context) LastSend() (SendResult, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.lastSend == nil {
		return SendResult{}, false
	}
	return *mc.lastSend, true
}

// RecordSend stores the outcome of a send
func (mc *Context) RecordSend(commands int, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.lastSend = &SendResult{Time: time.Now(), Commands: commands, Err: err}
}
