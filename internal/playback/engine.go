// Package playback replays an instruction list as a timed sequence of cursor writes
// and provides the per-frame homing used to animate toward the cursor.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dronepath/autopilot/internal/config"
	"github.com/dronepath/autopilot/pkg/core"
)

// Config holds the playback timing table and the scene anchors.
type Config struct {
	Delays          map[core.Kind]time.Duration
	ReturnHomeAfter time.Duration
	ReleaseAfter    time.Duration
	Home            core.Vec3
	TakeoffHeight   float64
	GroundLevel     float64
	DistanceUnit    float64
}

// HomeFor is the resting spot below the build start, so that takeoff lands the cursor
// on the first point of the drawn path.
func HomeFor(takeoffHeight float64) core.Vec3 {
	return core.BuildStart.Sub(core.Vec3{Y: takeoffHeight})
}

// DefaultConfig returns the stock timings for a scene built from voxels of the given size.
// Landing rests the cursor on the floor voxel, half a voxel below zero.
func DefaultConfig(voxelSize float64) Config {
	ground := voxelSize * -0.5
	return Config{
		Delays: map[core.Kind]time.Duration{
			core.KindTakeoff: 5 * time.Second,
			core.KindMove:    3 * time.Second,
			core.KindRotate:  2 * time.Second,
			core.KindHold:    3 * time.Second,
			core.KindLand:    3 * time.Second,
		},
		ReturnHomeAfter: 10 * time.Second,
		ReleaseAfter:    4500 * time.Millisecond,
		Home:            HomeFor(1),
		TakeoffHeight:   1,
		GroundLevel:     ground,
		DistanceUnit:    1,
	}
}

// ConfigFrom builds the playback config from the loaded timings. Zero durations keep
// the stock values.
func ConfigFrom(pc config.PlaybackConfig, fc config.FlightConfig) Config {
	cfg := DefaultConfig(fc.VoxelSize)
	set := func(k core.Kind, d time.Duration) {
		if d > 0 {
			cfg.Delays[k] = d
		}
	}
	set(core.KindTakeoff, pc.TakeoffDelay)
	set(core.KindMove, pc.MoveDelay)
	set(core.KindRotate, pc.RotateDelay)
	set(core.KindHold, pc.HoldDelay)
	set(core.KindLand, pc.LandDelay)
	if pc.ReturnHomeAfter > 0 {
		cfg.ReturnHomeAfter = pc.ReturnHomeAfter
	}
	if pc.ReleaseAfter > 0 {
		cfg.ReleaseAfter = pc.ReleaseAfter
	}
	if pc.TakeoffHeight > 0 {
		cfg.TakeoffHeight = pc.TakeoffHeight
		cfg.Home = HomeFor(pc.TakeoffHeight)
	}
	if fc.DistanceUnit > 0 {
		cfg.DistanceUnit = fc.DistanceUnit
	}
	return cfg
}

// Delay looks up the wait that follows an instruction of kind k.
func (c Config) Delay(k core.Kind) time.Duration {
	return c.Delays[k]
}

// Sink receives the waypoints of every run. storage.Backend satisfies it.
type Sink interface {
	StartFlight(f *core.Flight) error
	RecordWaypoint(w *core.Waypoint) error
	EndFlight() error
}

// Engine turns an instruction list into scheduled cursor writes.
// It does not guard against overlapping runs; callers hold the session latch.
type Engine struct {
	cfg    Config
	sched  *Scheduler
	cursor *Cursor
	sinks  []Sink
	log    *slog.Logger
	lastID atomic.Uint64
}

// NewEngine wires an engine to its executor, cursor and sinks.
func NewEngine(cfg Config, sched *Scheduler, cursor *Cursor, log *slog.Logger, sinks ...Sink) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DistanceUnit <= 0 {
		cfg.DistanceUnit = 1
	}
	return &Engine{
		cfg:    cfg,
		sched:  sched,
		cursor: cursor,
		sinks:  sinks,
		log:    log.With("component", "playback"),
	}
}

// Cursor returns the cursor the engine writes to.
func (e *Engine) Cursor() *Cursor {
	return e.cursor
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run is one playback in progress.
type Run struct {
	engine    *Engine
	flight    core.Flight
	list      []core.Instruction
	onRelease func()

	mu        sync.Mutex
	pending   *Task
	seq       int
	cancelled bool

	finishOnce sync.Once
	done       chan struct{}
}

// Flight describes the run.
func (r *Run) Flight() core.Flight {
	return r.flight
}

// Done is closed once the latch has been released.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run releases or ctx ends.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel drops whatever is still scheduled and releases immediately.
func (r *Run) Cancel() {
	select {
	case <-r.done:
		return
	default:
	}

	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.cancelled = true
	if r.pending != nil {
		r.pending.Cancel()
	}
	r.mu.Unlock()

	r.engine.log.Info("Playback cancelled", "flight", r.flight.ID)
	r.finish()
}

// Play starts replaying list and returns at once. onRelease runs when the deferred
// post-land transitions complete, or when the run is cancelled through ctx or Cancel.
func (e *Engine) Play(ctx context.Context, name string, list []core.Instruction, onRelease func()) *Run {
	r := &Run{
		engine: e,
		flight: core.Flight{
			ID:        uint(e.lastID.Add(1)),
			PlanName:  name,
			StartTime: time.Now(),
			Steps:     len(list),
			Home:      e.cfg.Home,
		},
		list:      list,
		onRelease: onRelease,
		done:      make(chan struct{}),
	}

	for _, s := range e.sinks {
		if err := s.StartFlight(&r.flight); err != nil {
			e.log.Warn("Sink rejected flight start", "error", err)
		}
	}
	e.log.Info("Playback started", "flight", r.flight.ID, "plan", name, "steps", len(list))

	r.mu.Lock()
	r.schedule(0, func() { r.step(0) })
	r.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			r.Cancel()
		case <-r.done:
		}
	}()
	return r
}

// schedule is called with r.mu held.
func (r *Run) schedule(d time.Duration, fn func()) {
	r.pending = r.engine.sched.After(d, fn)
}

func (r *Run) step(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}
	if i >= len(r.list) {
		r.schedule(0, r.release)
		return
	}

	e := r.engine
	ins := r.list[i]
	pos := e.cursor.Position()

	switch ins.Kind {
	case core.KindTakeoff:
		pos = e.cfg.Home.Add(core.Vec3{Y: e.cfg.TakeoffHeight})
	case core.KindMove:
		k := 100 * e.cfg.DistanceUnit
		d := ins.Displacement
		pos = pos.Add(core.Vec3{X: d.X / k, Y: d.Y / k, Z: d.Z / k}.ToScene())
	case core.KindLand:
		pos.Y = e.cfg.GroundLevel
	}
	e.cursor.Set(pos)
	r.record(i, ins.Kind, core.PhaseStep, pos)

	if ins.Kind == core.KindLand {
		r.schedule(e.cfg.ReturnHomeAfter, func() { r.returnHome(i) })
		return
	}
	r.schedule(e.cfg.Delay(ins.Kind), func() { r.step(i + 1) })
}

func (r *Run) returnHome(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return
	}

	e := r.engine
	e.cursor.Set(e.cfg.Home)
	r.record(i, core.KindLand, core.PhaseHome, e.cfg.Home)
	r.schedule(e.cfg.ReleaseAfter, r.release)
}

func (r *Run) release() {
	r.mu.Lock()
	if r.cancelled {
		r.mu.Unlock()
		return
	}
	r.record(len(r.list)-1, core.KindLand, core.PhaseReleased, r.engine.cursor.Position())
	r.mu.Unlock()

	r.engine.log.Info("Playback released", "flight", r.flight.ID, "waypoints", r.seq)
	r.finish()
}

func (r *Run) finish() {
	r.finishOnce.Do(func() {
		for _, s := range r.engine.sinks {
			if err := s.EndFlight(); err != nil {
				r.engine.log.Warn("Sink failed to end flight", "error", err)
			}
		}
		if r.onRelease != nil {
			r.onRelease()
		}
		close(r.done)
	})
}

// record is called with r.mu held.
func (r *Run) record(step int, kind core.Kind, phase core.Phase, pos core.Vec3) {
	r.seq++
	wp := &core.Waypoint{
		FlightID: r.flight.ID,
		Seq:      r.seq,
		Step:     step,
		Kind:     kind,
		Phase:    phase,
		Position: pos,
		Time:     time.Now(),
	}
	for _, s := range r.engine.sinks {
		if err := s.RecordWaypoint(wp); err != nil {
			r.engine.log.Warn("Sink failed to record waypoint", "seq", wp.Seq, "error", err)
		}
	}
	r.engine.log.Debug("Waypoint", "flight", r.flight.ID, "step", step, "kind", kind, "phase", phase, "position", pos)
}
