// Package flight holds the instruction list and the flight session aggregate that
// the UI, the playback engine and the transport all work against.
package flight

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/brunoga/deep"

	"github.com/dronepath/autopilot/internal/command"
	"github.com/dronepath/autopilot/internal/compiler"
	"github.com/dronepath/autopilot/internal/orientation"
	"github.com/dronepath/autopilot/pkg/core"
)

var (
	// ErrPlaybackInProgress rejects edits and a second playback while one is running.
	ErrPlaybackInProgress = errors.New("playback in progress")
	// ErrOutOfBounds rejects a move that would leave the configured scale.
	ErrOutOfBounds = errors.New("move exceeds spatial limits")
)

// BuildStart is where the drawn path begins, in scene units.
var BuildStart = core.BuildStart

// Config holds the operator-configurable scalars of a session.
type Config struct {
	DistanceUnit float64 // meters per tap
	Speed        int     // cm/s
	Scale        float64 // edge length of the build volume; 0 disables limits
}

// Limits is the axis-aligned build volume in scene units.
type Limits struct {
	Min, Max core.Vec3
}

// LimitsForScale reproduces the builder volume: x and z span [-scale/2, scale/2],
// y spans [1, scale].
func LimitsForScale(scale float64) Limits {
	return Limits{
		Min: core.Vec3{X: -scale / 2, Y: 1, Z: -scale / 2},
		Max: core.Vec3{X: scale / 2, Y: scale, Z: scale / 2},
	}
}

// Contains reports whether p lies inside the volume, borders included.
func (l Limits) Contains(p core.Vec3) bool {
	const eps = 1e-9
	return p.X >= l.Min.X-eps && p.X <= l.Max.X+eps &&
		p.Y >= l.Min.Y-eps && p.Y <= l.Max.Y+eps &&
		p.Z >= l.Min.Z-eps && p.Z <= l.Max.Z+eps
}

// State is a detached snapshot of a session.
type State struct {
	Entries     []Entry
	Orientation core.Orientation
	Playing     bool
	Tip         core.Vec3 // end of the drawn path, scene units
}

// Instructions returns the instruction list of the snapshot.
func (s State) Instructions() []core.Instruction {
	out := make([]core.Instruction, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Instruction
	}
	return out
}

// Session is the flight session aggregate: instruction list, heading and the
// playback latch.
type Session struct {
	mu          sync.Mutex
	cfg         Config
	limits      *Limits
	list        *List
	orientation core.Orientation
	playing     bool
	log         *slog.Logger
}

// NewSession creates a session with a two-sentinel list facing north.
func NewSession(cfg Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		cfg:  cfg,
		list: NewList(),
		log:  log.With("component", "session"),
	}
	if cfg.Scale > 0 {
		l := LimitsForScale(cfg.Scale)
		s.limits = &l
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Apply compiles one intent and folds or appends it into the list.
func (s *Session) Apply(in core.Intent) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return State{}, ErrPlaybackInProgress
	}
	if in.Token.Translational() && s.limits != nil {
		next := s.tipLocked().Add(orientation.Resolve(in.Token, s.orientation).ToScene())
		if !s.limits.Contains(next) {
			return State{}, fmt.Errorf("%w: %s from %+v", ErrOutOfBounds, in.Token, s.tipLocked())
		}
	}

	last := s.list.Last()
	ins, mode := compiler.Compile(in, s.orientation, last.Instruction, compiler.Params{
		DistanceUnit: s.cfg.DistanceUnit,
		Speed:        s.cfg.Speed,
	})

	before := s.orientation
	switch mode {
	case compiler.Merge:
		before = last.Before
		s.list.MergeReplaceLast(ins)
	default:
		s.list.Append(ins, s.orientation)
	}

	// a folded rotation turns from the entry's pre-state by its summed degrees
	if ins.Kind == core.KindRotate {
		s.orientation = orientation.Rotate(before, in.Token, ins.Degrees)
	}

	s.log.Debug("Applied intent", "token", in.Token, "mode", mode, "label", ins.Label, "orientation", s.orientation)
	return s.stateLocked(), nil
}

// Undo removes the last logical instruction. Removing a rotation restores the heading
// that was in force before the rotation entry was created.
func (s *Session) Undo() (State, core.Instruction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return State{}, core.Instruction{}, ErrPlaybackInProgress
	}
	removed, err := s.list.UndoLast()
	if err != nil {
		return s.stateLocked(), core.Instruction{}, err
	}
	if removed.Instruction.Kind == core.KindRotate {
		s.orientation = removed.Before
	}

	s.log.Debug("Undid instruction", "label", removed.Instruction.Label, "orientation", s.orientation)
	return s.stateLocked(), removed.Instruction, nil
}

// Clear resets the list to its sentinels and the heading to north.
func (s *Session) Clear() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return State{}, ErrPlaybackInProgress
	}
	s.list.Clear()
	s.orientation = core.North
	return s.stateLocked(), nil
}

// Import replaces the list wholesale with an externally supplied command sequence.
// The preamble and any sentinels in the input are dropped and the list reframed.
// Nothing changes if any command fails to decode.
func (s *Session) Import(commands []string) (State, error) {
	decoded := make([]core.Instruction, 0, len(commands))
	for i, c := range commands {
		if c == command.Preamble {
			continue
		}
		ins, err := command.Decode(c)
		if err != nil {
			return State{}, fmt.Errorf("import command %d: %w", i, err)
		}
		if ins.Sentinel() {
			continue
		}
		decoded = append(decoded, ins)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return State{}, ErrPlaybackInProgress
	}

	list := NewList()
	o := core.North
	for _, ins := range decoded {
		ins = s.describe(ins, o)
		list.Append(ins, o)
		if ins.Kind == core.KindRotate {
			o = orientation.Rotate(o, ins.Direction, ins.Degrees)
		}
	}
	s.list = list
	s.orientation = o

	s.log.Info("Imported flight plan", "commands", len(commands), "instructions", list.Len())
	return s.stateLocked(), nil
}

// describe fills in the label, direction and draw delta a decoded instruction lacks.
func (s *Session) describe(ins core.Instruction, o core.Orientation) core.Instruction {
	switch ins.Kind {
	case core.KindRotate:
		ins.Label = core.RotateLabel(ins.Direction, ins.Degrees)
	case core.KindMove:
		meters := ins.Displacement.Length() / 100
		ins.Distance = math.Round(meters*1000) / 1000
		name := "Go"
		if t, ok := orientation.Match(ins.Displacement, o); ok {
			ins.Direction = t
			name = t.DisplayName()
		}
		ins.Label = core.MoveLabel(name, ins.Distance)
		unit := s.cfg.DistanceUnit
		if unit <= 0 {
			unit = 1
		}
		k := 100 * unit
		d := ins.Displacement
		ins.Draw = core.Vec3{X: d.X / k, Y: d.Y / k, Z: d.Z / k}.ToScene()
	}
	return ins
}

// Commands returns the full native command sequence for the transport layer.
func (s *Session) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return command.EncodeAll(s.list.Items())
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Blocked lists the translational tokens that would leave the build volume.
// The UI disables the matching controls.
func (s *Session) Blocked() []core.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limits == nil {
		return nil
	}
	var blocked []core.Token
	tip := s.tipLocked()
	for _, t := range []core.Token{core.Forward, core.Back, core.Left, core.Right, core.Up, core.Down} {
		if !s.limits.Contains(tip.Add(orientation.Resolve(t, s.orientation).ToScene())) {
			blocked = append(blocked, t)
		}
	}
	return blocked
}

// BeginPlayback sets the playback latch and returns the list to replay.
func (s *Session) BeginPlayback() ([]core.Instruction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return nil, ErrPlaybackInProgress
	}
	s.playing = true
	return s.list.Items(), nil
}

// EndPlayback releases the playback latch.
func (s *Session) EndPlayback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// Playing reports whether the playback latch is set.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Session) tipLocked() core.Vec3 {
	tip := BuildStart
	for _, e := range s.list.entries {
		tip = tip.Add(e.Instruction.Draw)
	}
	return tip
}

func (s *Session) stateLocked() State {
	return State{
		Entries:     deep.MustCopy(s.list.entries),
		Orientation: s.orientation,
		Playing:     s.playing,
		Tip:         s.tipLocked(),
	}
}

// LogAttrs reports live session attributes for log records.
func (s *Session) LogAttrs() []slog.Attr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []slog.Attr{
		slog.String("orientation", s.orientation.String()),
		slog.Int("instructions", s.list.Len()),
		slog.Bool("playing", s.playing),
	}
}
