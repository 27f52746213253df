// Package compiler turns operator intents into drone-native instructions, folding
// repeated taps in the same direction into the preceding instruction.
package compiler

import (
	"github.com/dronepath/autopilot/internal/orientation"
	"github.com/dronepath/autopilot/pkg/core"
)

// DefaultRotation is the rotation step used when an intent carries no override.
const DefaultRotation = 90

// centimetersPerMeter converts distance units to the drone's native move units.
const centimetersPerMeter = 100

// Mode tells the caller how to insert the compiled instruction.
type Mode int

const (
	// Append inserts the instruction before the trailing land sentinel.
	Append Mode = iota
	// Merge replaces the instruction before the trailing land sentinel.
	Merge
)

func (m Mode) String() string {
	if m == Merge {
		return "merge"
	}
	return "append"
}

// Params are the operator-configurable scalars applied to every intent.
type Params struct {
	DistanceUnit float64 // meters per tap
	Speed        int     // cm/s
}

// Compile compiles one intent against the current heading and the instruction that
// currently sits before the land sentinel. It has no side effects.
func Compile(in core.Intent, o core.Orientation, prior core.Instruction, p Params) (core.Instruction, Mode) {
	switch {
	case in.Token.Translational():
		return compileMove(in.Token, o, prior, p)
	case in.Token.Rotational():
		return compileRotate(in, prior)
	default:
		return core.Instruction{Kind: core.KindHold, Direction: core.Hold, Label: core.Hold.DisplayName()}, Append
	}
}

func compileMove(t core.Token, o core.Orientation, prior core.Instruction, p Params) (core.Instruction, Mode) {
	world := orientation.Resolve(t, o)
	displacement := world.Scale(p.DistanceUnit * centimetersPerMeter)
	draw := world.ToScene()

	if mergeableMove(prior, t, p.Speed) {
		merged := prior
		merged.Displacement = prior.Displacement.Add(displacement)
		merged.Draw = prior.Draw.Add(draw)
		merged.Distance = prior.Distance + p.DistanceUnit
		merged.Label = core.MoveLabel(t.DisplayName(), merged.Distance)
		return merged, Merge
	}

	return core.Instruction{
		Kind:         core.KindMove,
		Direction:    t,
		Displacement: displacement,
		Speed:        p.Speed,
		Distance:     p.DistanceUnit,
		Draw:         draw,
		Label:        core.MoveLabel(t.DisplayName(), p.DistanceUnit),
	}, Append
}

// mergeableMove compares on semantic direction and speed, never on displacement.
func mergeableMove(prior core.Instruction, t core.Token, speed int) bool {
	return prior.Kind == core.KindMove && prior.Direction == t && prior.Speed == speed
}

func compileRotate(in core.Intent, prior core.Instruction) (core.Instruction, Mode) {
	degrees := in.Degrees
	if degrees == 0 {
		degrees = DefaultRotation
	}

	if prior.Kind == core.KindRotate && prior.Direction == in.Token {
		merged := prior
		merged.Degrees = degrees + prior.Degrees
		merged.Label = core.RotateLabel(in.Token, merged.Degrees)
		return merged, Merge
	}

	return core.Instruction{
		Kind:      core.KindRotate,
		Direction: in.Token,
		Degrees:   degrees,
		Label:     core.RotateLabel(in.Token, degrees),
	}, Append
}
