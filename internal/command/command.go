// Package command encodes compiled instructions into the drone SDK text protocol and
// decodes them back. Encoding only happens at the transport and file boundaries.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dronepath/autopilot/pkg/core"
)

// SDK verbs.
const (
	Preamble = "command"
	Takeoff  = "takeoff"
	Land     = "land"
	Go       = "go"
	Hold     = "hold"
)

// ErrMalformed is returned for command strings no encoder in this package produces.
var ErrMalformed = errors.New("malformed command")

// Encode renders one instruction as an SDK command string.
func Encode(ins core.Instruction) string {
	switch ins.Kind {
	case core.KindTakeoff:
		return Takeoff
	case core.KindLand:
		return Land
	case core.KindHold:
		return Hold
	case core.KindRotate:
		return fmt.Sprintf("%s %d", ins.Direction, ins.Degrees)
	case core.KindMove:
		d := ins.Displacement
		return strings.Join([]string{
			Go,
			formatCoord(d.X),
			formatCoord(d.Y),
			formatCoord(d.Z),
			strconv.Itoa(ins.Speed),
		}, " ")
	}
	panic(fmt.Sprintf("command: cannot encode instruction kind %q", ins.Kind))
}

// EncodeAll renders a whole instruction list in order.
func EncodeAll(list []core.Instruction) []string {
	out := make([]string, 0, len(list))
	for _, ins := range list {
		out = append(out, Encode(ins))
	}
	return out
}

func formatCoord(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Decode parses one SDK command string into the structured fields it carries.
// Labels and draw deltas are left to the caller, which knows the heading and scale.
func Decode(s string) (core.Instruction, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return core.Instruction{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	switch verb := fields[0]; verb {
	case Takeoff, Land, Hold:
		if len(fields) != 1 {
			return core.Instruction{}, fmt.Errorf("%w: %q takes no arguments", ErrMalformed, s)
		}
		switch verb {
		case Takeoff:
			return core.Takeoff(), nil
		case Land:
			return core.Land(), nil
		}
		return core.Instruction{Kind: core.KindHold, Direction: core.Hold, Label: core.Hold.DisplayName()}, nil

	case string(core.Clockwise), string(core.CounterClockwise):
		if len(fields) != 2 {
			return core.Instruction{}, fmt.Errorf("%w: %q expects 1 argument", ErrMalformed, s)
		}
		deg, err := strconv.Atoi(fields[1])
		if err != nil {
			return core.Instruction{}, fmt.Errorf("%w: degrees %q: %v", ErrMalformed, fields[1], err)
		}
		return core.Instruction{Kind: core.KindRotate, Direction: core.Token(verb), Degrees: deg}, nil

	case Go:
		if len(fields) != 5 {
			return core.Instruction{}, fmt.Errorf("%w: %q expects 4 arguments", ErrMalformed, s)
		}
		var xyz [3]float64
		for i := range xyz {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return core.Instruction{}, fmt.Errorf("%w: coordinate %q: %v", ErrMalformed, fields[i+1], err)
			}
			xyz[i] = v
		}
		speed, err := strconv.Atoi(fields[4])
		if err != nil {
			return core.Instruction{}, fmt.Errorf("%w: speed %q: %v", ErrMalformed, fields[4], err)
		}
		return core.Instruction{
			Kind:         core.KindMove,
			Displacement: core.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]},
			Speed:        speed,
		}, nil
	}

	return core.Instruction{}, fmt.Errorf("%w: unknown verb in %q", ErrMalformed, s)
}
