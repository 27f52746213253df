// pkg/core/heading.go
package core

import "fmt"

// Orientation is the drone heading, one of four cardinal states.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

func (o Orientation) String() string {
	switch o.Normalize() {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	default:
		return "west"
	}
}

// Normalize wraps any integer heading into 0..3.
func (o Orientation) Normalize() Orientation {
	return ((o % 4) + 4) % 4
}

// Token is a body-relative intent token as produced by the UI layer.
type Token string

const (
	Forward          Token = "forward"
	Back             Token = "back"
	Left             Token = "left"
	Right            Token = "right"
	Up               Token = "up"
	Down             Token = "down"
	Clockwise        Token = "cw"
	CounterClockwise Token = "ccw"
	Hold             Token = "hold"
)

// Translational reports whether the token moves the drone.
func (t Token) Translational() bool {
	switch t {
	case Forward, Back, Left, Right, Up, Down:
		return true
	}
	return false
}

// Rotational reports whether the token turns the drone.
func (t Token) Rotational() bool {
	return t == Clockwise || t == CounterClockwise
}

// DisplayName is the semantic direction name used in instruction labels.
func (t Token) DisplayName() string {
	switch t {
	case Forward:
		return "Forward"
	case Back:
		return "Reverse"
	case Left:
		return "Strafe Left"
	case Right:
		return "Strafe Right"
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Clockwise:
		return "Rotate Clockwise"
	case CounterClockwise:
		return "Rotate Counter-Clockwise"
	case Hold:
		return "Hold"
	}
	return string(t)
}

// ParseToken accepts the canonical token names plus a few aliases.
func ParseToken(s string) (Token, error) {
	switch s {
	case "forward", "fwd", "f":
		return Forward, nil
	case "back", "reverse", "b":
		return Back, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "cw", "clockwise":
		return Clockwise, nil
	case "ccw", "counterclockwise":
		return CounterClockwise, nil
	case "hold", "wait":
		return Hold, nil
	}
	return "", fmt.Errorf("unknown intent token %q", s)
}

// Intent is a raw request for one movement, rotation or hold step.
// Degrees overrides the default rotation step when non-zero.
type Intent struct {
	Token   Token
	Degrees int
}
