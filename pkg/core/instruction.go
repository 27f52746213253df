// pkg/core/instruction.go
package core

import "fmt"

// Kind is the instruction variant tag.
type Kind string

const (
	KindTakeoff Kind = "takeoff"
	KindLand    Kind = "land"
	KindMove    Kind = "move"
	KindRotate  Kind = "rotate"
	KindHold    Kind = "hold"
)

// Instruction is one compiled unit of flight. Only the fields relevant to Kind are set.
type Instruction struct {
	Kind Kind `json:"kind" yaml:"kind" msgpack:"kind"`

	// Direction is the body-relative token a move was compiled from, or the rotation
	// token for rotate. Imported moves that match no single token leave it empty.
	Direction Token `json:"direction,omitempty" yaml:"direction,omitempty" msgpack:"direction,omitempty"`

	// Displacement is the world-frame move in centimeters.
	Displacement Vec3 `json:"displacement" yaml:"displacement" msgpack:"displacement"`
	Speed        int  `json:"speed,omitempty" yaml:"speed,omitempty" msgpack:"speed,omitempty"`
	Degrees      int  `json:"degrees,omitempty" yaml:"degrees,omitempty" msgpack:"degrees,omitempty"`

	// Distance is the cumulative magnitude in meters shown in the label.
	Distance float64 `json:"distance,omitempty" yaml:"distance,omitempty" msgpack:"distance,omitempty"`

	// Draw is the scene-space delta used only for path rendering.
	Draw  Vec3   `json:"draw" yaml:"draw" msgpack:"draw"`
	Label string `json:"label" yaml:"label" msgpack:"label"`
}

// Takeoff returns the leading sentinel.
func Takeoff() Instruction {
	return Instruction{Kind: KindTakeoff, Label: "Takeoff"}
}

// Land returns the trailing sentinel.
func Land() Instruction {
	return Instruction{Kind: KindLand, Label: "Land"}
}

// Sentinel reports whether the instruction frames the list.
func (i Instruction) Sentinel() bool {
	return i.Kind == KindTakeoff || i.Kind == KindLand
}

// MoveLabel formats a move label, e.g. "Forward --> 2.0 m".
func MoveLabel(name string, meters float64) string {
	return fmt.Sprintf("%s --> %.1f m", name, meters)
}

// RotateLabel formats a rotation label, e.g. "Rotate Clockwise --> 90 degrees".
func RotateLabel(t Token, degrees int) string {
	return fmt.Sprintf("%s --> %d degrees", t.DisplayName(), degrees)
}
