// Package orientation resolves body-relative intents into world vectors given the
// drone heading, and applies rotations to the heading.
package orientation

import "github.com/dronepath/autopilot/pkg/core"

// headings holds the world unit vector the nose points at for each orientation.
// World frame: X north, Y west, Z up.
var headings = [4]core.Vec3{
	core.North: {X: 1},
	core.East:  {Y: -1},
	core.South: {X: -1},
	core.West:  {Y: 1},
}

// quarterTurns is the offset into headings for each horizontal token.
var quarterTurns = map[core.Token]core.Orientation{
	core.Forward: 0,
	core.Right:   1,
	core.Back:    2,
	core.Left:    3,
}

var (
	up   = core.Vec3{Z: 1}
	down = core.Vec3{Z: -1}
)

// Resolve returns the world unit vector for a translational token.
// Rotation and hold tokens resolve to the zero vector.
func Resolve(t core.Token, o core.Orientation) core.Vec3 {
	switch t {
	case core.Up:
		return up
	case core.Down:
		return down
	}
	turns, ok := quarterTurns[t]
	if !ok {
		return core.Vec3{}
	}
	return headings[(o + turns).Normalize()]
}

// Rotate applies a rotation of the given degrees to o. Each whole 90° step moves the
// heading by one state: cw is +1, ccw is +3 (mod 4).
func Rotate(o core.Orientation, t core.Token, degrees int) core.Orientation {
	steps := core.Orientation(degrees / 90)
	switch t {
	case core.Clockwise:
		return (o + steps).Normalize()
	case core.CounterClockwise:
		return (o + 3*steps).Normalize()
	}
	return o.Normalize()
}

// Match finds the token whose resolved vector points along v for heading o.
// v must be axis aligned; otherwise ok is false.
func Match(v core.Vec3, o core.Orientation) (core.Token, bool) {
	l := v.Length()
	if l == 0 {
		return "", false
	}
	unit := v.Scale(1 / l)
	for _, t := range []core.Token{core.Forward, core.Back, core.Left, core.Right, core.Up, core.Down} {
		if unit.Sub(Resolve(t, o)).MaxAbs() < 1e-9 {
			return t, true
		}
	}
	return "", false
}
