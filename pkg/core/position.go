// pkg/core/position.go
package core

import "math"

// Vec3 is a 3-component vector. Depending on context it holds world coordinates
// (X north, Y west, Z up) or scene coordinates (X west, Y up, Z north).
type Vec3 struct {
	X float64 `json:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" yaml:"y" msgpack:"y"`
	Z float64 `json:"z" yaml:"z" msgpack:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the euclidean norm.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// MaxAbs returns the largest absolute component.
func (v Vec3) MaxAbs() float64 {
	return math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
}

// ToScene maps a world-frame vector onto the scene frame used by the visualizer.
func (v Vec3) ToScene() Vec3 {
	return Vec3{X: v.Y, Y: v.Z, Z: v.X}
}

// ToWorld is the inverse of ToScene.
func (v Vec3) ToWorld() Vec3 {
	return Vec3{X: v.Z, Y: v.X, Z: v.Y}
}

// BuildStart is where the drawn build path begins, in scene units.
var BuildStart = Vec3{X: 0, Y: 1, Z: 0}
