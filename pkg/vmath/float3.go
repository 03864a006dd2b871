// Package vmath provides the small float32 vector type shared by effect
// definitions, compiled programs, and the spawn pipeline.
package vmath

import "math"

// Float3 is a 3-component float32 vector.
type Float3 struct {
	X, Y, Z float32
}

// New returns a Float3 with the given components.
func New(x, y, z float32) Float3 {
	return Float3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Float3) Add(o Float3) Float3 {
	return Float3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Float3) Sub(o Float3) Float3 {
	return Float3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Float3) Scale(s float32) Float3 {
	return Float3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Float3) Dot(o Float3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// SqLength returns the squared length of v.
func (v Float3) SqLength() float32 {
	return v.Dot(v)
}

// Length returns the length of v.
func (v Float3) Length() float32 {
	return float32(math.Sqrt(float64(v.SqLength())))
}

// SafeNormalize returns v scaled to unit length. The zero vector is
// returned unchanged instead of producing NaNs.
func (v Float3) SafeNormalize() Float3 {
	sq := v.SqLength()
	if sq <= 0 {
		return v
	}
	return v.Scale(1 / float32(math.Sqrt(float64(sq))))
}
