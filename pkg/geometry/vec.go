// Package geometry provides the small amount of 2-D vector math used by the
// toolpath filters. Toolpaths are planar per layer, so everything here works
// on XY projections; Z is carried separately by the callers.
package geometry

import "math"

// Vec2 is a 2-D point or direction vector.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{v.X + w.X, v.Y + w.Y}
}

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{v.X - w.X, v.Y - w.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and w.
func (v Vec2) Dot(w Vec2) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the Z component of the cross product of v and w.
// Positive for a counter-clockwise turn from v to w.
func (v Vec2) Cross(w Vec2) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector in the direction of v.
// The zero vector normalizes to the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Perp returns v rotated -90 degrees, the cross normal of a unit direction.
func (v Vec2) Perp() Vec2 {
	return Vec2{v.Y, -v.X}
}

// Lerp returns the point at fraction t along the segment from v to w.
// t=0 yields v, t=1 yields w.
func Lerp(v, w Vec2, t float64) Vec2 {
	return Vec2{
		X: v.X + (w.X-v.X)*t,
		Y: v.Y + (w.Y-v.Y)*t,
	}
}
