package geometry

import "math"

// Circle is a center plus radius, the result of fitting an arc candidate.
type Circle struct {
	Center Vec2
	Radius float64
}

// CircleThrough returns the circle passing through the three given points.
// It reports false when the points are colinear (or coincident), in which
// case no finite circle exists.
//
// The center solves the 2x2 linear system equating distances to the three
// points; see https://math.stackexchange.com/a/1114321.
func CircleThrough(a, b, c Vec2) (Circle, bool) {
	ab := a.Sub(b)
	bc := b.Sub(c)

	det := ab.X*bc.Y - ab.Y*bc.X
	if math.Abs(det) < 1e-12 {
		return Circle{}, false
	}

	k1 := (a.X*a.X - b.X*b.X + a.Y*a.Y - b.Y*b.Y) / 2
	k2 := (b.X*b.X - c.X*c.X + b.Y*b.Y - c.Y*c.Y) / 2

	center := Vec2{
		X: (k1*bc.Y - ab.Y*k2) / det,
		Y: (ab.X*k2 - k1*bc.X) / det,
	}
	return Circle{Center: center, Radius: center.Sub(a).Length()}, true
}

// Clockwise reports whether the turn a -> b -> c is clockwise in the
// conventional right-handed XY plane (positive X right, positive Y up).
func Clockwise(a, b, c Vec2) bool {
	ab := b.Sub(a)
	ac := c.Sub(a)
	return ab.X*ac.Y-ab.Y*ac.X < 0
}
