// Package geom provides the planar primitives shared by the layout, routing
// and metrics packages: axis-aligned boxes, line segments and the
// intersection predicates between them.
//
// Points are [r2.Vec] values and boxes are [r2.Box] values from gonum, so
// vector algebra (Add, Sub, Scale, Norm, Cross, Dot) comes from
// gonum.org/v1/gonum/spatial/r2 directly.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance used by the intersection predicates.
const Epsilon = 1e-9

// Pt is shorthand for r2.Vec{X: x, Y: y}.
func Pt(x, y float64) r2.Vec {
	return r2.Vec{X: x, Y: y}
}

// BoxAt returns the box of size w×h centred at (cx, cy).
func BoxAt(cx, cy, w, h float64) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: cx - w/2, Y: cy - h/2},
		Max: r2.Vec{X: cx + w/2, Y: cy + h/2},
	}
}

// Overlaps reports whether a and b share at least one point.
// Touching boundaries count as overlap; two identical boxes overlap.
func Overlaps(a, b r2.Box) bool {
	return !(a.Max.X < b.Min.X || b.Max.X < a.Min.X || a.Max.Y < b.Min.Y || b.Max.Y < a.Min.Y)
}

// Bounds returns the union of boxes. ok is false when boxes is empty.
func Bounds(boxes []r2.Box) (b r2.Box, ok bool) {
	if len(boxes) == 0 {
		return r2.Box{}, false
	}
	b = boxes[0]
	for _, o := range boxes[1:] {
		b.Min.X = math.Min(b.Min.X, o.Min.X)
		b.Min.Y = math.Min(b.Min.Y, o.Min.Y)
		b.Max.X = math.Max(b.Max.X, o.Max.X)
		b.Max.Y = math.Max(b.Max.Y, o.Max.Y)
	}
	return b, true
}

// Diagonal returns the length of the diagonal of a w×h rectangle.
func Diagonal(w, h float64) float64 {
	return math.Hypot(w, h)
}

// Gap returns the shortest distance between the boundaries of two disjoint
// boxes, together with the nearest point on a and the nearest point on b.
// Overlapping boxes have a gap of zero and return their centres.
func Gap(a, b r2.Box) (gap float64, pa, pb r2.Vec) {
	dx := math.Max(0, math.Max(a.Min.X-b.Max.X, b.Min.X-a.Max.X))
	dy := math.Max(0, math.Max(a.Min.Y-b.Max.Y, b.Min.Y-a.Max.Y))
	if dx == 0 && dy == 0 {
		return 0, a.Center(), b.Center()
	}

	pa.X, pb.X = nearest(a.Min.X, a.Max.X, b.Min.X, b.Max.X)
	pa.Y, pb.Y = nearest(a.Min.Y, a.Max.Y, b.Min.Y, b.Max.Y)
	return math.Hypot(dx, dy), pa, pb
}

// nearest returns the closest pair of coordinates between the intervals
// [a0,a1] and [b0,b1]. Overlapping intervals meet in the middle of the overlap.
func nearest(a0, a1, b0, b1 float64) (float64, float64) {
	switch {
	case a1 < b0:
		return a1, b0
	case b1 < a0:
		return a0, b1
	}
	mid := (math.Max(a0, b0) + math.Min(a1, b1)) / 2
	return mid, mid
}

// ExitPoint returns where the ray from the centre of b in direction dir
// leaves b. A zero direction yields the centre.
func ExitPoint(b r2.Box, dir r2.Vec) r2.Vec {
	c := b.Center()
	if dir.X == 0 && dir.Y == 0 {
		return c
	}
	hw, hh := (b.Max.X-b.Min.X)/2, (b.Max.Y-b.Min.Y)/2
	t := math.Inf(1)
	if dir.X != 0 {
		t = math.Min(t, hw/math.Abs(dir.X))
	}
	if dir.Y != 0 {
		t = math.Min(t, hh/math.Abs(dir.Y))
	}
	return r2.Add(c, r2.Scale(t, dir))
}
