package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is a straight line segment between two points.
type Segment struct {
	Start r2.Vec
	End   r2.Vec
}

// Seg builds a segment from coordinates.
func Seg(x0, y0, x1, y1 float64) Segment {
	return Segment{Start: Pt(x0, y0), End: Pt(x1, y1)}
}

// Length returns the Euclidean length of s.
func (s Segment) Length() float64 {
	return r2.Norm(r2.Sub(s.End, s.Start))
}

// Vector returns End - Start.
func (s Segment) Vector() r2.Vec {
	return r2.Sub(s.End, s.Start)
}

// Contiguous reports whether s and o share an endpoint.
func (s Segment) Contiguous(o Segment) bool {
	return samePoint(s.Start, o.Start) || samePoint(s.Start, o.End) ||
		samePoint(s.End, o.Start) || samePoint(s.End, o.End)
}

// Intersects reports whether s and o share at least one point, including
// collinear overlap and touching endpoints.
func (s Segment) Intersects(o Segment) bool {
	d1 := orientation(o.Start, o.End, s.Start)
	d2 := orientation(o.Start, o.End, s.End)
	d3 := orientation(s.Start, s.End, o.Start)
	d4 := orientation(s.Start, s.End, o.End)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(o, s.Start):
		return true
	case d2 == 0 && onSegment(o, s.End):
		return true
	case d3 == 0 && onSegment(s, o.Start):
		return true
	case d4 == 0 && onSegment(s, o.End):
		return true
	}
	return false
}

// Angle returns the signed angle in degrees from s to o, in (-180, 180].
func (s Segment) Angle(o Segment) float64 {
	a, b := s.Vector(), o.Vector()
	return math.Atan2(r2.Cross(a, b), r2.Dot(a, b)) * 180 / math.Pi
}

// IntersectsBox reports whether s touches box b: it crosses the boundary or
// lies entirely inside.
func (s Segment) IntersectsBox(b r2.Box) bool {
	if b.Contains(s.Start) || b.Contains(s.End) {
		return true
	}
	tl, tr := b.Min, r2.Vec{X: b.Max.X, Y: b.Min.Y}
	br, bl := b.Max, r2.Vec{X: b.Min.X, Y: b.Max.Y}
	for _, edge := range [...]Segment{{tl, tr}, {tr, br}, {br, bl}, {bl, tl}} {
		if s.Intersects(edge) {
			return true
		}
	}
	return false
}

// orientation returns the sign of the turn a→b→c: positive for
// counter-clockwise, negative for clockwise, zero when collinear.
func orientation(a, b, c r2.Vec) int {
	v := r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
	switch {
	case v > Epsilon:
		return 1
	case v < -Epsilon:
		return -1
	}
	return 0
}

// onSegment assumes p is collinear with s.
func onSegment(s Segment, p r2.Vec) bool {
	return p.X <= math.Max(s.Start.X, s.End.X)+Epsilon && p.X >= math.Min(s.Start.X, s.End.X)-Epsilon &&
		p.Y <= math.Max(s.Start.Y, s.End.Y)+Epsilon && p.Y >= math.Min(s.Start.Y, s.End.Y)-Epsilon
}

func samePoint(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) <= Epsilon && math.Abs(a.Y-b.Y) <= Epsilon
}
