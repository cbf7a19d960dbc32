package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b r2.Box
		want bool
	}{
		{"disjoint", BoxAt(0, 0, 10, 10), BoxAt(20, 0, 10, 10), false},
		{"coincident", BoxAt(5, 5, 10, 10), BoxAt(5, 5, 10, 10), true},
		{"partial", BoxAt(0, 0, 10, 10), BoxAt(5, 5, 10, 10), true},
		{"touching", BoxAt(0, 0, 10, 10), BoxAt(10, 0, 10, 10), true},
		{"nested", BoxAt(0, 0, 100, 100), BoxAt(0, 0, 10, 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps() not symmetric: %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Fatal("Bounds(nil) should report !ok")
	}
	b, ok := Bounds([]r2.Box{BoxAt(0, 0, 10, 10), BoxAt(20, 5, 10, 20)})
	if !ok {
		t.Fatal("Bounds() should report ok")
	}
	assert.Equal(t, Pt(-5, -5), b.Min)
	assert.Equal(t, Pt(25, 15), b.Max)
}

func TestGap(t *testing.T) {
	t.Run("horizontal", func(t *testing.T) {
		gap, pa, pb := Gap(BoxAt(0, 0, 10, 10), BoxAt(30, 0, 10, 10))
		assert.InDelta(t, 20, gap, 1e-9)
		assert.InDelta(t, 5, pa.X, 1e-9)
		assert.InDelta(t, 25, pb.X, 1e-9)
		assert.InDelta(t, pa.Y, pb.Y, 1e-9)
	})

	t.Run("diagonal", func(t *testing.T) {
		gap, pa, pb := Gap(BoxAt(0, 0, 10, 10), BoxAt(20, 20, 10, 10))
		assert.InDelta(t, math.Hypot(10, 10), gap, 1e-9)
		assert.Equal(t, Pt(5, 5), pa)
		assert.Equal(t, Pt(15, 15), pb)
	})

	t.Run("overlapping", func(t *testing.T) {
		gap, _, _ := Gap(BoxAt(0, 0, 10, 10), BoxAt(5, 5, 10, 10))
		assert.Zero(t, gap)
	})
}

func TestExitPoint(t *testing.T) {
	b := BoxAt(0, 0, 20, 10)
	assert.Equal(t, Pt(10, 0), ExitPoint(b, Pt(1, 0)))
	assert.Equal(t, Pt(0, -5), ExitPoint(b, Pt(0, -3)))

	p := ExitPoint(b, Pt(1, 1))
	assert.InDelta(t, 5, p.X, 1e-9)
	assert.InDelta(t, 5, p.Y, 1e-9)

	assert.Equal(t, Pt(0, 0), ExitPoint(b, Pt(0, 0)))
}

func TestSegmentIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Segment
		want bool
	}{
		{"cross", Seg(0, 0, 10, 10), Seg(0, 10, 10, 0), true},
		{"parallel", Seg(0, 0, 10, 0), Seg(0, 1, 10, 1), false},
		{"collinear overlap", Seg(0, 0, 10, 0), Seg(5, 0, 15, 0), true},
		{"collinear disjoint", Seg(0, 0, 10, 0), Seg(11, 0, 15, 0), false},
		{"touch endpoint", Seg(0, 0, 10, 0), Seg(10, 0, 10, 10), true},
		{"apart", Seg(0, 0, 1, 1), Seg(5, 0, 6, -1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSegmentAngle(t *testing.T) {
	a := Seg(0, 0, 10, 0)
	assert.InDelta(t, 90, a.Angle(Seg(5, -5, 5, 5)), 1e-9)
	assert.InDelta(t, -90, a.Angle(Seg(5, 5, 5, -5)), 1e-9)
	assert.InDelta(t, 45, a.Angle(Seg(0, 0, 1, 1)), 1e-9)
}

func TestSegmentContiguous(t *testing.T) {
	if !Seg(0, 0, 1, 1).Contiguous(Seg(1, 1, 2, 0)) {
		t.Error("segments sharing an endpoint should be contiguous")
	}
	if Seg(0, 0, 1, 1).Contiguous(Seg(0, 1, 1, 0)) {
		t.Error("crossing segments are not contiguous")
	}
}

func TestSegmentIntersectsBox(t *testing.T) {
	b := BoxAt(0, 0, 10, 10)
	tests := []struct {
		name string
		s    Segment
		want bool
	}{
		{"through", Seg(-20, 0, 20, 0), true},
		{"inside", Seg(-1, -1, 1, 1), true},
		{"outside", Seg(-20, 20, 20, 20), false},
		{"one end inside", Seg(0, 0, 30, 30), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.IntersectsBox(b); got != tt.want {
				t.Errorf("IntersectsBox() = %v, want %v", got, tt.want)
			}
		})
	}
}
