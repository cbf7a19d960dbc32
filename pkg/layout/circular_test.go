package layout

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircularLayoutThreeLeaves(t *testing.T) {
	g, p := family(t, 3, 50, 50)
	s := innerSettings()
	require.Equal(t, 30.0, s.NodeMargin)

	require.NoError(t, CircularLayout(s, p.Members, p, g))

	radius := 3*(math.Hypot(50, 50)+30)/(2*math.Pi) + 20
	var angles []float64
	maxX, maxY := 0.0, 0.0
	for _, c := range p.Members {
		assert.InDelta(t, radius, math.Hypot(c.X, c.Y), 1e-9, "%s is off the circle", c.ID)
		angles = append(angles, math.Atan2(c.X, c.Y))
		maxX = math.Max(maxX, math.Abs(c.X)+25)
		maxY = math.Max(maxY, math.Abs(c.Y)+25)
	}

	for i := range angles {
		for j := i + 1; j < len(angles); j++ {
			d := math.Mod(math.Abs(angles[i]-angles[j]), 2*math.Pi)
			d = math.Min(d, 2*math.Pi-d)
			assert.InDelta(t, 2*math.Pi/3, d, 1e-9)
		}
	}

	assert.InDelta(t, 2*maxX+2*s.NodePadding, p.Width, 1e-9)
	assert.InDelta(t, 2*maxY+2*s.NodePadding, p.Height, 1e-9)
}

func TestCircularLayoutNoOverlap(t *testing.T) {
	sizes := [][2]float64{{50, 50}, {60, 40}, {40, 70}, {55, 55}, {70, 30}, {45, 60}, {50, 50}, {65, 45}}
	for n := 1; n <= len(sizes); n++ {
		g, p := family(t, n, 1, 1, [2]int{0, n - 1})
		for i, c := range p.Members {
			c.Width, c.Height = sizes[i][0], sizes[i][1]
		}
		require.NoError(t, CircularLayout(innerSettings(), p.Members, p, g))
		assertNoOverlap(t, p.Members)

		for _, c := range p.Members {
			assert.LessOrEqual(t, math.Abs(c.X)+c.Width/2, p.Width/2, "%s outside parent", c.ID)
			assert.LessOrEqual(t, math.Abs(c.Y)+c.Height/2, p.Height/2, "%s outside parent", c.ID)
		}
	}
}

func TestCircularLayoutDeterministic(t *testing.T) {
	edges := [][2]int{{0, 2}, {2, 1}, {3, 1}, {4, 0}}
	g1, p1 := family(t, 5, 50, 50, edges...)
	g2, p2 := family(t, 5, 50, 50, edges...)
	require.NoError(t, CircularLayout(innerSettings(), p1.Members, p1, g1))
	require.NoError(t, CircularLayout(innerSettings(), p2.Members, p2, g2))

	for i := range p1.Members {
		assert.Equal(t, p1.Members[i].X, p2.Members[i].X)
		assert.Equal(t, p1.Members[i].Y, p2.Members[i].Y)
	}
}

func TestCompareByDegree(t *testing.T) {
	// c0→c1→c2→c3, c2→c1, c4 isolated: c1 and c2 have edges both ways.
	_, p := family(t, 5, 50, 50, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 3}, [2]int{2, 1})
	m := p.Members

	for _, n := range m {
		assert.Zero(t, compareByDegree(n, n), "%s compared with itself", n.ID)
	}
	assert.Negative(t, compareByDegree(m[1], m[0]), "nodes with both directions come first")
	assert.Positive(t, compareByDegree(m[0], m[1]))
	assert.Zero(t, compareByDegree(m[0], m[4]), "one-sided nodes keep input order")
	// c1: in 2, out 1; c2: in 1, out 2.
	assert.Negative(t, compareByDegree(m[1], m[2]), "more incoming sorts earlier")

	sorted := slices.Clone(m)
	slices.SortStableFunc(sorted, compareByDegree)
	var ids []string
	for _, n := range sorted {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "c0", "c3", "c4"}, ids)
}
