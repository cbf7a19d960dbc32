package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nestlayout/pkg/graph"
)

func TestDiscoverTreeDisconnected(t *testing.T) {
	_, p := family(t, 2, 50, 50)
	tree, err := discoverTree(p.Members, innerSettings().EdgeTypes)
	require.NoError(t, err)

	assert.Equal(t, 0, tree.root)
	assert.Equal(t, []int{1}, tree.next[0])
	assert.Empty(t, tree.next[1])
}

func TestDiscoverTreeVisitsEveryNodeOnce(t *testing.T) {
	edges := [][2]int{{1, 0}, {1, 2}, {2, 3}, {3, 1}, {0, 3}, {5, 6}}
	_, p := family(t, 7, 50, 50, edges...)
	tree, err := discoverTree(p.Members, innerSettings().EdgeTypes)
	require.NoError(t, err)

	assert.Equal(t, 1, tree.root, "c1 has the lowest in-out score")
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6}, tree.visited)

	parents := map[int]int{}
	for _, next := range tree.next {
		for _, to := range next {
			parents[to]++
			assert.NotEqual(t, tree.root, to, "root has no parent")
		}
	}
	assert.Len(t, parents, len(p.Members)-1)
	for child, n := range parents {
		assert.Equal(t, 1, n, "c%d has %d parents", child, n)
	}
}

func TestStraightTreeLayoutNonNegative(t *testing.T) {
	edges := [][2]int{{0, 1}, {0, 2}, {0, 3}, {2, 4}, {2, 5}, {5, 6}}
	_, p := family(t, 7, 50, 50, edges...)
	p.Members[4].Width = 90
	s := innerSettings()
	s.Params.UniformSize = false

	require.NoError(t, StraightTreeLayout(s, p.Members, nil, nil))
	for _, c := range p.Members {
		assert.GreaterOrEqual(t, c.X-c.Width/2, s.NodeMargin, "%s", c.ID)
		assert.GreaterOrEqual(t, c.Y-c.Height/2, s.NodeMargin, "%s", c.ID)
	}
	assertNoOverlap(t, p.Members)
}

func TestStraightTreeLayoutShape(t *testing.T) {
	// c0 has two leaf subtrees: one hangs below, one sits to the right.
	g, p := family(t, 3, 50, 50, [2]int{0, 1}, [2]int{0, 2})
	s := innerSettings()
	require.NoError(t, StraightTreeLayout(s, p.Members, p, g))
	c0, c1, c2 := p.Members[0], p.Members[1], p.Members[2]

	assert.InDelta(t, c0.X, c1.X, 1e-9, "smallest subtree stacks below")
	assert.InDelta(t, c0.Y+50+s.NodeMargin, c1.Y, 1e-9)
	assert.InDelta(t, c0.Y, c2.Y, 1e-9, "other subtrees go right")
	assert.InDelta(t, c0.X+50+s.NodeMargin, c2.X, 1e-9)

	assert.InDelta(t, 50+30+50+2*s.NodePadding, p.Width, 1e-9)
	assert.InDelta(t, 50+30+50+2*s.NodePadding, p.Height, 1e-9)
}

func TestStraightTreeLayoutUniformSize(t *testing.T) {
	g, p := family(t, 3, 50, 50, [2]int{0, 1})
	p.Members[2].Width, p.Members[2].Height = 120, 40

	s := innerSettings()
	s.Params.UniformSize = true
	require.NoError(t, StraightTreeLayout(s, p.Members, p, g))
	for _, c := range p.Members {
		assert.Equal(t, 120.0, c.Width)
		assert.Equal(t, 50.0, c.Height, "height is the largest height, not the largest width")
	}
}

func TestStraightTreeLayoutUniformSizeMinimum(t *testing.T) {
	g, p := family(t, 2, 200, 20)
	p.Members[1].Width, p.Members[1].Height = 30, 10

	s := innerSettings()
	s.Params.UniformSize = true
	require.NoError(t, StraightTreeLayout(s, p.Members, p, g))
	for _, c := range p.Members {
		assert.Equal(t, 200.0, c.Width)
		assert.Equal(t, s.MinimumNodeSize, c.Height)
	}
}

func TestStraightTreeLayoutIgnoresOtherEdgeTypes(t *testing.T) {
	g, err := graph.New(
		[]graph.NodeSpec{{ID: "p", Members: []graph.NodeSpec{{ID: "a"}, {ID: "b"}}}},
		[]graph.EdgeSpec{{ID: "e", Source: "b", Target: "a", Type: graph.EdgeCalls}},
	)
	require.NoError(t, err)
	p := g.Node("p")
	for _, c := range p.Members {
		c.Width, c.Height = 50, 50
	}

	tree, err := discoverTree(p.Members, innerSettings().EdgeTypes)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.root, "calls edges do not count towards the score")
}
