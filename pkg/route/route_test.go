package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nestlayout/pkg/graph"
)

// placed builds two 100×100 containers side by side, each with one 20×20
// member at its centre, and a calls edge between the members.
//
//	a (50,50) ─── a1        b (250,50) ─── b1
func placed(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New([]graph.NodeSpec{
		{ID: "a", Members: []graph.NodeSpec{{ID: "a1"}}},
		{ID: "b", Members: []graph.NodeSpec{{ID: "b1"}}},
	}, []graph.EdgeSpec{
		{ID: "e", Source: "a1", Target: "b1", Type: graph.EdgeCalls},
		{ID: "f", Source: "a1", Target: "a", Type: graph.EdgeHolds},
	})
	require.NoError(t, err)

	set := func(id string, x, y, w, h float64) {
		n := g.Node(id)
		n.X, n.Y, n.Width, n.Height = x, y, w, h
	}
	set("a", 50, 50, 100, 100)
	set("b", 250, 50, 100, 100)
	set("a1", 0, 0, 20, 20)
	set("b1", 0, 0, 20, 20)
	return g
}

func TestRouteWithPorts(t *testing.T) {
	g := placed(t)
	res := (&Router{ShowPorts: true, PortSize: 10}).Route(g)

	assert.Equal(t, []r2.Vec{
		{X: 50, Y: 50},
		{X: 100, Y: 50}, // exit port on a's right side
		{X: 200, Y: 50}, // entry port on b's left side
		{X: 250, Y: 50},
	}, res.Paths["e"])

	require.Len(t, res.Ports["a"], 1)
	port := res.Ports["a"][0]
	assert.Equal(t, Out, port.Direction)
	assert.Equal(t, []graph.EdgeType{graph.EdgeCalls}, port.Types)
	assert.InDelta(t, 95, port.Box().Min.X, 1e-9)

	require.Len(t, res.Ports["b"], 1)
	assert.Equal(t, In, res.Ports["b"][0].Direction)

	// An edge to its own container crosses nothing.
	assert.Equal(t, []r2.Vec{{X: 50, Y: 50}, {X: 50, Y: 50}}, res.Paths["f"])
}

func TestRouteWithoutPorts(t *testing.T) {
	g := placed(t)
	e := g.Edges()[0]
	e.Routing = []graph.RoutingPoint{{X: 0, Y: 80}, {X: 30, Y: -10, Origin: "b"}}

	res := (&Router{}).Route(g)
	assert.Empty(t, res.Ports)
	assert.Equal(t, []r2.Vec{
		{X: 50, Y: 50},
		{X: 0, Y: 80},
		{X: 280, Y: 40},
		{X: 250, Y: 50},
	}, res.Paths["e"])

	segs := res.Segments("e")
	require.Len(t, segs, 3)
	assert.Equal(t, r2.Vec{X: 280, Y: 40}, segs[1].End)
	assert.Nil(t, res.Segments("missing"))
}

func TestRouteDeepNesting(t *testing.T) {
	g, err := graph.New([]graph.NodeSpec{
		{ID: "o", Members: []graph.NodeSpec{
			{ID: "m", Members: []graph.NodeSpec{{ID: "x"}}},
		}},
		{ID: "y"},
	}, []graph.EdgeSpec{{ID: "e", Source: "x", Target: "y", Type: graph.EdgeCalls}})
	require.NoError(t, err)
	for _, n := range g.Flatten() {
		n.Width, n.Height = 40, 40
	}
	g.Node("o").Width, g.Node("o").Height = 200, 200
	g.Node("m").Width, g.Node("m").Height = 100, 100
	g.Node("y").X = 400

	res := (&Router{ShowPorts: true, PortSize: 10}).Route(g)
	path := res.Paths["e"]
	require.Len(t, path, 4)
	assert.Equal(t, r2.Vec{X: 50, Y: 0}, path[1], "m is left first")
	assert.Equal(t, r2.Vec{X: 100, Y: 0}, path[2], "then o")
}

func TestAnnotate(t *testing.T) {
	g := placed(t)
	res := (&Router{ShowPorts: true, PortSize: 10}).Route(g)

	f := g.ToFile()
	res.Annotate(&f)

	require.Len(t, f.Edges[0].RenderPoints, 4)
	assert.Equal(t, graph.FilePoint{X: 100, Y: 50}, f.Edges[0].RenderPoints[1])
	require.Len(t, f.Nodes[0].Ports, 1)
	assert.Equal(t, "out", f.Nodes[0].Ports[0].Direction)
	assert.Equal(t, 10.0, f.Nodes[0].Ports[0].Width)
	assert.Empty(t, f.Nodes[0].Members[0].Ports)
}
