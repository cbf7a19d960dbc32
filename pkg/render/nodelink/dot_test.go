package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/route"
)

func laidOut(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New([]graph.NodeSpec{
		{ID: "a", Members: []graph.NodeSpec{{ID: "a1"}}},
		{ID: "b"},
	}, []graph.EdgeSpec{{ID: "e", Source: "a1", Target: "b", Type: graph.EdgeCalls}})
	require.NoError(t, err)
	set := func(id string, x, y, w, h float64) {
		n := g.Node(id)
		n.X, n.Y, n.Width, n.Height = x, y, w, h
	}
	set("a", 72, 72, 144, 144)
	set("a1", 0, 0, 36, 36)
	set("b", 288, 72, 72, 72)
	return g
}

func TestToDOT(t *testing.T) {
	g := laidOut(t)
	dot := ToDOT(g, route.Result{}, Options{})

	assert.True(t, strings.HasPrefix(dot, "digraph G {"))
	assert.Contains(t, dot, `"a" [label="a", pos="72,-72!", width=2, height=2, labelloc=t`)
	assert.Contains(t, dot, `"a1" [label="a1", pos="72,-72!", width=0.5, height=0.5]`)
	assert.Contains(t, dot, `"a1" -> "b" [class="calls"]`)
	assert.Less(t, strings.Index(dot, `"a" [`), strings.Index(dot, `"a1" [`), "containers before members")
	assert.NotContains(t, dot, "port:")
}

func TestToDOTWithRoutes(t *testing.T) {
	g := laidOut(t)
	routes := (&route.Router{ShowPorts: true, PortSize: 9}).Route(g)
	dot := ToDOT(g, routes, Options{ShowPorts: true, Detailed: true})

	assert.Contains(t, dot, `"port:a:out" [label="", shape=square`)
	assert.Contains(t, dot, "width=0.125")
	assert.Contains(t, dot, `pos="e,288,-72 72,-72`)
	assert.Contains(t, dot, `label="a1\n36×36"`)
}

func TestFmtSpline(t *testing.T) {
	got := fmtSpline([]r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}})
	assert.Equal(t, "e,10,-5 0,0 0,0 10,0 10,0 10,0 10,-5 10,-5", got)
	// 1 start point plus 3 per piece.
	assert.Len(t, strings.Fields(got), 1+1+3*2)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Contains(t, out, `viewBox="0 0 100.00 50.00" width="100" height="50"`)
	assert.Contains(t, out, "<g/>")

	assert.Equal(t, "<svg/>", string(normalizeViewBox([]byte("<svg/>"))))
}

func TestRenderSVG(t *testing.T) {
	g := laidOut(t)
	svg, err := RenderSVG(context.Background(), ToDOT(g, route.Result{}, Options{}))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "a1")
}
