package metrics

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/route"
)

type box struct {
	id         string
	x, y, w, h float64
}

// placed builds a flat graph of boxes with calls edges between them.
func placed(t *testing.T, boxes []box, edges ...[2]string) *graph.Graph {
	t.Helper()
	specs := make([]graph.NodeSpec, len(boxes))
	for i, b := range boxes {
		specs[i] = graph.NodeSpec{ID: b.id}
	}
	var es []graph.EdgeSpec
	for _, e := range edges {
		es = append(es, graph.EdgeSpec{ID: e[0] + e[1], Source: e[0], Target: e[1], Type: graph.EdgeCalls})
	}
	g, err := graph.New(specs, es)
	require.NoError(t, err)
	for _, b := range boxes {
		n := g.Node(b.id)
		n.X, n.Y, n.Width, n.Height = b.x, b.y, b.w, b.h
	}
	return g
}

func measure(g *graph.Graph) Report {
	e := &Engine{EdgeTypes: graph.NewEdgeTypeSet(graph.EdgeCalls)}
	return e.Run(g, (&route.Router{}).Route(g))
}

func TestNodeOverlaps(t *testing.T) {
	disjoint := placed(t, []box{{"a", 0, 0, 10, 10}, {"b", 50, 0, 10, 10}})
	assert.Equal(t, 0.0, measure(disjoint).Get(NodeOverlaps))

	coincident := placed(t, []box{{"a", 0, 0, 10, 10}, {"b", 0, 0, 10, 10}})
	r := measure(coincident)
	assert.Equal(t, 1.0, r.Get(NodeOverlaps), "a pair counts once")
	assert.Equal(t, 2.0, r.Get(NodeOrthogonality), "shared x and shared y")
}

func TestNodeOverlapsOnlyBetweenSiblings(t *testing.T) {
	g, err := graph.New([]graph.NodeSpec{
		{ID: "p", Members: []graph.NodeSpec{{ID: "a"}, {ID: "b"}}},
	}, nil)
	require.NoError(t, err)
	g.Node("p").Width, g.Node("p").Height = 100, 100
	for _, id := range []string{"a", "b"} {
		g.Node(id).Width, g.Node(id).Height = 20, 20
	}
	g.Node("b").X = 10

	r := measure(g)
	assert.Equal(t, 1.0, r.Get(NodeOverlaps), "a member never overlaps its container")
	assert.Equal(t, 1.0, r.Get(NodeOrthogonality), "a and b share y; containment pairs are skipped")
}

// crossingGraph draws two diagonals through a square with an idle node in
// the middle:
//
//	c ─── b
//	  ╲ ╱
//	   m
//	  ╱ ╲
//	a ─── d
func crossingGraph(t *testing.T) *graph.Graph {
	return placed(t, []box{
		{"a", 0, 0, 10, 10},
		{"b", 100, 100, 10, 10},
		{"c", 0, 100, 10, 10},
		{"d", 100, 0, 10, 10},
		{"m", 50, 50, 10, 10},
	}, [2]string{"a", "b"}, [2]string{"c", "d"})
}

func TestLineMetrics(t *testing.T) {
	r := measure(crossingGraph(t))

	assert.Equal(t, 1.0, r.Get(LineIntersections))
	assert.InDelta(t, 90, r.Get(CrossingAngle), 1e-9)
	assert.InDelta(t, 0, r.Get(LengthDifference), 1e-9)
	assert.Equal(t, 2.0, r.Get(UnrelatedOverlaps), "both diagonals cross m")
	assert.Equal(t, 4.0, r.Get(NodeOrthogonality))
	assert.InDelta(t, 110*110, r.Get(TotalArea), 1e-9)
	assert.InDelta(t, 1, r.Get(AspectRatio), 1e-9)

	// 5 nodes on a 3×3 grid: five cells hold one node, four are empty.
	assert.InDelta(t, math.Sqrt(180.0/648), r.Get(NodeDensity), 1e-9)
}

func TestLineMetricsIgnoreOtherEdgeTypes(t *testing.T) {
	g := crossingGraph(t)
	e := &Engine{EdgeTypes: graph.NewEdgeTypeSet(graph.EdgeHolds)}
	r := e.Run(g, (&route.Router{}).Route(g))

	assert.Equal(t, 0.0, r.Get(LineIntersections))
	assert.True(t, math.IsNaN(r.Get(CrossingAngle)))
	assert.True(t, math.IsNaN(r.Get(LengthDifference)))
	assert.Equal(t, 0.0, r.Get(UnrelatedOverlaps))
}

func TestLengthDifference(t *testing.T) {
	g := placed(t, []box{
		{"a", 0, 0, 10, 10},
		{"b", 100, 0, 10, 10},
		{"c", 0, 300, 10, 10},
	}, [2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"b", "a"})

	// Lengths 100 and 300; the reverse edge a←b is the same segment.
	assert.InDelta(t, 100, measure(g).Get(LengthDifference), 1e-9)
}

func TestUnrelatedOverlapsSkipsAncestors(t *testing.T) {
	g, err := graph.New([]graph.NodeSpec{
		{ID: "p", Members: []graph.NodeSpec{{ID: "s"}}},
		{ID: "t"},
		{ID: "u"},
	}, []graph.EdgeSpec{{ID: "st", Source: "s", Target: "t", Type: graph.EdgeCalls}})
	require.NoError(t, err)
	set := func(id string, x, w float64) {
		n := g.Node(id)
		n.X, n.Width, n.Height = x, w, w
	}
	set("p", 0, 100)
	set("s", 0, 10)
	set("t", 200, 10)
	set("u", 120, 10)

	r := measure(g)
	assert.Equal(t, 1.0, r.Get(UnrelatedOverlaps), "only u counts, p contains the source")
	assert.Equal(t, 0.0, r.Get(NodeOverlaps))
}

func TestUndefinedValues(t *testing.T) {
	r := measure(placed(t, []box{{"a", 5, 5, 10, 10}}))

	assert.True(t, math.IsNaN(r.Get(NodeDensity)))
	assert.True(t, math.IsNaN(r.Get(CrossingAngle)))
	assert.True(t, math.IsNaN(r.Get(LengthDifference)))
	assert.Equal(t, 100.0, r.Get(TotalArea))
}

func TestReportOrder(t *testing.T) {
	r := measure(crossingGraph(t))
	require.Len(t, r, len(All))
	for i, e := range r {
		assert.Equal(t, All[i], e.Metric)
		assert.Equal(t, All[i].Label(), e.Label)
	}
	assert.Equal(t, "unknown", Metric(99).Label())
	assert.True(t, math.IsNaN(Report{}.Get(TotalArea)))
}

func TestReportFormats(t *testing.T) {
	r := Report{
		{Metric: NodeOverlaps, Label: NodeOverlaps.Label(), Value: 2},
		{Metric: AspectRatio, Label: AspectRatio.Label(), Value: 1.5},
		{Metric: CrossingAngle, Label: CrossingAngle.Label(), Value: math.NaN()},
	}

	assert.Equal(t,
		"Node overlaps\t2\nAspect ratio\t1.5\nAvg. radial distance on intersections\tn/a\n",
		r.TSV())

	html := r.HTML()
	assert.Equal(t, 3, strings.Count(html, "<tr>"))
	assert.Contains(t, html, "<tr><td>Aspect ratio</td><td>1.5</td></tr>")

	values := r.Values()
	assert.Len(t, values, 3)
	assert.Equal(t, 1.5, values[AspectRatio])
}

func TestEntryJSON(t *testing.T) {
	r := Report{
		{Metric: TotalArea, Label: TotalArea.Label(), Value: 12},
		{Metric: CrossingAngle, Label: CrossingAngle.Label(), Value: math.NaN()},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"metric": 3, "label": "Total area", "value": 12},
		{"metric": 7, "label": "Avg. radial distance on intersections", "value": null}
	]`, string(data))

	var back Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 12.0, back.Get(TotalArea))
	assert.True(t, math.IsNaN(back.Get(CrossingAngle)))
}

func TestNewEngine(t *testing.T) {
	s := layout.DefaultSettings()
	s.MetricEdgeTypes = []graph.EdgeType{graph.EdgeHolds, graph.EdgeCalls}
	e := NewEngine(s)
	assert.True(t, e.EdgeTypes.Has(graph.EdgeHolds))
	assert.True(t, e.EdgeTypes.Has(graph.EdgeCalls))
	assert.False(t, e.EdgeTypes.Has(graph.EdgeNests))
}
