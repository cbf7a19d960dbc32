package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/nestlayout/pkg/graph"
)

// orderingPasses is the fixed number of median reordering sweeps.
const orderingPasses = 40

// LayerTreeLayout draws the children as a layered (Sugiyama-style) graph,
// top to bottom along the lifted layout edges.
//
// The layout runs in five phases:
//
//  1. Spanning DAG: a depth-first walk drops every edge that closes a cycle
//     on the current path.
//  2. Layering: nodes without remaining incoming DAG edges form the next
//     layer until every node is placed.
//  3. Ordering: edges spanning several layers get zero-size placeholders on
//     every intermediate layer, layers are reordered by the median rank of
//     their predecessors and adjacent placeholders are merged.
//  4. Coordinates: rows take their tallest member's height, columns their
//     widest member's width, separated by the tier margin.
//  5. Routing: when enabled, every edge gets one waypoint per placeholder it
//     passes, in source to target order.
//
// The parent is sized to the centred bounding box of the children and their
// waypoints, plus padding. Children of an unparented call keep their
// positive coordinates.
func LayerTreeLayout(s TierSettings, children []*graph.Node, parent *graph.Node, _ *graph.Graph) error {
	if err := Check(children); err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	edges := siblingEdges(children, s.EdgeTypes)
	dag, _ := discoverDAG(children, edges)
	layers, layerOf, err := assignLayers(children, dag)
	if err != nil {
		return err
	}

	sg := newSugiyama(layers, layerOf, edges)
	sg.insertDummies()
	sg.order()
	sg.mergeDummies()
	sg.assignCoordinates(s.NodeMargin)
	if s.EdgeRouting {
		sg.route(originOf(parent))
	}

	if parent != nil {
		w, h := Centerize(children, edges, originOf(parent))
		fitParent(parent, w, h, s.NodePadding)
	}
	return nil
}

// siblingEdges returns the distinct lifted layout edges between children.
func siblingEdges(children []*graph.Node, types graph.EdgeTypeSet) []*graph.Edge {
	in := make(map[*graph.Node]bool, len(children))
	for _, n := range children {
		in[n] = true
	}
	var out []*graph.Edge
	for _, e := range graph.LiftedEdges(children, types) {
		if in[e.LiftedSource] && in[e.LiftedTarget] {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Phase 1: Spanning DAG
// =============================================================================

// discoverDAG keeps every edge except those pointing back to a node on the
// current DFS path. The walk starts from sources, then picks up whatever
// remains in child order. It returns the kept edges and the number removed.
func discoverDAG(nodes []*graph.Node, edges []*graph.Edge) ([]*graph.Edge, int) {
	const (
		white = iota
		gray
		black
	)

	out := make(map[*graph.Node][]*graph.Edge, len(nodes))
	hasIncoming := make(map[*graph.Node]bool, len(nodes))
	for _, e := range edges {
		out[e.LiftedSource] = append(out[e.LiftedSource], e)
		hasIncoming[e.LiftedTarget] = true
	}

	color := make(map[*graph.Node]int, len(nodes))
	back := make(map[*graph.Edge]bool)

	var dfs func(n *graph.Node)
	dfs = func(n *graph.Node) {
		color[n] = gray
		for _, e := range out[n] {
			switch color[e.LiftedTarget] {
			case white:
				dfs(e.LiftedTarget)
			case gray:
				back[e] = true
			}
		}
		color[n] = black
	}

	for _, n := range nodes {
		if !hasIncoming[n] && color[n] == white {
			dfs(n)
		}
	}
	for _, n := range nodes {
		if color[n] == white {
			dfs(n)
		}
	}

	dag := make([]*graph.Edge, 0, len(edges)-len(back))
	for _, e := range edges {
		if !back[e] {
			dag = append(dag, e)
		}
	}
	return dag, len(back)
}

// =============================================================================
// Phase 2: Layering
// =============================================================================

// assignLayers peels off, layer by layer, the nodes without remaining
// incoming DAG edges. A pass that places nothing means the DAG has a cycle
// and yields an [InvariantError].
func assignLayers(nodes []*graph.Node, dag []*graph.Edge) ([][]*graph.Node, map[*graph.Node]int, error) {
	layerOf := make(map[*graph.Node]int, len(nodes))
	remaining := slices.Clone(nodes)
	live := slices.Clone(dag)

	var layers [][]*graph.Node
	for len(remaining) > 0 {
		blocked := make(map[*graph.Node]bool)
		for _, e := range live {
			blocked[e.LiftedTarget] = true
		}

		var layer, rest []*graph.Node
		for _, n := range remaining {
			if blocked[n] {
				rest = append(rest, n)
			} else {
				layer = append(layer, n)
			}
		}
		if len(layer) == 0 {
			return nil, nil, stuckLayering(len(layers), remaining, live)
		}

		for _, n := range layer {
			layerOf[n] = len(layers)
		}
		live = slices.DeleteFunc(live, func(e *graph.Edge) bool {
			_, s := layerOf[e.LiftedSource]
			_, t := layerOf[e.LiftedTarget]
			return s || t
		})
		layers = append(layers, layer)
		remaining = rest
	}
	return layers, layerOf, nil
}

func stuckLayering(layer int, remaining []*graph.Node, edges []*graph.Edge) *InvariantError {
	err := &InvariantError{Layer: layer}
	for _, n := range remaining {
		err.Remaining = append(err.Remaining, n.ID)
	}
	for _, e := range edges {
		err.Edges = append(err.Edges, e.ID)
	}
	return err
}

// =============================================================================
// Phases 3-5: Placeholders, Ordering, Coordinates, Routing
// =============================================================================

// vertex is a layer entry: a child node or a placeholder (node == nil).
type vertex struct {
	node  *graph.Node
	layer int
	w, h  float64
	x, y  float64
}

// sugEdge connects vertices on adjacent layers once placeholders exist.
// Inverted edges point against their original direction.
type sugEdge struct {
	source, target int
	edge           *graph.Edge
	inverted       bool
}

// sugiyama holds the vertex arena for one invocation. Merged placeholders
// are not removed from the arena; redirect maps them to the kept one.
type sugiyama struct {
	vertices []vertex
	layers   [][]int
	edges    []sugEdge
	redirect []int
}

func newSugiyama(layers [][]*graph.Node, layerOf map[*graph.Node]int, edges []*graph.Edge) *sugiyama {
	sg := &sugiyama{layers: make([][]int, len(layers))}
	index := make(map[*graph.Node]int)
	for l, layer := range layers {
		for _, n := range layer {
			index[n] = sg.add(vertex{node: n, layer: l, w: n.Width, h: n.Height})
		}
	}
	for _, e := range edges {
		s, t := index[e.LiftedSource], index[e.LiftedTarget]
		if layerOf[e.LiftedSource] < layerOf[e.LiftedTarget] {
			sg.edges = append(sg.edges, sugEdge{source: s, target: t, edge: e})
		} else {
			sg.edges = append(sg.edges, sugEdge{source: t, target: s, edge: e, inverted: true})
		}
	}
	return sg
}

func (sg *sugiyama) add(v vertex) int {
	id := len(sg.vertices)
	sg.vertices = append(sg.vertices, v)
	sg.redirect = append(sg.redirect, id)
	sg.layers[v.layer] = append(sg.layers[v.layer], id)
	return id
}

func (sg *sugiyama) isDummy(v int) bool { return sg.vertices[v].node == nil }

// insertDummies splits every edge spanning more than one layer. New edge
// pieces are appended and revisited, so a long edge is cut one layer at a
// time.
func (sg *sugiyama) insertDummies() {
	for i := 0; i < len(sg.edges); i++ {
		e := sg.edges[i]
		from := sg.vertices[e.source].layer
		if sg.vertices[e.target].layer-from <= 1 {
			continue
		}
		d := sg.add(vertex{layer: from + 1})
		sg.edges = append(sg.edges, sugEdge{source: d, target: e.target, edge: e.edge, inverted: e.inverted})
		sg.edges[i].target = d
	}
}

// order runs the median heuristic and keeps the ordering with the fewest
// crossings seen, the initial one included.
func (sg *sugiyama) order() {
	preds := make([][]int, len(sg.vertices))
	for _, e := range sg.edges {
		preds[e.target] = append(preds[e.target], e.source)
	}

	best := cloneLayers(sg.layers)
	bestCrossings := sg.crossings()
	for range orderingPasses {
		for l := range sg.layers {
			sg.medianSort(l, preds)
		}
		if c := sg.crossings(); c < bestCrossings {
			best, bestCrossings = cloneLayers(sg.layers), c
		}
	}
	sg.layers = best
}

func (sg *sugiyama) medianSort(l int, preds [][]int) {
	layer := sg.layers[l]
	rank := map[int]int{}
	if l > 0 {
		for i, v := range sg.layers[l-1] {
			rank[v] = i
		}
	}

	keys := make(map[int]int, len(layer))
	for i, v := range layer {
		var ranks []int
		for _, p := range preds[v] {
			if r, ok := rank[p]; ok {
				ranks = append(ranks, r)
			}
		}
		if len(ranks) == 0 {
			keys[v] = i
			continue
		}
		slices.Sort(ranks)
		keys[v] = ranks[len(ranks)/2]
	}
	slices.SortStableFunc(layer, func(a, b int) int { return keys[a] - keys[b] })
}

// crossings counts edge crossings between all adjacent layer pairs as
// inversions of target positions, using a Fenwick tree.
func (sg *sugiyama) crossings() int {
	pos := make([]int, len(sg.vertices))
	for _, layer := range sg.layers {
		for i, v := range layer {
			pos[v] = i
		}
	}

	total := 0
	for l := 0; l+1 < len(sg.layers); l++ {
		type pair struct{ upper, lower int }
		var pairs []pair
		for _, e := range sg.edges {
			if sg.vertices[e.source].layer == l {
				pairs = append(pairs, pair{pos[e.source], pos[e.target]})
			}
		}
		if len(pairs) < 2 {
			continue
		}
		slices.SortFunc(pairs, func(a, b pair) int {
			if a.upper != b.upper {
				return a.upper - b.upper
			}
			return a.lower - b.lower
		})

		fenwick := make([]int, len(sg.layers[l+1])+1)
		seen := 0
		for _, p := range pairs {
			lessOrEqual := 0
			for q := p.lower + 1; q > 0; q -= q & (-q) {
				lessOrEqual += fenwick[q]
			}
			total += seen - lessOrEqual
			seen++
			for q := p.lower + 1; q < len(fenwick); q += q & (-q) {
				fenwick[q]++
			}
		}
	}
	return total
}

// mergeDummies removes every placeholder directly right of another
// placeholder and redirects it to the one kept.
func (sg *sugiyama) mergeDummies() {
	for l, layer := range sg.layers {
		merged := layer[:0]
		for _, v := range layer {
			if n := len(merged); n > 0 && sg.isDummy(v) && sg.isDummy(merged[n-1]) {
				sg.redirect[v] = merged[n-1]
				continue
			}
			merged = append(merged, v)
		}
		sg.layers[l] = merged
	}
}

func (sg *sugiyama) assignCoordinates(margin float64) {
	columns := 0
	for _, layer := range sg.layers {
		columns = max(columns, len(layer))
		var h float64
		for _, v := range layer {
			h = math.Max(h, sg.vertices[v].h)
		}
		for _, v := range layer {
			sg.vertices[v].h = h
		}
	}
	for c := range columns {
		var w float64
		for _, layer := range sg.layers {
			if c < len(layer) {
				w = math.Max(w, sg.vertices[layer[c]].w)
			}
		}
		for _, layer := range sg.layers {
			if c < len(layer) {
				sg.vertices[layer[c]].w = w
			}
		}
	}

	var curH float64
	for _, layer := range sg.layers {
		if len(layer) == 0 {
			continue
		}
		var curW float64
		for _, id := range layer {
			v := &sg.vertices[id]
			v.x = curW + v.w/2
			v.y = curH + v.h/2
			curW += v.w + margin
			if v.node != nil {
				v.node.Width, v.node.Height = v.w, v.h
				v.node.X, v.node.Y = v.x, v.y
			}
		}
		curH += sg.vertices[layer[0]].h + margin
	}
}

// route adds one waypoint per placeholder an edge passes through. Edge
// pieces are visited from the top layer down, so appending keeps source to
// target order for forward edges and prepending does for inverted ones.
func (sg *sugiyama) route(origin string) {
	for _, e := range sg.edges {
		if !sg.isDummy(e.target) {
			continue
		}
		d := sg.vertices[sg.redirect[e.target]]
		p := graph.RoutingPoint{X: d.x, Y: d.y, Origin: origin}
		if e.inverted {
			e.edge.Routing = slices.Insert(e.edge.Routing, 0, p)
		} else {
			e.edge.Routing = append(e.edge.Routing, p)
		}
	}
}

func cloneLayers(layers [][]int) [][]int {
	out := make([][]int, len(layers))
	for i, l := range layers {
		out[i] = slices.Clone(l)
	}
	return out
}
