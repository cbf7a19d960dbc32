package graph

// Lift recomputes the lifted endpoints of every edge and the per-node
// lifted adjacency from scratch. Calling it twice yields the same result.
//
// An edge is lifted by walking both endpoints up to the same level and then
// up in lockstep until they share a container. When one endpoint contains
// the other both walks end on the same node and the edge becomes a lifted
// loop, which is left out of the lifted lists.
func (g *Graph) Lift() {
	for _, n := range g.index {
		n.IncomingLifted = nil
		n.OutgoingLifted = nil
	}
	for _, e := range g.edges {
		e.LiftedSource, e.LiftedTarget = g.liftPair(g.index[e.Source], g.index[e.Target])
		if e.IsLiftedLoop() {
			continue
		}
		e.LiftedSource.OutgoingLifted = append(e.LiftedSource.OutgoingLifted, e)
		e.LiftedTarget.IncomingLifted = append(e.LiftedTarget.IncomingLifted, e)
	}
}

func (g *Graph) liftPair(a, b *Node) (*Node, *Node) {
	for a.Level > b.Level {
		a = g.Parent(a)
	}
	for b.Level > a.Level {
		b = g.Parent(b)
	}
	for a != b && a.parentID != b.parentID {
		a, b = g.Parent(a), g.Parent(b)
	}
	return a, b
}

// LiftAt returns the endpoints of e as they appear when nothing deeper than
// depth is visible: each endpoint is replaced by its ancestor at that level
// if it lies deeper.
func (g *Graph) LiftAt(e *Edge, depth int) (source, target *Node) {
	up := func(n *Node) *Node {
		for n.Level > depth {
			n = g.Parent(n)
		}
		return n
	}
	return up(g.index[e.Source]), up(g.index[e.Target])
}

// Collapse returns a new graph that keeps only nodes at or above depth.
// Every edge is re-attached to its endpoints' visible ancestors via
// [Graph.LiftAt]; edges that end up inside a single collapsed node are
// dropped. A negative depth or one at least MaxDepth returns a clone.
// Geometry is not carried over.
func (g *Graph) Collapse(depth int) (*Graph, error) {
	if depth < 0 || depth >= g.maxDepth {
		return g.Clone(), nil
	}

	var spec func(n *Node) NodeSpec
	spec = func(n *Node) NodeSpec {
		s := NodeSpec{ID: n.ID}
		if n.Level < depth {
			for _, m := range n.Members {
				s.Members = append(s.Members, spec(m))
			}
		}
		return s
	}
	nodes := make([]NodeSpec, len(g.roots))
	for i, r := range g.roots {
		nodes[i] = spec(r)
	}

	var edges []EdgeSpec
	for _, e := range g.edges {
		src, dst := g.LiftAt(e, depth)
		if src == dst {
			continue
		}
		edges = append(edges, EdgeSpec{ID: e.ID, Source: src.ID, Target: dst.ID, Type: e.Type, Weight: e.Weight})
	}
	return New(nodes, edges)
}

// LiftedEdges returns the distinct non-loop lifted edges among nodes whose
// type is in types. A nil set accepts every type.
func LiftedEdges(nodes []*Node, types EdgeTypeSet) []*Edge {
	seen := make(map[*Edge]bool)
	var out []*Edge
	for _, n := range nodes {
		for _, e := range n.IncomingLifted {
			if seen[e] || (types != nil && !types.Has(e.Type)) {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// FilterEdges returns the edges of es whose type is in types. A nil set
// accepts every type.
func FilterEdges(es []*Edge, types EdgeTypeSet) []*Edge {
	var out []*Edge
	for _, e := range es {
		if types == nil || types.Has(e.Type) {
			out = append(out, e)
		}
	}
	return out
}
