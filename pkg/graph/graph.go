package graph

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/geom"
)

// =============================================================================
// Graph
// =============================================================================

// Graph owns a forest of nested nodes and the edges between them.
//
// The structure is fixed after [New]; layouts only write geometry
// (X, Y, Width, Height) and edge routing.
type Graph struct {
	roots    []*Node
	edges    []*Edge
	index    map[string]*Node
	maxDepth int
}

// New builds a graph from nested node specs and edges.
//
// It indexes every node, assigns levels (top-level nodes are level 0),
// resolves edge endpoints and computes lifted adjacency. Duplicate ids,
// unknown edge endpoints and invalid ids are rejected with
// INVALID_INPUT.
func New(nodes []NodeSpec, edges []EdgeSpec) (*Graph, error) {
	g := &Graph{index: make(map[string]*Node)}

	var build func(spec NodeSpec, parent string, level int) (*Node, error)
	build = func(spec NodeSpec, parent string, level int) (*Node, error) {
		if err := errors.ValidateNodeID(spec.ID); err != nil {
			return nil, err
		}
		if _, dup := g.index[spec.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", spec.ID)
		}
		n := &Node{ID: spec.ID, Level: level, parentID: parent}
		g.index[n.ID] = n
		g.maxDepth = max(g.maxDepth, level)
		for _, m := range spec.Members {
			child, err := build(m, n.ID, level+1)
			if err != nil {
				return nil, err
			}
			n.Members = append(n.Members, child)
		}
		return n, nil
	}

	for _, spec := range nodes {
		n, err := build(spec, "", 0)
		if err != nil {
			return nil, err
		}
		g.roots = append(g.roots, n)
	}

	for i, spec := range edges {
		src, ok := g.index[spec.Source]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "edge %q: unknown source %q", spec.ID, spec.Source)
		}
		dst, ok := g.index[spec.Target]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "edge %q: unknown target %q", spec.ID, spec.Target)
		}
		e := &Edge{
			ID:     spec.ID,
			Source: spec.Source,
			Target: spec.Target,
			Type:   spec.Type,
			Weight: spec.Weight,
		}
		if e.ID == "" {
			e.ID = fmt.Sprintf("e%d", i)
		}
		if e.Type == "" {
			e.Type = EdgeUnknown
		}
		if e.Weight == 0 {
			e.Weight = 1
		}
		src.Outgoing = append(src.Outgoing, e)
		dst.Incoming = append(dst.Incoming, e)
		g.edges = append(g.edges, e)
	}

	g.Lift()
	return g, nil
}

// Roots returns the top-level nodes in input order.
func (g *Graph) Roots() []*Node { return g.roots }

// Edges returns all edges in input order.
func (g *Graph) Edges() []*Edge { return g.edges }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node { return g.index[id] }

// Len returns the number of nodes at all depths.
func (g *Graph) Len() int { return len(g.index) }

// MaxDepth returns the deepest level present in the graph.
func (g *Graph) MaxDepth() int { return g.maxDepth }

// Parent returns the container of n, or nil for top-level nodes.
func (g *Graph) Parent(n *Node) *Node {
	if n == nil || n.parentID == "" {
		return nil
	}
	return g.index[n.parentID]
}

// Ancestors returns the containers of n from the innermost outwards.
func (g *Graph) Ancestors(n *Node) []*Node {
	var out []*Node
	for p := g.Parent(n); p != nil; p = g.Parent(p) {
		out = append(out, p)
	}
	return out
}

// IsAncestor reports whether a strictly contains b at any depth.
func (g *Graph) IsAncestor(a, b *Node) bool {
	for p := g.Parent(b); p != nil; p = g.Parent(p) {
		if p == a {
			return true
		}
	}
	return false
}

// Walk visits every node in pre-order. Returning false from fn skips the
// node's members.
func (g *Graph) Walk(fn func(n *Node) bool) {
	var visit func(n *Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, m := range n.Members {
			visit(m)
		}
	}
	for _, r := range g.roots {
		visit(r)
	}
}

// Flatten returns all nodes in pre-order.
func (g *Graph) Flatten() []*Node {
	out := make([]*Node, 0, len(g.index))
	g.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// =============================================================================
// Geometry
// =============================================================================

// AbsPosition returns the absolute centre of the node with the given id by
// summing the relative positions along its parent chain.
func (g *Graph) AbsPosition(id string) r2.Vec {
	var p r2.Vec
	for n := g.index[id]; n != nil; n = g.Parent(n) {
		p.X += n.X
		p.Y += n.Y
	}
	return p
}

// AbsBox returns the absolute bounding box of n.
func (g *Graph) AbsBox(n *Node) r2.Box {
	c := g.AbsPosition(n.ID)
	return geom.BoxAt(c.X, c.Y, n.Width, n.Height)
}

// AbsRoutingPoint converts a waypoint to absolute coordinates.
func (g *Graph) AbsRoutingPoint(p RoutingPoint) r2.Vec {
	o := r2.Vec{}
	if p.Origin != "" {
		o = g.AbsPosition(p.Origin)
	}
	return r2.Vec{X: o.X + p.X, Y: o.Y + p.Y}
}

// ClearRouting drops the waypoints of every edge.
func (g *Graph) ClearRouting() {
	for _, e := range g.edges {
		e.Routing = nil
	}
}

// Clone returns a deep copy with identical structure, geometry and routing.
func (g *Graph) Clone() *Graph {
	c, err := FromFile(g.ToFile())
	if err != nil {
		// The file was produced from a valid graph.
		panic(fmt.Sprintf("graph: clone: %v", err))
	}
	return c
}
