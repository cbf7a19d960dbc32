package route

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nestlayout/pkg/geom"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
)

// Direction tells whether edges leave or enter a container through a port.
type Direction string

const (
	Out Direction = "out"
	In  Direction = "in"
)

// Port is the shared crossing point of all edges leaving (or entering) one
// container. Center is absolute.
type Port struct {
	NodeID    string
	Direction Direction
	Center    r2.Vec
	Size      float64
	Types     []graph.EdgeType
}

// Box returns the port's absolute square.
func (p Port) Box() r2.Box { return geom.BoxAt(p.Center.X, p.Center.Y, p.Size, p.Size) }

// Result is the presentation of one routed layout. It is computed fresh
// for every call and never stored on the graph.
type Result struct {
	// Paths maps edge ids to absolute polylines from source to target centre.
	Paths map[string][]r2.Vec
	// Ports maps container ids to their ports, out before in.
	Ports map[string][]Port
}

// Segments returns the polyline of the edge as segments.
func (r Result) Segments(edgeID string) []geom.Segment {
	path := r.Paths[edgeID]
	if len(path) < 2 {
		return nil
	}
	out := make([]geom.Segment, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		out = append(out, geom.Segment{Start: path[i-1], End: path[i]})
	}
	return out
}

// Annotate copies render points and ports into f, matching by id.
func (r Result) Annotate(f *graph.File) {
	for i := range f.Edges {
		path := r.Paths[f.Edges[i].ID]
		f.Edges[i].RenderPoints = nil
		for _, p := range path {
			f.Edges[i].RenderPoints = append(f.Edges[i].RenderPoints, graph.FilePoint{X: p.X, Y: p.Y})
		}
	}

	var visit func(nodes []graph.FileNode)
	visit = func(nodes []graph.FileNode) {
		for i := range nodes {
			nodes[i].Ports = nil
			for _, p := range r.Ports[nodes[i].ID] {
				nodes[i].Ports = append(nodes[i].Ports, graph.FilePort{
					Direction: string(p.Direction),
					X:         p.Center.X,
					Y:         p.Center.Y,
					Width:     p.Size,
					Height:    p.Size,
					Types:     slices.Clone(p.Types),
				})
			}
			visit(nodes[i].Members)
		}
	}
	visit(f.Nodes)
}

// Router turns layout waypoints into absolute render paths.
type Router struct {
	// ShowPorts routes edges through one port per container they cross.
	ShowPorts bool
	PortSize  float64
}

// NewRouter configures a router from layout settings.
func NewRouter(s layout.Settings) *Router {
	return &Router{ShowPorts: s.ShowEdgePorts, PortSize: s.PortSize}
}

type portKey struct {
	node string
	dir  Direction
}

// crossing lists the containers an edge leaves, innermost first, and the
// containers it enters, outermost first.
type crossing struct {
	exits, entries []*graph.Node
}

// Route computes paths for every edge of a laid out graph.
//
// Each path runs from the source centre through the exit ports of every
// container the edge leaves (innermost first), then its layout waypoints,
// then the entry ports of every container it enters (outermost first), and
// ends at the target centre. An edge leaves the containers of its source
// that do not also contain the target, and the reverse for entries; the
// endpoints themselves never get ports.
//
// A port sits where the ray from its container's centre towards the mean
// far endpoint of its edges crosses the container boundary.
func (r *Router) Route(g *graph.Graph) Result {
	res := Result{Paths: make(map[string][]r2.Vec), Ports: make(map[string][]Port)}

	crossings := make(map[*graph.Edge]crossing, len(g.Edges()))
	type accum struct {
		sum   r2.Vec
		count int
		types []graph.EdgeType
	}
	var order []portKey
	acc := map[portKey]*accum{}
	add := func(n *graph.Node, dir Direction, far r2.Vec, t graph.EdgeType) {
		k := portKey{n.ID, dir}
		a, ok := acc[k]
		if !ok {
			a = &accum{}
			acc[k] = a
			order = append(order, k)
		}
		a.sum = r2.Add(a.sum, far)
		a.count++
		if !slices.Contains(a.types, t) {
			a.types = append(a.types, t)
		}
	}

	if r.ShowPorts {
		for _, e := range g.Edges() {
			src, dst := g.Node(e.Source), g.Node(e.Target)
			c := crossingOf(g, src, dst)
			crossings[e] = c
			for _, n := range c.exits {
				add(n, Out, g.AbsPosition(dst.ID), e.Type)
			}
			for _, n := range c.entries {
				add(n, In, g.AbsPosition(src.ID), e.Type)
			}
		}
	}

	ports := make(map[portKey]Port, len(order))
	for _, k := range order {
		a := acc[k]
		box := g.AbsBox(g.Node(k.node))
		mean := r2.Scale(1/float64(a.count), a.sum)
		p := Port{
			NodeID:    k.node,
			Direction: k.dir,
			Center:    geom.ExitPoint(box, r2.Sub(mean, box.Center())),
			Size:      r.PortSize,
			Types:     a.types,
		}
		ports[k] = p
		res.Ports[k.node] = append(res.Ports[k.node], p)
	}
	for id := range res.Ports {
		slices.SortStableFunc(res.Ports[id], func(a, b Port) int {
			switch {
			case a.Direction == b.Direction:
				return 0
			case a.Direction == Out:
				return -1
			}
			return 1
		})
	}

	for _, e := range g.Edges() {
		path := []r2.Vec{g.AbsPosition(e.Source)}
		c := crossings[e]
		for _, n := range c.exits {
			path = append(path, ports[portKey{n.ID, Out}].Center)
		}
		for _, p := range e.Routing {
			path = append(path, g.AbsRoutingPoint(p))
		}
		for _, n := range c.entries {
			path = append(path, ports[portKey{n.ID, In}].Center)
		}
		path = append(path, g.AbsPosition(e.Target))
		res.Paths[e.ID] = path
	}
	return res
}

func crossingOf(g *graph.Graph, src, dst *graph.Node) crossing {
	var c crossing
	for _, a := range g.Ancestors(src) {
		if a != dst && !g.IsAncestor(a, dst) {
			c.exits = append(c.exits, a)
		}
	}
	for _, a := range g.Ancestors(dst) {
		if a != src && !g.IsAncestor(a, src) {
			c.entries = append(c.entries, a)
		}
	}
	slices.Reverse(c.entries)
	return c
}
