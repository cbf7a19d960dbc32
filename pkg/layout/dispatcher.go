package layout

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestlayout/pkg/graph"
)

// Func is the contract shared by every layout algorithm. It positions
// children relative to the parent's centre and, when parent is non-nil,
// sets the parent's width and height. Children must already be sized.
// A nil parent lays out top-level nodes.
type Func func(s TierSettings, children []*graph.Node, parent *graph.Node, g *graph.Graph) error

// Algorithms maps every algorithm name to its implementation.
var Algorithms = map[Algorithm]Func{
	LayerTree:    LayerTreeLayout,
	Circular:     CircularLayout,
	ForceBased:   ForceBasedLayout,
	StraightTree: StraightTreeLayout,
}

// Class is the role a node plays in the bottom-up pass.
type Class int

const (
	// ClassSimple nodes are leaves; they get the minimum node size.
	ClassSimple Class = iota
	// ClassInner nodes contain only leaves.
	ClassInner
	// ClassIntermediate nodes contain at least one composite.
	ClassIntermediate
	// ClassRoot nodes are composites at the outermost level.
	ClassRoot
)

func (c Class) String() string {
	switch c {
	case ClassSimple:
		return "simple"
	case ClassInner:
		return "inner"
	case ClassIntermediate:
		return "intermediate"
	case ClassRoot:
		return "root"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// Tier is the tier whose algorithm lays out the members of a node of this
// class. Outermost composites use the intermediate tier; the root tier
// arranges the top-level nodes themselves.
func (c Class) Tier() Tier {
	if c == ClassInner {
		return TierInner
	}
	return TierIntermediate
}

// Classify returns the class of n.
func Classify(n *graph.Node) Class {
	switch {
	case n.IsLeaf():
		return ClassSimple
	case n.Level == 0:
		return ClassRoot
	}
	for _, m := range n.Members {
		if !m.IsLeaf() {
			return ClassIntermediate
		}
	}
	return ClassInner
}

// Stats summarizes one dispatcher run.
type Stats struct {
	Invocations map[Tier]int
	Nodes       int
	Duration    time.Duration
}

// Dispatcher lays out a whole graph, one container at a time, children
// before parents.
type Dispatcher struct {
	Settings   Settings
	Logger     *log.Logger
	Algorithms map[Algorithm]Func
}

// NewDispatcher returns a dispatcher using the registered algorithms. A nil
// logger discards output.
func NewDispatcher(s Settings, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dispatcher{Settings: s, Logger: logger, Algorithms: Algorithms}
}

// Run annotates g with sizes, positions and routing waypoints.
//
// Leaves take the minimum node size and all routing is cleared. Then every
// composite is laid out in post-order with the algorithm of its class's
// tier, and finally the top-level nodes are arranged with the root tier
// algorithm and shifted so the drawing's top-left corner is at the origin.
//
// The context is checked before each algorithm invocation; a single
// invocation always runs to completion.
func (d *Dispatcher) Run(ctx context.Context, g *graph.Graph) (Stats, error) {
	if err := d.Settings.Validate(); err != nil {
		return Stats{}, err
	}
	start := time.Now()
	stats := Stats{Invocations: make(map[Tier]int), Nodes: g.Len()}

	for _, n := range g.Flatten() {
		if n.IsLeaf() {
			n.Width, n.Height = d.Settings.MinimumNodeSize, d.Settings.MinimumNodeSize
		}
		n.X, n.Y = 0, 0
	}
	g.ClearRouting()

	tiers := make(map[Tier]TierSettings, len(Tiers))
	for _, t := range Tiers {
		tiers[t] = d.Settings.ForTier(t)
	}

	var visit func(n *graph.Node) error
	visit = func(n *graph.Node) error {
		for _, m := range n.Members {
			if err := visit(m); err != nil {
				return err
			}
		}
		class := Classify(n)
		if class == ClassSimple {
			return nil
		}
		return d.invoke(ctx, tiers[class.Tier()], n.Members, n, g, &stats)
	}
	for _, r := range g.Roots() {
		if err := visit(r); err != nil {
			return stats, err
		}
	}
	if err := d.invoke(ctx, tiers[TierRoot], g.Roots(), nil, g, &stats); err != nil {
		return stats, err
	}

	top := topLevelEdges(g)
	w, h := Centerize(g.Roots(), top, "")
	Translate(g.Roots(), top, "", w/2, h/2)

	stats.Duration = time.Since(start)
	d.Logger.Debug("layout complete",
		"nodes", stats.Nodes,
		"inner", stats.Invocations[TierInner],
		"intermediate", stats.Invocations[TierIntermediate],
		"root", stats.Invocations[TierRoot],
		"duration", stats.Duration)
	return stats, nil
}

func (d *Dispatcher) invoke(ctx context.Context, s TierSettings, children []*graph.Node, parent *graph.Node, g *graph.Graph, stats *Stats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	algo := d.Settings.Layouts.Get(s.Tier)
	fn, ok := d.Algorithms[algo]
	if !ok {
		return fmt.Errorf("tier %s: unknown algorithm %q", s.Tier, algo)
	}

	name := "<root>"
	if parent != nil {
		name = parent.ID
	}
	d.Logger.Debug("laying out", "tier", s.Tier, "algorithm", algo, "parent", name, "children", len(children))

	if err := fn(s, children, parent, g); err != nil {
		return fmt.Errorf("layout %s (%s): %w", name, algo, err)
	}
	stats.Invocations[s.Tier]++
	return nil
}

// topLevelEdges returns the edges with routing points in the top-level frame.
func topLevelEdges(g *graph.Graph) []*graph.Edge {
	var out []*graph.Edge
	for _, e := range g.Edges() {
		for _, p := range e.Routing {
			if p.Origin == "" {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
