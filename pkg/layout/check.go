package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
)

// =============================================================================
// Diagnostic Errors
// =============================================================================

// PreconditionError reports a child that reached a layout without a usable
// size. Nothing has been moved when it is returned.
type PreconditionError struct {
	NodeID string
	Width  float64
	Height float64
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("node %s has no usable dimensions (%v x %v)", e.NodeID, e.Width, e.Height)
}

// Unwrap exposes the PRECONDITION_FAILED code.
func (e *PreconditionError) Unwrap() error {
	return errors.New(errors.ErrCodePrecondition, "layout precondition")
}

// InvariantError reports a layering pass that made no progress. Its fields
// describe the stuck state: the layer being built, the nodes still unplaced
// and the edges still among them.
type InvariantError struct {
	Layer     int
	Remaining []string
	Edges     []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("layering made no progress at layer %d: %d nodes remain [%s], edges [%s]",
		e.Layer, len(e.Remaining), strings.Join(e.Remaining, ", "), strings.Join(e.Edges, ", "))
}

// Unwrap exposes the INVARIANT_VIOLATION code.
func (e *InvariantError) Unwrap() error {
	return errors.New(errors.ErrCodeInvariant, "layering invariant")
}

// TreeError reports nodes that spanning-tree discovery did not reach.
type TreeError struct {
	Unreached []string
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("tree discovery left %d nodes unreached: %s", len(e.Unreached), strings.Join(e.Unreached, ", "))
}

// Unwrap exposes the TREE_INCOMPLETE code.
func (e *TreeError) Unwrap() error {
	return errors.New(errors.ErrCodeTreeIncomplete, "tree discovery")
}

// =============================================================================
// Shared Helpers
// =============================================================================

// Check returns a [PreconditionError] for the first child whose width or
// height is zero, negative, NaN or infinite.
func Check(children []*graph.Node) error {
	for _, n := range children {
		if !validDim(n.Width) || !validDim(n.Height) {
			return &PreconditionError{NodeID: n.ID, Width: n.Width, Height: n.Height}
		}
	}
	return nil
}

func validDim(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Centerize shifts children, and every routing point of edges whose origin
// is origin, so that their common bounding box is centred on (0, 0). It
// returns the size of that box.
func Centerize(children []*graph.Node, edges []*graph.Edge, origin string) (width, height float64) {
	if len(children) == 0 {
		return 0, 0
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range children {
		minX = math.Min(minX, n.X-n.Width/2)
		minY = math.Min(minY, n.Y-n.Height/2)
		maxX = math.Max(maxX, n.X+n.Width/2)
		maxY = math.Max(maxY, n.Y+n.Height/2)
	}
	for _, e := range edges {
		for _, p := range e.Routing {
			if p.Origin != origin {
				continue
			}
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}

	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	Translate(children, edges, origin, -cx, -cy)
	return maxX - minX, maxY - minY
}

// Translate moves children, and the routing points of edges that live in the
// frame of origin, by (dx, dy).
func Translate(children []*graph.Node, edges []*graph.Edge, origin string, dx, dy float64) {
	for _, n := range children {
		n.X += dx
		n.Y += dy
	}
	for _, e := range edges {
		for i := range e.Routing {
			if e.Routing[i].Origin == origin {
				e.Routing[i].X += dx
				e.Routing[i].Y += dy
			}
		}
	}
}

// fitParent sizes parent to a w×h content box plus padding on every side.
func fitParent(parent *graph.Node, w, h, padding float64) {
	if parent == nil {
		return
	}
	parent.Width = w + 2*padding
	parent.Height = h + 2*padding
}

// originOf is the routing origin for points placed inside parent.
func originOf(parent *graph.Node) string {
	if parent == nil {
		return ""
	}
	return parent.ID
}
