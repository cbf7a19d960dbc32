package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/nestlayout/pkg/geom"
	"github.com/matzehuels/nestlayout/pkg/graph"
)

// circleOffset is added to the radius so small circles keep some room in
// the middle.
const circleOffset = 20.0

// CircularLayout places children on a circle. Each child owns an arc as long
// as its diagonal plus the margin, so neighbours cannot overlap.
//
// Children are ordered by lifted degree: nodes with more incoming than
// outgoing edges go first, nodes lacking either direction go last. The
// order is then split into even and odd positions and the odd half is
// appended reversed, which alternates placement around the circle.
//
// The parent is sized to twice the largest extent of any child on each
// axis, plus padding. Nothing is centred afterwards; the circle already is.
func CircularLayout(s TierSettings, children []*graph.Node, parent *graph.Node, _ *graph.Graph) error {
	if err := Check(children); err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	sorted := slices.Clone(children)
	slices.SortStableFunc(sorted, compareByDegree)

	var even, odd []*graph.Node
	for i, n := range sorted {
		if i%2 == 0 {
			even = append(even, n)
		} else {
			odd = append(odd, n)
		}
	}
	slices.Reverse(odd)
	order := append(even, odd...)

	var circumference float64
	for _, n := range order {
		circumference += geom.Diagonal(n.Width, n.Height) + s.NodeMargin
	}
	radius := circumference/(2*math.Pi) + circleOffset
	deltaAngle := 2 * math.Pi / circumference

	maxX, maxY := 0.5*s.MinimumNodeSize, 0.5*s.MinimumNodeSize
	var arc float64
	for _, n := range order {
		half := 0.5 * (geom.Diagonal(n.Width, n.Height) + s.NodeMargin)
		arc += half
		angle := deltaAngle * arc
		arc += half

		n.X = math.Sin(angle) * radius
		n.Y = math.Cos(angle) * radius
		maxX = math.Max(maxX, math.Abs(n.X)+0.5*n.Width)
		maxY = math.Max(maxY, math.Abs(n.Y)+0.5*n.Height)
	}

	fitParent(parent, 2*maxX, 2*maxY, s.NodePadding)
	return nil
}

// compareByDegree orders nodes with both incoming and outgoing lifted edges
// first, by ascending out-in balance, and the rest after them in input order.
func compareByDegree(a, b *graph.Node) int {
	if c := cmp.Compare(degreeBucket(a), degreeBucket(b)); c != 0 || degreeBucket(a) == 1 {
		return c
	}
	return cmp.Compare(len(a.OutgoingLifted)-len(a.IncomingLifted), len(b.OutgoingLifted)-len(b.IncomingLifted))
}

// degreeBucket is 0 for nodes with edges in both directions and 1 otherwise.
func degreeBucket(n *graph.Node) int {
	if len(n.IncomingLifted) == 0 || len(n.OutgoingLifted) == 0 {
		return 1
	}
	return 0
}
