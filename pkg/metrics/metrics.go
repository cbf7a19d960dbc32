package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/nestlayout/pkg/geom"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/route"
)

// Metric identifies one measurement in a [Report].
type Metric int

const (
	NodeOverlaps Metric = iota
	NodeOrthogonality
	NodeDensity
	TotalArea
	AspectRatio
	LineIntersections
	LengthDifference
	CrossingAngle
	UnrelatedOverlaps
)

// All lists every metric in report order.
var All = []Metric{
	NodeOverlaps,
	NodeOrthogonality,
	NodeDensity,
	TotalArea,
	AspectRatio,
	LineIntersections,
	LengthDifference,
	CrossingAngle,
	UnrelatedOverlaps,
}

var labels = [...]string{
	NodeOverlaps:      "Node overlaps",
	NodeOrthogonality: "Node orthogonality",
	NodeDensity:       "Avg node density std",
	TotalArea:         "Total area",
	AspectRatio:       "Aspect ratio",
	LineIntersections: "(Unrelated) Line intersections",
	LengthDifference:  "Avg. length difference",
	CrossingAngle:     "Avg. radial distance on intersections",
	UnrelatedOverlaps: "Lines overlapping unrelated nodes",
}

// Label is the human-readable name used in TSV and HTML output.
func (m Metric) Label() string {
	if m < 0 || int(m) >= len(labels) {
		return "unknown"
	}
	return labels[m]
}

// Engine scores a finished layout.
type Engine struct {
	// EdgeTypes selects the edges whose paths are measured. Nil means all.
	EdgeTypes graph.EdgeTypeSet
}

// NewEngine returns an engine measuring the metric edge types of s.
func NewEngine(s layout.Settings) *Engine {
	return &Engine{EdgeTypes: graph.NewEdgeTypeSet(s.MetricEdgeTypes...)}
}

// Run measures g, whose edges are drawn as in routes. The graph must be
// completely laid out.
//
// Values that have no data (no crossing for the average angle, no segment
// for the length difference, no container with three or more children for
// the density) are NaN.
func (e *Engine) Run(g *graph.Graph, routes route.Result) Report {
	nodes := g.Flatten()
	boxes := make(map[*graph.Node]r2.Box, len(nodes))
	for _, n := range nodes {
		boxes[n] = g.AbsBox(n)
	}

	values := make([]float64, len(All))
	values[NodeOverlaps] = float64(siblingOverlaps(g.Roots(), boxes))
	values[NodeOrthogonality] = float64(orthogonality(g, nodes, boxes))
	values[NodeDensity] = density(g.Roots())
	values[TotalArea], values[AspectRatio] = extent(g.Roots(), boxes)

	measured := e.measuredEdges(g)
	segs := uniqueSegments(measured, routes)
	values[LineIntersections], values[CrossingAngle] = crossings(segs)
	values[LengthDifference] = lengthDifference(segs)
	values[UnrelatedOverlaps] = float64(unrelatedOverlaps(g, measured, routes, nodes, boxes))

	report := make(Report, len(All))
	for i, m := range All {
		report[i] = Entry{Metric: m, Label: m.Label(), Value: values[m]}
	}
	return report
}

func (e *Engine) measuredEdges(g *graph.Graph) []*graph.Edge {
	return graph.FilterEdges(g.Edges(), e.EdgeTypes)
}

// siblingOverlaps counts touching or overlapping pairs among the members of
// every container, and among the top-level nodes. Each pair counts once.
func siblingOverlaps(nodes []*graph.Node, boxes map[*graph.Node]r2.Box) int {
	count := 0
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if geom.Overlaps(boxes[nodes[i]], boxes[nodes[j]]) {
				count++
			}
		}
	}
	for _, n := range nodes {
		count += siblingOverlaps(n.Members, boxes)
	}
	return count
}

// orthogonality counts, over all pairs of nodes where neither contains the
// other, each shared x centre and each shared y centre.
func orthogonality(g *graph.Graph, nodes []*graph.Node, boxes map[*graph.Node]r2.Box) int {
	count := 0
	for i := range nodes {
		ci := boxes[nodes[i]].Center()
		for j := i + 1; j < len(nodes); j++ {
			if g.IsAncestor(nodes[i], nodes[j]) || g.IsAncestor(nodes[j], nodes[i]) {
				continue
			}
			cj := boxes[nodes[j]].Center()
			if ci.X == cj.X {
				count++
			}
			if ci.Y == cj.Y {
				count++
			}
		}
	}
	return count
}

type weighted struct {
	std, weight float64
}

// density is the area-weighted mean, over every container with at least
// three children (and the top level), of the standard deviation of child
// counts in a ceil(√n)×ceil(√n) grid over the children's bounding box.
func density(roots []*graph.Node) float64 {
	var parts []weighted
	var visit func(nodes []*graph.Node)
	visit = func(nodes []*graph.Node) {
		if len(nodes) < 3 {
			return
		}
		if w, ok := gridDensity(nodes); ok {
			parts = append(parts, w)
		}
		for _, n := range nodes {
			visit(n.Members)
		}
	}
	visit(roots)

	var sum, total float64
	for _, p := range parts {
		sum += p.std * p.weight
		total += p.weight
	}
	if total == 0 {
		return math.NaN()
	}
	return sum / total
}

func gridDensity(nodes []*graph.Node) (weighted, bool) {
	local := make([]r2.Box, len(nodes))
	for i, n := range nodes {
		local[i] = geom.BoxAt(n.X, n.Y, n.Width, n.Height)
	}
	b, _ := geom.Bounds(local)
	w, h := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	if w <= 0 || h <= 0 {
		return weighted{}, false
	}

	k := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	cells := make([]float64, k*k)
	for _, n := range nodes {
		cx := min(int((n.X-b.Min.X)/(w/float64(k))), k-1)
		cy := min(int((n.Y-b.Min.Y)/(h/float64(k))), k-1)
		cells[cx*k+cy]++
	}
	return weighted{std: stat.StdDev(cells, nil), weight: w * h}, true
}

// extent returns the area and width/height ratio of the top-level bounding
// box.
func extent(roots []*graph.Node, boxes map[*graph.Node]r2.Box) (area, ratio float64) {
	all := make([]r2.Box, 0, len(roots))
	for _, r := range roots {
		all = append(all, boxes[r])
	}
	b, ok := geom.Bounds(all)
	if !ok {
		return 0, math.NaN()
	}
	w, h := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	return w * h, w / h
}

// uniqueSegments collects the drawn segments of edges, dropping zero-length
// pieces and segments already seen in either direction.
func uniqueSegments(edges []*graph.Edge, routes route.Result) []geom.Segment {
	type key [4]float64
	seen := map[key]bool{}
	var out []geom.Segment
	for _, e := range edges {
		for _, s := range routes.Segments(e.ID) {
			if s.Length() <= geom.Epsilon {
				continue
			}
			fwd := key{s.Start.X, s.Start.Y, s.End.X, s.End.Y}
			rev := key{s.End.X, s.End.Y, s.Start.X, s.Start.Y}
			if seen[fwd] || seen[rev] {
				continue
			}
			seen[fwd] = true
			out = append(out, s)
		}
	}
	return out
}

// crossings counts intersecting pairs of segments that do not share an
// endpoint, and their mean absolute crossing angle in degrees.
func crossings(segs []geom.Segment) (count, meanAngle float64) {
	var total float64
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			if segs[i].Contiguous(segs[j]) || !segs[i].Intersects(segs[j]) {
				continue
			}
			count++
			total += math.Abs(segs[i].Angle(segs[j]))
		}
	}
	if count == 0 {
		return 0, math.NaN()
	}
	return count, total / count
}

// lengthDifference is the mean absolute deviation of segment lengths.
func lengthDifference(segs []geom.Segment) float64 {
	if len(segs) == 0 {
		return math.NaN()
	}
	lengths := make([]float64, len(segs))
	for i, s := range segs {
		lengths[i] = s.Length()
	}
	mean := stat.Mean(lengths, nil)
	var dev float64
	for _, l := range lengths {
		dev += math.Abs(l - mean)
	}
	return dev / float64(len(lengths))
}

// unrelatedOverlaps counts (segment, node) pairs where the segment touches a
// node that is neither an endpoint of its edge nor contains one.
func unrelatedOverlaps(g *graph.Graph, edges []*graph.Edge, routes route.Result, nodes []*graph.Node, boxes map[*graph.Node]r2.Box) int {
	count := 0
	for _, e := range edges {
		src, dst := g.Node(e.Source), g.Node(e.Target)
		for _, s := range routes.Segments(e.ID) {
			for _, n := range nodes {
				if n == src || n == dst || g.IsAncestor(n, src) || g.IsAncestor(n, dst) {
					continue
				}
				if s.IntersectsBox(boxes[n]) {
					count++
				}
			}
		}
	}
	return count
}
