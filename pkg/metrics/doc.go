// Package metrics scores a finished nested layout.
//
// An [Engine] reads the absolute geometry of every node and the routed path
// of every edge (see the route package) and returns a [Report]: an ordered
// list of labelled values covering node overlaps, orthogonal alignment,
// density, area, aspect ratio, edge crossings, segment length spread and
// edges running across unrelated nodes. The metrics are descriptive; none
// of them has a pass threshold.
//
// Values without data (for example the mean crossing angle of a drawing
// without crossings) are NaN. They print as "n/a" and encode as JSON null.
//
// # Comparing layouts
//
// [Transform], [Normalize] and [TopN] compare reports of many settings
// combinations: Transform makes lower better for every metric according to
// a [Scaling], Normalize maps each metric of a dataset onto its
// interquartile range, and TopN keeps the combinations that rank in the
// best n of every metric.
package metrics
