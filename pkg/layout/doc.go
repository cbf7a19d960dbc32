// Package layout computes positions and sizes for a nested graph, one
// container at a time.
//
// # Overview
//
// Every layout algorithm has the same shape ([Func]): it receives the
// already sized children of one container, positions them relative to the
// container's centre and sets the container's own size to the padded
// bounding box of its children. Because an algorithm only ever sees direct
// children, it works on lifted edges (see the graph package), whose
// endpoints are always siblings.
//
// # Algorithms
//
// Four algorithms are registered in [Algorithms]:
//
//   - [CircularLayout]: children on a circle, overlap free by construction
//   - [ForceBasedLayout]: a fixed 300-tick physics simulation with
//     repulsion, collision, centering and link forces
//   - [LayerTreeLayout]: a Sugiyama-style layered drawing with placeholder
//     nodes for long edges and optional waypoint routing
//   - [StraightTreeLayout]: a planar straight-line drawing of a spanning tree
//
// # Dispatching
//
// A [Dispatcher] walks the containment tree in post-order. Nodes are
// classified by [Classify] into simple, inner, intermediate and root; inner
// containers are laid out with the inner tier's algorithm, everything else
// with the intermediate tier's, and the top-level nodes with the root
// tier's. Per-tier algorithm choice, margins and force parameters live in
// [Settings], which loads from TOML or JSON:
//
//	s, err := layout.LoadSettingsFile("settings.toml")
//	if err != nil {
//	    return err
//	}
//	stats, err := layout.NewDispatcher(s, logger).Run(ctx, g)
//
// # Errors
//
// Algorithms reject children without a finite positive size with a
// [PreconditionError] before moving anything. The layered layout reports a
// stuck layering pass as an [InvariantError] and the straight tree reports
// unreached nodes as a [TreeError]. All three unwrap to coded errors from
// the errors package.
package layout
