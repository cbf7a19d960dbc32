// Package graph provides the nested graph model used by every layout stage.
//
// # Model
//
// A [Graph] owns a forest of [Node] values. Each node owns its Members; the
// parent is kept as an id and resolved through [Graph.Parent], so the
// containment tree has a single owner per node and no reference cycles.
// Edges connect nodes at any depth and carry a type tag and a weight.
//
// # Lifting
//
// Layout algorithms only ever look at the direct children of one container.
// An edge between two deeply nested nodes is therefore "lifted": each
// endpoint is replaced by its ancestor-or-self that is a sibling of the other
// endpoint's ancestor-or-self. The lifted endpoints live on the edge
// (LiftedSource, LiftedTarget) and in the per-node IncomingLifted and
// OutgoingLifted lists:
//
//	a ─┬─ a1 ──┐
//	   └─ a2   │  edge a1 → b1 lifts to a → b
//	b ─── b1 <─┘
//
// Edges whose lifted endpoints coincide, such as an edge from a node into
// its own descendant, are lifted loops and never appear in the lifted lists.
// [Graph.Lift] recomputes everything from scratch and is idempotent.
//
// # Serialization
//
// [File] is the JSON and BSON form. Input graphs need only ids, nested
// members and edges:
//
//	{
//	  "nodes": [{"id": "app", "members": [{"id": "app.Main"}, {"id": "app.Util"}]}],
//	  "edges": [{"id": "e1", "source": "app.Main", "target": "app.Util", "type": "constructs"}]
//	}
//
// Laid-out graphs use the same format with width, height, x, y and routing
// filled in.
//
//	g, _ := graph.ReadGraphFile("input.json")
//	graph.WriteGraphFile(g, "layout.json")
//
// # Conversion
//
// [Convert] reads property-graph dumps in which nesting is expressed by
// "contains" edges and builds the nested form, optionally filtering
// language primitives and all-encompassing wrapper nodes.
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Use [Graph.Clone] to give each
// goroutine its own copy.
package graph
