// Package route computes the drawn path of every edge in a laid out graph.
//
// Layouts store waypoints in the local frame of the container they were
// placed in (see graph.RoutingPoint). A [Router] resolves those to absolute
// coordinates and, when ports are enabled, threads each edge through one
// synthetic port per container boundary it crosses, so that all edges
// leaving a package share a single exit:
//
//	res := route.NewRouter(settings).Route(g)
//	for _, p := range res.Paths["e1"] {
//	    fmt.Println(p.X, p.Y)
//	}
//
// The [Result] is a separate presentation descriptor; the graph itself is
// not modified. [Result.Annotate] copies it into a serialized file.
package route
