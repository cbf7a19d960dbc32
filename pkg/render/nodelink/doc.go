// Package nodelink previews an annotated layout as a Graphviz drawing.
//
// # Overview
//
// [ToDOT] writes the laid out graph as DOT source in which every node is
// pinned (pos="x,y!") to its absolute centre and sized to its computed
// width and height. Containers are drawn before their members, so members
// appear on top. Edges carry their render points as spline positions, and
// container ports are drawn as small filled squares.
//
// # Rendering
//
// [RenderSVG] lays the DOT source out with the neato engine, which keeps
// pinned positions, and renders it in process:
//
//	dot := nodelink.ToDOT(g, routes, nodelink.Options{ShowPorts: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools (neato -n2 keeps both node and edge positions).
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
