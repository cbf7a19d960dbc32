// Package render turns annotated layouts into images.
//
// The [nodelink] subpackage writes a Graphviz DOT description that pins
// every node to its computed position and renders it to SVG in process.
// [ToPDF] and [ToPNG] convert any SVG further with the external
// rsvg-convert tool (from librsvg):
//
//	dot := nodelink.ToDOT(g, routes, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/nestlayout/pkg/render/nodelink
package render
