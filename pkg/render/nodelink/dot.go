package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/route"
)

// pointsPerInch converts layout units (points) to Graphviz sizes.
const pointsPerInch = 72.0

// Options configures the preview.
type Options struct {
	// Detailed adds the computed size to every label.
	Detailed bool
	// ShowPorts draws container ports.
	ShowPorts bool
}

// ToDOT converts an annotated layout to Graphviz DOT. routes may be empty,
// in which case edges have no positions.
func ToDOT(g *graph.Graph, routes route.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  outputorder=nodesfirst;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, fontsize=10];\n")
	buf.WriteString("  edge [arrowsize=0.5];\n")
	buf.WriteString("\n")

	g.Walk(func(n *graph.Node) bool {
		c := g.AbsPosition(n.ID)
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("pos=\"%s!\"", fmtPoint(c)),
			fmt.Sprintf("width=%s", fmtFloat(n.Width/pointsPerInch)),
			fmt.Sprintf("height=%s", fmtFloat(n.Height/pointsPerInch)),
		}
		if !n.IsLeaf() {
			attrs = append(attrs, "labelloc=t", "fillcolor=\"#f4f4f4\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
		return true
	})

	if opts.ShowPorts {
		buf.WriteString("\n")
		g.Walk(func(n *graph.Node) bool {
			for _, p := range routes.Ports[n.ID] {
				fmt.Fprintf(&buf, "  %q [label=\"\", shape=square, style=filled, fillcolor=black, pos=\"%s!\", width=%s, height=%s];\n",
					portID(p), fmtPoint(p.Center), fmtFloat(p.Size/pointsPerInch), fmtFloat(p.Size/pointsPerInch))
			}
			return true
		})
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := []string{fmt.Sprintf("class=%q", string(e.Type))}
		if pts := routes.Paths[e.ID]; len(pts) >= 2 {
			attrs = append(attrs, fmt.Sprintf("pos=%q", fmtSpline(pts)))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *graph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	return fmt.Sprintf("%s\n%s×%s", n.ID, fmtFloat(n.Width), fmtFloat(n.Height))
}

func portID(p route.Port) string {
	return "port:" + p.NodeID + ":" + string(p.Direction)
}

// fmtPoint flips y: Graphviz grows upwards.
func fmtPoint(p r2.Vec) string {
	return fmtFloat(p.X) + "," + fmtFloat(0-p.Y)
}

// fmtSpline encodes a polyline as a piecewise cubic B-spline whose control
// points sit on the segment ends, so every piece is straight.
func fmtSpline(pts []r2.Vec) string {
	parts := []string{"e," + fmtPoint(pts[len(pts)-1]), fmtPoint(pts[0])}
	for i := 1; i < len(pts); i++ {
		parts = append(parts, fmtPoint(pts[i-1]), fmtPoint(pts[i]), fmtPoint(pts[i]))
	}
	return strings.Join(parts, " ")
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG lays out DOT source with neato and renders it to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed pt dimensions so the SVG scales
// with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
