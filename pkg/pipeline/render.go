package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/render"
	"github.com/matzehuels/nestlayout/pkg/render/nodelink"
)

// ExportOptions tunes [Export].
type ExportOptions struct {
	// Detailed labels nodes with their size and position.
	Detailed bool
	// Scale is the PNG resolution factor; 0 means 2.
	Scale float64
}

// Export renders a pipeline result in the given format. JSON is the
// annotated layout file; the other formats are Graphviz previews.
func Export(ctx context.Context, res *Result, format string, opts ExportOptions) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	if format == FormatJSON {
		return graph.MarshalFile(res.File())
	}

	dot := nodelink.ToDOT(res.Graph, res.Routes, nodelink.Options{
		Detailed:  opts.Detailed,
		ShowPorts: len(res.Routes.Ports) > 0,
	})
	if format == FormatDOT {
		return []byte(dot), nil
	}

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	switch format {
	case FormatPDF:
		return render.ToPDF(ctx, svg)
	case FormatPNG:
		scale := opts.Scale
		if scale == 0 {
			scale = 2
		}
		return render.ToPNG(ctx, svg, scale)
	}
	return svg, nil
}

// ExportAll renders every format in formats, keyed by format.
func ExportAll(ctx context.Context, res *Result, formats []string, opts ExportOptions) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	for _, f := range formats {
		data, err := Export(ctx, res, f, opts)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", f, err)
		}
		out[f] = data
	}
	return out, nil
}
