package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/pipeline"
)

// exportCommand creates the export command for previews of a layout.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		sf       settingsFlags
		cf       convertFlags
		formats  string
		output   string
		detailed bool
		scale    float64
	)

	cmd := &cobra.Command{
		Use:   "export [input.json]",
		Short: "Export a layout as DOT, SVG, PDF, PNG or JSON",
		Long: `Export a layout as a Graphviz drawing with pinned node positions.

The input is either a layout file written by 'layout' or a graph that has not
been laid out yet, in which case it is laid out first. SVG is rendered with
Graphviz; PDF and PNG need rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			list := parseFormats(formats)
			for _, f := range list {
				if err := pipeline.ValidateFormat(f); err != nil {
					return err
				}
			}
			if output != "" && len(list) > 1 {
				return fmt.Errorf("--output needs a single format, got %d", len(list))
			}

			s, err := sf.resolve(cmd)
			if err != nil {
				return err
			}
			g, stats, err := cf.load(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			logConvertStats(c, stats)

			runner, err := c.newRunner(ctx)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			var res *pipeline.Result
			if pipeline.RequireLayout(g) == nil {
				res = runner.Reroute(g, s)
			} else {
				c.Logger.Info("input has no layout, computing one", "nodes", g.Len())
				if res, err = runner.Layout(ctx, g, pipeline.Options{Settings: s, Route: true, Logger: c.Logger}); err != nil {
					return fmt.Errorf("compute layout: %w", err)
				}
			}

			spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(list, ", ")+"...")
			spinner.Start()
			out, err := pipeline.ExportAll(ctx, res, list, pipeline.ExportOptions{Detailed: detailed, Scale: scale})
			if err != nil {
				spinner.StopWithError("Export failed")
				return err
			}
			spinner.Stop()

			printSuccess("Exported %d nodes", res.Stats.Nodes)
			for _, f := range list {
				path := output
				if path == "" {
					path = exportPath(args[0], f)
				}
				if err := os.WriteFile(path, out[f], 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				printFile(path)
			}
			return nil
		},
	}

	sf.register(cmd)
	cf.register(cmd)
	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatSVG, "comma-separated formats: json, dot, svg, pdf, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>, <input>.export.json for json)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with their size and position")
	cmd.Flags().Float64Var(&scale, "scale", 2, "PNG resolution factor")

	return cmd
}

// exportPath derives the output file for format f. JSON gets its own suffix
// so the input layout is never overwritten.
func exportPath(input, f string) string {
	if f == pipeline.FormatJSON {
		return derivePath(input, ".export.json")
	}
	return derivePath(input, "."+f)
}

// parseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{pipeline.FormatSVG}
	}
	return out
}
