package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/metrics"
	"github.com/matzehuels/nestlayout/pkg/pipeline"
)

// metricsCommand creates the metrics command for scoring an existing layout.
func (c *CLI) metricsCommand() *cobra.Command {
	var (
		sf     settingsFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "metrics [input.layout.json]",
		Short: "Score an existing layout",
		Long: `Score a layout produced by 'layout' with the readability metrics:
node overlaps, orthogonality, density, area, aspect ratio, line
intersections, crossing angles, length differences and edges crossing
unrelated nodes.

Edges are re-routed with the given settings before scoring, so --no-ports
compares the same placement with and without ports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.resolve(cmd)
			if err != nil {
				return err
			}
			g, _, err := pipeline.Load(args[0], graph.ConvertOptions{})
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if err := pipeline.RequireLayout(g); err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			res, err := runner.Measure(cmd.Context(), g, s)
			if err != nil {
				return fmt.Errorf("measure: %w", err)
			}
			return writeReport(cmd.OutOrStdout(), res.Report, format)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, tsv, html, json")

	return cmd
}

// writeReport prints a metrics report in the requested format.
func writeReport(w io.Writer, r metrics.Report, format string) error {
	switch format {
	case "table":
		printTable(w, []string{"Metric", "Value"}, reportRows(r))
	case "tsv":
		_, err := io.WriteString(w, r.TSV())
		return err
	case "html":
		_, err := fmt.Fprintf(w, "<table>\n%s</table>\n", r.HTML())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return errors.New(errors.ErrCodeUnsupported, "unknown format %q (must be one of: table, tsv, html, json)", format)
	}
	return nil
}

func reportRows(r metrics.Report) [][]string {
	rows := make([][]string, len(r))
	for i, e := range r {
		rows[i] = []string{e.Label, formatMetric(e.Value)}
	}
	return rows
}

// formatMetric rounds to four decimals for display.
func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
