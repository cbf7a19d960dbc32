package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/pipeline"
)

// convertFlags select the filters applied to raw containment input and the
// deepest level kept visible.
type convertFlags struct {
	opts  graph.ConvertOptions
	depth int
}

func (f *convertFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.opts.FilterPrimitives, "filter-primitives", false, "drop primitive and java.lang.* nodes from raw input")
	cmd.Flags().BoolVar(&f.opts.FilterAllEncompassing, "filter-encompassing", false, "unwrap single top-level nodes that contain everything")
	cmd.Flags().IntVar(&f.depth, "depth", -1, "collapse nodes deeper than this level into their ancestors (-1 keeps all)")
}

// collapse hides the nodes below --depth, lifting their edges.
func (f *convertFlags) collapse(g *graph.Graph) (*graph.Graph, error) {
	if f.depth < 0 {
		return g, nil
	}
	return g.Collapse(f.depth)
}

// load reads the input graph and applies the filters and --depth.
func (f *convertFlags) load(path string) (*graph.Graph, graph.ConvertStats, error) {
	g, stats, err := pipeline.Load(path, f.opts)
	if err != nil {
		return nil, stats, err
	}
	g, err = f.collapse(g)
	return g, stats, err
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		sf           settingsFlags
		cf           convertFlags
		output       string
		withMetrics  bool
		refresh      bool
		dumpSettings bool
	)

	cmd := &cobra.Command{
		Use:   "layout [input.json]",
		Short: "Compute a nested layout",
		Long: `Compute a nested layout for a graph file or raw containment input.

Every container is laid out bottom-up with the algorithm of its tier, edges
are routed through ports and the annotated graph is written as JSON
(default: <input>.layout.json). Results are cached, so re-running with the
same graph and settings is instant.

Use --dump-settings to print the effective settings as TOML, a good starting
point for a settings file.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if dumpSettings {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sf.resolve(cmd)
			if err != nil {
				return err
			}
			if dumpSettings {
				return s.EncodeTOML(cmd.OutOrStdout())
			}
			opts := pipeline.Options{Settings: s, Route: true, Metrics: withMetrics, Refresh: refresh, Logger: c.Logger}
			return c.runLayout(cmd.Context(), args[0], output, &cf, opts)
		},
	}

	sf.register(cmd)
	cf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "also score the layout and print the metrics")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().BoolVar(&dumpSettings, "dump-settings", false, "print the effective settings as TOML and exit")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, cf *convertFlags, opts pipeline.Options) error {
	g, stats, err := cf.load(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	logConvertStats(c, stats)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d nodes...", g.Len()))
	spinner.Start()

	res, err := runner.Layout(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = derivePath(input, ".layout.json")
	}
	if err := graph.WriteFileTo(res.File(), outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats.Nodes, res.Stats.Edges, res.CacheInfo.LayoutHit)
	if !res.CacheInfo.LayoutHit {
		printDetail("%s", invocationSummary(res.Stats.Invocations))
	}
	if res.Report != nil {
		printNewline()
		printTable(os.Stdout, []string{"Metric", "Value"}, reportRows(res.Report))
	}
	printNewline()
	printNextStep("Preview", appName+" export -f svg "+outputPath)

	return nil
}

func logConvertStats(c *CLI, st graph.ConvertStats) {
	if st == (graph.ConvertStats{}) {
		return
	}
	c.Logger.Info("converted raw input",
		"dropped_nodes", st.DroppedNodes,
		"dropped_edges", st.DroppedEdges,
		"demoted", st.Demoted,
		"unwrapped", st.Unwrapped)
}

// invocationSummary reports how often each tier's algorithm ran.
func invocationSummary(inv map[layout.Tier]int) string {
	var parts []string
	for _, t := range layout.Tiers {
		if n := inv[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d×", t, n))
		}
	}
	if len(parts) == 0 {
		return "no containers laid out"
	}
	return "layouts: " + strings.Join(parts, ", ")
}

// derivePath replaces the extension of input with suffix.
func derivePath(input, suffix string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".layout")
	return base + suffix
}
