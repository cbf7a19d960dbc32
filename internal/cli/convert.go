package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/graph"
)

// convertCommand creates the convert command for raw containment input.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		cf     convertFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "convert [raw.json]",
		Short: "Convert a property-graph dump into a graph file",
		Long: `Convert a property-graph dump ({"elements": {"nodes": [...], "edges": [...]}})
into a nested graph file.

"contains" edges become the member hierarchy. A node with a second container
keeps the first one; the other containment turns into a plain edge. Nodes
caught in containment cycles and edges with missing endpoints are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := graph.ReadRawInputFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			g, stats, err := graph.Convert(raw, cf.opts)
			if err != nil {
				return fmt.Errorf("convert: %w", err)
			}
			logConvertStats(c, stats)
			if g, err = cf.collapse(g); err != nil {
				return fmt.Errorf("collapse: %w", err)
			}

			outputPath := output
			if outputPath == "" {
				outputPath = derivePath(args[0], ".graph.json")
			}
			if err := graph.WriteGraphFile(g, outputPath); err != nil {
				return fmt.Errorf("write output %s: %w", outputPath, err)
			}

			printSuccess("Converted %d nodes", g.Len())
			printFile(outputPath)
			if stats.DroppedNodes > 0 || stats.DroppedEdges > 0 {
				printWarning("dropped %d nodes and %d edges", stats.DroppedNodes, stats.DroppedEdges)
			}
			printNewline()
			printNextStep("Lay out", appName+" layout "+outputPath)
			return nil
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")

	return cmd
}
