package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/metrics"
	"github.com/matzehuels/nestlayout/pkg/pipeline"
	"github.com/matzehuels/nestlayout/pkg/store"
)

// batchCommand creates the batch command group.
func (c *CLI) batchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate settings grids and compare the results",
		Long: `Evaluate every combination of a settings grid against a dataset, store
the metrics of each run and compare the runs.

Runs are kept as JSON files in the data directory, or in MongoDB when
--mongo is set.`,
	}

	cmd.AddCommand(c.batchRunCommand())
	cmd.AddCommand(c.batchListCommand())
	cmd.AddCommand(c.batchShowCommand())
	cmd.AddCommand(c.batchCompareCommand())
	cmd.AddCommand(c.batchBrowseCommand())

	return cmd
}

// runFilterFlags are the selection flags shared by list, compare and browse.
type runFilterFlags struct {
	dataset string
	batch   string
	limit   int
	failed  bool
}

func (f *runFilterFlags) register(cmd *cobra.Command, withFailed bool) {
	cmd.Flags().StringVar(&f.dataset, "dataset", "", "only runs of this dataset")
	cmd.Flags().StringVar(&f.batch, "batch", "", "only runs of this batch id")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of runs (0 for all)")
	if withFailed {
		cmd.Flags().BoolVar(&f.failed, "failed", false, "include failed runs")
	}
}

func (f *runFilterFlags) filter() store.Filter {
	return store.Filter{Dataset: f.dataset, BatchID: f.batch, Limit: f.limit, IncludeFailed: f.failed}
}

func (c *CLI) batchRunCommand() *cobra.Command {
	var (
		cf      convertFlags
		grid    string
		dataset string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "run [input.json] --grid grid.toml",
		Short: "Evaluate a settings grid against one dataset",
		Long: `Evaluate a settings grid against one dataset.

The grid file holds the base settings and the values to combine:

  workers = 4

  [base]
  node_padding = 10.0

  [grid]
  inner = ["circular", "layerTree"]
  root = ["forceBased", "straightTree"]
  ports = [true, false]
  margins = [20.0, 40.0]

Every combination is laid out, routed and scored; failed layouts are stored
with their error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			spec, err := pipeline.LoadBatchSpec(grid)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				spec.Workers = workers
			}
			if dataset == "" {
				dataset = datasetName(args[0])
			}

			g, stats, err := cf.load(args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			logConvertStats(c, stats)
			return c.runBatch(ctx, g, dataset, spec)
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVarP(&grid, "grid", "g", "", "grid file (TOML)")
	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "dataset name (default: input file name)")
	cmd.Flags().IntVarP(&workers, "workers", "w", pipeline.DefaultWorkers, "parallel layouts")
	_ = cmd.MarkFlagRequired("grid")

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, g *graph.Graph, dataset string, spec pipeline.BatchSpec) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Evaluating %d settings on %s...", len(spec.Expand()), dataset))
	spinner.Start()
	runs, err := runner.Batch(ctx, g, dataset, spec)
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Evaluated %d settings", len(runs)))

	if err := pipeline.SaveRuns(ctx, st, runs); err != nil {
		return fmt.Errorf("save runs: %w", err)
	}

	failed := 0
	for _, r := range runs {
		if r.Failed {
			failed++
		}
	}
	printSuccess("Stored %d runs", len(runs))
	printKeyValue("Batch", runs[0].BatchID)
	printKeyValue("Dataset", dataset)
	if failed > 0 {
		printWarning("%d layouts failed", failed)
	}
	printNewline()
	printNextStep("Compare", appName+" batch compare --batch "+runs[0].BatchID)
	return nil
}

func (c *CLI) batchListCommand() *cobra.Command {
	var rf runFilterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := c.listRuns(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs stored")
				return nil
			}
			printTable(cmd.OutOrStdout(), runHeaders, runRows(runs))
			return nil
		},
	}

	rf.register(cmd, true)
	return cmd
}

func (c *CLI) batchShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the settings and metrics of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateRunID(args[0]); err != nil {
				return err
			}
			st, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == "toml" {
				return run.Settings.EncodeTOML(cmd.OutOrStdout())
			}

			printKeyValue("Run", run.ID)
			printKeyValue("Batch", run.BatchID)
			printKeyValue("Dataset", run.Dataset)
			printKeyValue("Settings", describeSettings(run.Settings))
			printKeyValue("Duration", run.Duration.String())
			if run.Failed {
				printWarning("layout failed: %s", run.Error)
				return nil
			}
			printNewline()
			return writeReport(cmd.OutOrStdout(), run.Metrics, "table")
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output: table, or toml to print only the settings")
	return cmd
}

func (c *CLI) batchCompareCommand() *cobra.Command {
	var (
		rf  runFilterFlags
		top int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Find the settings that rank best on every metric",
		Long: `Compare stored runs and print the settings that rank among the --top best
runs on every metric.

Metrics are first turned into "lower is better" scores (orthogonality and
crossing angle are negated, aspect ratios below one are inverted) and then
scaled per dataset so that the interquartile range maps onto [0, 1].`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := c.listRuns(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs stored")
				return nil
			}
			return writeComparison(cmd.OutOrStdout(), runs, top)
		},
	}

	rf.register(cmd, false)
	cmd.Flags().IntVarP(&top, "top", "n", 5, "rank threshold every metric has to meet")
	return cmd
}

func (c *CLI) batchBrowseCommand() *cobra.Command {
	var rf runFilterFlags

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse stored runs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := c.listRuns(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs stored")
				return nil
			}
			p := tea.NewProgram(NewRunListModel(runs), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	rf.register(cmd, true)
	return cmd
}

func (c *CLI) listRuns(ctx context.Context, f store.Filter) ([]store.Run, error) {
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.List(ctx, f)
}

// =============================================================================
// Formatting
// =============================================================================

var runHeaders = []string{"Run", "Dataset", "Settings", "Status", "Duration"}

func runRows(runs []store.Run) [][]string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		status := "ok"
		if r.Failed {
			status = "failed"
		}
		rows[i] = []string{shortID(r.ID), r.Dataset, describeSettings(r.Settings), status, r.Duration.Round(time.Millisecond).String()}
	}
	return rows
}

// writeComparison prints the runs whose settings rank among the top n on
// every metric.
func writeComparison(w io.Writer, runs []store.Run, top int) error {
	rows := make([]metrics.Row, 0, len(runs))
	bySettings := map[string]store.Run{}
	for _, r := range runs {
		if r.Failed {
			continue
		}
		rows = append(rows, r.Row())
		bySettings[r.SettingsHash] = r
	}

	scaling := metrics.DefaultScaling()
	best := metrics.TopN(metrics.Normalize(metrics.Transform(rows, scaling)), top, scaling)
	if len(best) == 0 {
		_, err := fmt.Fprintf(w, "No settings rank in the top %d on every metric.\n", top)
		return err
	}

	out := make([][]string, len(best))
	for i, id := range best {
		r := bySettings[id]
		out[i] = []string{shortID(id), describeSettings(r.Settings)}
		for _, m := range []metrics.Metric{metrics.NodeOverlaps, metrics.LineIntersections, metrics.TotalArea} {
			out[i] = append(out[i], formatMetric(r.Metrics.Get(m)))
		}
	}
	printTable(w, []string{"Settings", "Layouts", "Overlaps", "Crossings", "Area"}, out)
	return nil
}

// describeSettings summarizes the settings a grid varies.
func describeSettings(s layout.Settings) string {
	var b strings.Builder
	b.WriteString(string(s.Layouts.Inner))
	b.WriteString("/")
	b.WriteString(string(s.Layouts.Intermediate))
	b.WriteString("/")
	b.WriteString(string(s.Layouts.Root))
	if !s.ShowEdgePorts {
		b.WriteString(" no-ports")
	}
	if m := s.NodeMargin; m.Inner == m.Intermediate && m.Inner == m.Root {
		b.WriteString(" margin=" + strconv.FormatFloat(m.Inner, 'f', -1, 64))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// datasetName is the input file name without directory and extensions.
func datasetName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
