package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/observability"
	"github.com/matzehuels/nestlayout/pkg/store"
)

// DefaultWorkers is the batch worker count when none is given.
const DefaultWorkers = 4

// Grid lists the values each varied setting takes. An empty dimension keeps
// the base value.
//
//	[grid]
//	inner = ["circular", "layerTree"]
//	root = ["forceBased", "straightTree"]
//	ports = [true, false]
//	margins = [20.0, 40.0]
type Grid struct {
	Inner        []layout.Algorithm `json:"inner" toml:"inner"`
	Intermediate []layout.Algorithm `json:"intermediate" toml:"intermediate"`
	Root         []layout.Algorithm `json:"root" toml:"root"`
	Ports        []bool             `json:"ports" toml:"ports"`
	Margins      []float64          `json:"margins" toml:"margins"`
}

// BatchSpec describes one batch evaluation.
type BatchSpec struct {
	// Base is the settings every combination starts from.
	Base    layout.Settings `json:"base" toml:"base"`
	Grid    Grid            `json:"grid" toml:"grid"`
	Workers int             `json:"workers" toml:"workers"`
}

// LoadBatchSpec reads a TOML batch file.
func LoadBatchSpec(path string) (BatchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BatchSpec{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "read batch spec")
	}
	return ParseBatchSpec(data)
}

// ParseBatchSpec decodes a TOML batch spec over the default base settings.
func ParseBatchSpec(data []byte) (BatchSpec, error) {
	spec := BatchSpec{Base: layout.DefaultSettings()}
	md, err := toml.Decode(string(data), &spec)
	if err != nil {
		return BatchSpec{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode batch spec")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return BatchSpec{}, errors.New(errors.ErrCodeInvalidSettings, "unknown batch key %q", undecoded[0].String())
	}
	if err := spec.Validate(); err != nil {
		return BatchSpec{}, err
	}
	return spec, nil
}

// Validate checks the base settings and every grid value.
func (s BatchSpec) Validate() error {
	if err := s.Base.Validate(); err != nil {
		return err
	}
	for _, dim := range [][]layout.Algorithm{s.Grid.Inner, s.Grid.Intermediate, s.Grid.Root} {
		for _, a := range dim {
			if !layout.IsAlgorithm(a) {
				return errors.New(errors.ErrCodeInvalidSettings, "grid: unknown algorithm %q", a)
			}
		}
	}
	for _, m := range s.Grid.Margins {
		if m < 0 {
			return errors.New(errors.ErrCodeInvalidSettings, "grid: negative margin %v", m)
		}
	}
	if s.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "workers must not be negative")
	}
	return nil
}

// Expand returns every combination of the grid applied to the base
// settings, inner layout varying slowest and margin fastest.
func (s BatchSpec) Expand() []layout.Settings {
	inner := orBase(s.Grid.Inner, s.Base.Layouts.Inner)
	intermediate := orBase(s.Grid.Intermediate, s.Base.Layouts.Intermediate)
	root := orBase(s.Grid.Root, s.Base.Layouts.Root)
	ports := orBase(s.Grid.Ports, s.Base.ShowEdgePorts)

	var out []layout.Settings
	for _, in := range inner {
		for _, mid := range intermediate {
			for _, r := range root {
				for _, p := range ports {
					base := s.Base
					base.Layouts = layout.PerTier[layout.Algorithm]{Inner: in, Intermediate: mid, Root: r}
					base.ShowEdgePorts = p
					if len(s.Grid.Margins) == 0 {
						out = append(out, cloneSettings(base))
						continue
					}
					for _, m := range s.Grid.Margins {
						c := cloneSettings(base)
						c.NodeMargin = layout.All(m)
						out = append(out, c)
					}
				}
			}
		}
	}
	return out
}

func orBase[T any](values []T, base T) []T {
	if len(values) == 0 {
		return []T{base}
	}
	return values
}

func cloneSettings(s layout.Settings) layout.Settings {
	s.LayoutEdgeTypes = append([]graph.EdgeType(nil), s.LayoutEdgeTypes...)
	s.MetricEdgeTypes = append([]graph.EdgeType(nil), s.MetricEdgeTypes...)
	return s
}

// Batch lays out and scores g once per combination of spec on a bounded
// worker pool. A failing layout is recorded in its run; only cancellation
// stops the batch. Runs are returned in [BatchSpec.Expand] order.
func (r *Runner) Batch(ctx context.Context, g *graph.Graph, dataset string, spec BatchSpec) ([]store.Run, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	combos := spec.Expand()
	workers := spec.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	batchID := uuid.NewString()
	graphHash := g.Hash()

	r.Logger.Info("starting batch",
		"batch", batchID,
		"dataset", dataset,
		"combinations", len(combos),
		"workers", workers)

	runs := make([]store.Run, len(combos))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, s := range combos {
		eg.Go(func() error {
			run, err := r.evaluate(ctx, g, s)
			if err != nil {
				return err
			}
			run.BatchID, run.Dataset, run.GraphHash = batchID, dataset, graphHash
			runs[i] = run
			observability.Pipeline().OnBatchRun(ctx, dataset, run.Failed, run.Duration)
			if run.Failed {
				r.Logger.Warn("layout failed", "settings", run.SettingsHash[:12], "err", run.Error)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// evaluate runs one combination. The returned error is non-nil only when
// ctx is done.
func (r *Runner) evaluate(ctx context.Context, g *graph.Graph, s layout.Settings) (store.Run, error) {
	if err := ctx.Err(); err != nil {
		return store.Run{}, err
	}
	start := time.Now()
	run := store.Run{
		ID:           uuid.NewString(),
		SettingsHash: s.Hash(),
		Settings:     s,
	}
	res, err := r.Layout(ctx, g, Options{Settings: s, Metrics: true, Logger: r.Logger})
	if err != nil {
		if ctx.Err() != nil {
			return store.Run{}, ctx.Err()
		}
		run.Failed = true
		run.Error = err.Error()
	} else {
		run.Metrics = res.Report
	}
	run.Duration = time.Since(start)
	run.CreatedAt = time.Now().UTC()
	return run, nil
}

// SaveRuns writes runs to st, stopping at the first error.
func SaveRuns(ctx context.Context, st store.Store, runs []store.Run) error {
	for _, run := range runs {
		if err := st.Save(ctx, run); err != nil {
			return err
		}
	}
	return nil
}
