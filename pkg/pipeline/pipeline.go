// Package pipeline runs the layout → route → metrics pipeline for nestlayout.
//
// The CLI, the HTTP API and the batch evaluator all go through a [Runner],
// so caching, logging and observability behave the same everywhere.
//
// # Stages
//
//  1. Layout: the [layout.Dispatcher] sizes and positions every node of a
//     copy of the input graph. The annotated copy is cached by graph and
//     settings hash.
//  2. Route: the [route.Router] turns waypoints into absolute render paths
//     and edge ports.
//  3. Metrics: the [metrics.Engine] scores the routed layout. Reports are
//     cached by layout hash.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Layout(ctx, g, pipeline.Options{
//	    Settings: layout.DefaultSettings(),
//	    Route:    true,
//	    Metrics:  true,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(res.Report.TSV())
//
// Annotated layouts read back from disk are scored with [Runner.Measure],
// and [Runner.Batch] evaluates a grid of settings against one graph.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/metrics"
	"github.com/matzehuels/nestlayout/pkg/route"
)

// Format constants for [Export].
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeUnsupported, "invalid format: %q (must be one of: json, dot, svg, pdf, png)", format)
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Settings drives the layout. A zero value means [layout.DefaultSettings].
	Settings layout.Settings `json:"settings"`

	// Route computes render paths and ports after the layout.
	Route bool `json:"route"`

	// Metrics scores the layout. It implies Route.
	Metrics bool `json:"metrics"`

	// Refresh bypasses cached entries (they are still written).
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults fills in defaults and validates the settings. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Settings.MinimumNodeSize == 0 && o.Settings.Layouts == (layout.PerTier[layout.Algorithm]{}) {
		o.Settings = layout.DefaultSettings()
	}
	if err := o.Settings.Validate(); err != nil {
		return err
	}
	if o.Metrics {
		o.Route = true
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result is the output of one pipeline run.
type Result struct {
	// Graph is the annotated copy; the caller's graph is never modified.
	Graph *graph.Graph

	// GraphHash is the structural hash of the input graph.
	GraphHash string

	// Routes is empty unless routing ran.
	Routes route.Result

	// Report is nil unless metrics ran.
	Report metrics.Report

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Nodes       int
	Edges       int
	Invocations map[layout.Tier]int
	LayoutTime  time.Duration
	RouteTime   time.Duration
	MetricsTime time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	LayoutHit  bool
	MetricsHit bool
}

// File returns the annotated layout in its serialized form, with render
// points and ports when routing ran.
func (r *Result) File() graph.File {
	f := r.Graph.ToFile()
	if r.Routes.Paths != nil {
		r.Routes.Annotate(&f)
	}
	return f
}

// Summary is a one-line description for logs.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d nodes, %d edges, layout %s", r.Stats.Nodes, r.Stats.Edges, r.Stats.LayoutTime.Round(time.Millisecond))
}
