// Package cli implements the nestlayout command-line interface.
//
// The CLI wraps the pipeline package: it reads graphs or raw containment
// input, computes tiered layouts, routes edges, scores the result and
// exports it. Layouts are cached on disk (or in Redis) and batch runs are
// stored as JSON files (or in MongoDB). The CLI is built using cobra and
// logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - layout: Compute an annotated layout from a graph or raw input
//   - metrics: Score an existing layout
//   - convert: Turn raw containment input into a graph file
//   - export: Write DOT, SVG, PDF or PNG previews of a layout
//   - batch: Evaluate settings grids, compare and browse stored runs
//   - serve: Run the HTTP API
//   - cache: Manage the layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// surfaces the pipeline, cache and HTTP hooks.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Evaluated 16 settings (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
