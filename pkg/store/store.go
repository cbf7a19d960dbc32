// Package store persists batch evaluation runs.
//
// A [Run] records one settings combination evaluated against one dataset:
// the settings, their hash and the resulting metrics report (or the error
// that stopped the layout). Runs are written by the batch evaluator and read
// back by the comparison and browse commands and by the HTTP API.
//
// Two backends implement [Store]:
//   - [FileStore]: one JSON document per run under a directory
//   - [MongoStore]: a MongoDB collection keyed by run id
package store

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/metrics"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Run is one evaluated settings combination.
type Run struct {
	ID           string          `json:"id" bson:"_id"`
	BatchID      string          `json:"batch_id" bson:"batch_id"`
	Dataset      string          `json:"dataset" bson:"dataset"`
	GraphHash    string          `json:"graph_hash" bson:"graph_hash"`
	SettingsHash string          `json:"settings_hash" bson:"settings_hash"`
	Settings     layout.Settings `json:"settings" bson:"settings"`
	Metrics      metrics.Report  `json:"metrics,omitempty" bson:"metrics,omitempty"`
	Failed       bool            `json:"failed" bson:"failed"`
	Error        string          `json:"error,omitempty" bson:"error,omitempty"`
	Duration     time.Duration   `json:"duration" bson:"duration"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
}

// Row returns the run as a comparison row keyed by settings hash.
func (r Run) Row() metrics.Row {
	return metrics.RowOf(r.SettingsHash, r.Dataset, r.Metrics)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Dataset string
	BatchID string
	// Limit caps the number of runs returned; 0 means no limit.
	Limit int
	// IncludeFailed also returns runs whose layout failed.
	IncludeFailed bool
}

func (f Filter) match(r Run) bool {
	switch {
	case f.Dataset != "" && r.Dataset != f.Dataset:
		return false
	case f.BatchID != "" && r.BatchID != f.BatchID:
		return false
	case r.Failed && !f.IncludeFailed:
		return false
	}
	return true
}

// Store saves and retrieves runs. Implementations are safe for concurrent
// use.
type Store interface {
	// Save inserts or replaces a run.
	Save(ctx context.Context, run Run) error

	// Get returns the run with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (Run, error)

	// List returns matching runs, newest first.
	List(ctx context.Context, f Filter) ([]Run, error)

	// Close releases the backend.
	Close() error
}
