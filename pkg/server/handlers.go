package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nestlayout/pkg/buildinfo"
	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/metrics"
	"github.com/matzehuels/nestlayout/pkg/pipeline"
	"github.com/matzehuels/nestlayout/pkg/store"
)

// maxRunsLimit caps ?limit= on /v1/runs.
const maxRunsLimit = 1000

type layoutRequest struct {
	// Graph is a graph file or a raw property-graph dump.
	Graph json.RawMessage `json:"graph"`

	// Settings is merged over the defaults.
	Settings json.RawMessage      `json:"settings,omitempty"`
	Convert  graph.ConvertOptions `json:"convert"`
	Metrics  *bool                `json:"metrics,omitempty"`

	// Depth, when set, collapses nodes below that level first.
	Depth *int `json:"depth,omitempty"`
}

type layoutResponse struct {
	Layout       graph.File     `json:"layout"`
	Metrics      metrics.Report `json:"metrics,omitempty"`
	GraphHash    string         `json:"graph_hash"`
	SettingsHash string         `json:"settings_hash"`
	Stats        statsResponse  `json:"stats"`
}

type statsResponse struct {
	Nodes      int     `json:"nodes"`
	Edges      int     `json:"edges"`
	LayoutMS   float64 `json:"layout_ms"`
	MetricsMS  float64 `json:"metrics_ms"`
	LayoutHit  bool    `json:"layout_cached"`
	MetricsHit bool    `json:"metrics_cached"`
}

func millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
	return nil
}

func parseSettings(raw json.RawMessage) (layout.Settings, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return layout.DefaultSettings(), nil
	}
	return layout.ParseSettings(raw, "json")
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) error {
	var req layoutRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		return err
	}
	if len(req.Graph) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "missing graph")
	}
	g, _, err := pipeline.Decode(req.Graph, req.Convert)
	if err != nil {
		return err
	}
	if req.Depth != nil {
		if *req.Depth < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "depth must not be negative, got %d", *req.Depth)
		}
		if g, err = g.Collapse(*req.Depth); err != nil {
			return err
		}
	}
	settings, err := parseSettings(req.Settings)
	if err != nil {
		return err
	}

	withMetrics := req.Metrics == nil || *req.Metrics
	res, err := s.runner.Layout(r.Context(), g, pipeline.Options{
		Settings: settings,
		Route:    true,
		Metrics:  withMetrics,
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		Layout:       res.File(),
		Metrics:      res.Report,
		GraphHash:    res.GraphHash,
		SettingsHash: settings.Hash(),
		Stats: statsResponse{
			Nodes:      res.Stats.Nodes,
			Edges:      res.Stats.Edges,
			LayoutMS:   millis(res.Stats.LayoutTime),
			MetricsMS:  millis(res.Stats.MetricsTime),
			LayoutHit:  res.CacheInfo.LayoutHit,
			MetricsHit: res.CacheInfo.MetricsHit,
		},
	})
	return nil
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) error {
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "tsv", "html":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (must be one of: json, tsv, html)", format)
	}

	var f graph.File
	if err := s.decodeBody(w, r, &f); err != nil {
		return err
	}
	g, err := graph.FromFile(f)
	if err != nil {
		return err
	}
	if err := pipeline.RequireLayout(g); err != nil {
		return err
	}

	settings := layout.DefaultSettings()
	if v := r.URL.Query().Get("ports"); v != "" {
		ports, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "ports")
		}
		settings.ShowEdgePorts = ports
	}
	res, err := s.runner.Measure(r.Context(), g, settings)
	if err != nil {
		return err
	}

	switch format {
	case "tsv":
		writeText(w, "text/tab-separated-values; charset=utf-8", res.Report.TSV())
	case "html":
		writeText(w, "text/html; charset=utf-8", "<table>\n"+res.Report.HTML()+"</table>\n")
	default:
		writeJSON(w, http.StatusOK, map[string]metrics.Report{"metrics": res.Report})
	}
	return nil
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	f := store.Filter{Dataset: q.Get("dataset"), BatchID: q.Get("batch"), Limit: 100}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxRunsLimit {
			return errors.New(errors.ErrCodeInvalidInput, "limit must be an integer in [0, %d]", maxRunsLimit)
		}
		f.Limit = n
	}
	if v := q.Get("failed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "failed")
		}
		f.IncludeFailed = b
	}

	runs, err := s.store.List(r.Context(), f)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string][]store.Run{"runs": runs})
	return nil
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateRunID(id); err != nil {
		return err
	}
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, run)
	return nil
}
