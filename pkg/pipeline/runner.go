package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nestlayout/pkg/cache"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/metrics"
	"github.com/matzehuels/nestlayout/pkg/observability"
	"github.com/matzehuels/nestlayout/pkg/route"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Layout lays out a copy of g and, as requested by opts, routes and scores
// it.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	res := &Result{
		GraphHash: g.Hash(),
		Stats:     Stats{Nodes: g.Len(), Edges: len(g.Edges())},
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.Len())
	annotated, hit, stats, err := r.layout(ctx, g, res.GraphHash, opts)
	res.Stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, g.Len(), res.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}
	res.Graph = annotated
	res.Stats.Invocations = stats.Invocations
	res.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"nodes", res.Stats.Nodes,
		"edges", res.Stats.Edges,
		"cached", hit,
		"duration", res.Stats.LayoutTime)

	if opts.Route {
		r.route(res, opts.Settings)
	}
	if opts.Metrics {
		if err := r.measure(ctx, res, opts); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Measure routes and scores an already annotated layout. g is not modified.
func (r *Runner) Measure(ctx context.Context, g *graph.Graph, s layout.Settings) (*Result, error) {
	opts := Options{Settings: s, Route: true, Metrics: true}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	res := r.Reroute(g, opts.Settings)
	if err := r.measure(ctx, res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// Reroute wraps an already annotated layout in a result with fresh routes
// for s. It does not validate s.
func (r *Runner) Reroute(g *graph.Graph, s layout.Settings) *Result {
	res := &Result{
		Graph:     g,
		GraphHash: g.Hash(),
		Stats:     Stats{Nodes: g.Len(), Edges: len(g.Edges())},
	}
	r.route(res, s)
	return res
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// layout returns the annotated copy of g, from the cache when possible.
func (r *Runner) layout(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (*graph.Graph, bool, layout.Stats, error) {
	key := r.Keyer.LayoutKey(graphHash, opts.Settings.Hash())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if f, err := graph.UnmarshalFile(data); err == nil {
				if cached, err := graph.FromFile(f); err == nil {
					hooks.OnCacheHit(ctx, "layout")
					return cached, true, layout.Stats{Nodes: cached.Len()}, nil
				}
			}
			r.Logger.Warn("discarding unreadable cached layout", "key", key)
		} else if err != nil {
			r.Logger.Warn("layout cache lookup failed", "err", err)
		}
	}
	hooks.OnCacheMiss(ctx, "layout")

	work := g.Clone()
	stats, err := layout.NewDispatcher(opts.Settings, opts.Logger).Run(ctx, work)
	if err != nil {
		return nil, false, stats, err
	}

	if data, err := graph.MarshalGraph(work); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("caching layout failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return work, false, stats, nil
}

func (r *Runner) route(res *Result, s layout.Settings) {
	start := time.Now()
	res.Routes = route.NewRouter(s).Route(res.Graph)
	res.Stats.RouteTime = time.Since(start)
	r.Logger.Debug("routed edges", "paths", len(res.Routes.Paths), "containers_with_ports", len(res.Routes.Ports))
}

// measure fills res.Report, from the cache when possible. Reports are keyed
// by the annotated layout, so the same drawing is only scored once.
func (r *Runner) measure(ctx context.Context, res *Result, opts Options) error {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnMetricsStart(ctx, len(res.Graph.Edges()))

	data, err := graph.MarshalGraph(res.Graph)
	if err != nil {
		hooks.OnMetricsComplete(ctx, time.Since(start), err)
		return err
	}
	types := make([]string, len(opts.Settings.MetricEdgeTypes))
	for i, t := range opts.Settings.MetricEdgeTypes {
		types[i] = string(t)
	}
	key := r.Keyer.MetricsKey(cache.Hash(data), cache.MetricsKeyOpts{
		EdgeTypes: types,
		Ports:     opts.Settings.ShowEdgePorts,
	})

	if report, ok := r.cachedReport(ctx, key, opts.Refresh); ok {
		res.Report = report
		res.CacheInfo.MetricsHit = true
	} else {
		res.Report = metrics.NewEngine(opts.Settings).Run(res.Graph, res.Routes)
		if enc, err := json.Marshal(res.Report); err == nil {
			if err := r.Cache.Set(ctx, key, enc, cache.TTLMetrics); err != nil {
				r.Logger.Warn("caching metrics failed", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "metrics", len(enc))
			}
		}
	}

	res.Stats.MetricsTime = time.Since(start)
	hooks.OnMetricsComplete(ctx, res.Stats.MetricsTime, nil)
	r.Logger.Debug("computed metrics", "cached", res.CacheInfo.MetricsHit, "duration", res.Stats.MetricsTime)
	return nil
}

func (r *Runner) cachedReport(ctx context.Context, key string, refresh bool) (metrics.Report, bool) {
	hooks := observability.Cache()
	if refresh {
		hooks.OnCacheMiss(ctx, "metrics")
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, "metrics")
		return nil, false
	}
	var report metrics.Report
	if err := json.Unmarshal(data, &report); err != nil || len(report) != len(metrics.All) {
		hooks.OnCacheMiss(ctx, "metrics")
		return nil, false
	}
	hooks.OnCacheHit(ctx, "metrics")
	return report, true
}
