// Package pkg provides the core libraries for Nestlayout nested graph layout.
//
// # Overview
//
// Nestlayout lays out graphs whose nodes contain other nodes. Containers are
// sized bottom-up: every container arranges its members with the algorithm
// configured for its nesting tier, then becomes a sized box for its parent.
// Edges between nodes in different containers are lifted to the siblings
// that actually share a container, routed through ports on the borders they
// cross, and scored with a set of readability metrics.
//
// # Architecture
//
// The typical data flow:
//
//	graph file / property-graph dump
//	         ↓
//	    [graph] package (hierarchy, edge lifting, conversion)
//	         ↓
//	    [layout] package (per-tier algorithms, bottom-up dispatch)
//	         ↓
//	    [route] package (render paths and ports)
//	         ↓
//	    [metrics] package (readability scores)
//	         ↓
//	    JSON layout / DOT / SVG / PDF / PNG
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/nestlayout/pkg/graph"
//	    "github.com/matzehuels/nestlayout/pkg/layout"
//	    "github.com/matzehuels/nestlayout/pkg/metrics"
//	    "github.com/matzehuels/nestlayout/pkg/route"
//	)
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	s := layout.DefaultSettings()
//	s.Layouts.Root = layout.ForceBased
//	if _, err := layout.NewDispatcher(s, nil).Run(ctx, g); err != nil {
//	    return err
//	}
//	routes := route.NewRouter(s).Route(g)
//	report := metrics.NewEngine(s).Run(g, routes)
//	fmt.Print(report.TSV())
//
// # Package Organization
//
// ## Layout
//
// [graph] - The nested graph model: nodes with members, typed edges, lifting
// of cross-container edges, JSON files and raw property-graph conversion.
//
// [geom] - Boxes, segments and intersection tests shared by routing and
// metrics.
//
// [layout] - Settings and the four per-container algorithms (layer tree,
// circular, force based, straight tree) plus the dispatcher that runs them
// bottom-up.
//
// [route] - Turns layout waypoints into absolute render paths through edge
// ports.
//
// [metrics] - Readability metrics for a routed layout, and the scaling used
// to compare layouts across datasets.
//
// ## Output
//
// [render/nodelink] - Graphviz DOT with pinned positions, rendered to SVG.
//
// [render] - SVG to PDF/PNG conversion.
//
// ## Infrastructure
//
// [pipeline] - Layout, route and measure in one call with caching, plus grid
// evaluation of settings. Used by the CLI and the HTTP API.
//
// [cache] - Layout and metrics cache with file, Redis and no-op backends.
//
// [store] - Batch run storage in JSON files or MongoDB.
//
// [server] - The HTTP API.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Error codes shared by every entry point.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example                 # Examples only
//
// The Redis and MongoDB tests need NESTLAYOUT_TEST_REDIS and
// NESTLAYOUT_TEST_MONGO and are skipped otherwise.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/graph
// [geom]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/geom
// [layout]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/layout
// [route]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/route
// [metrics]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/metrics
// [render]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/nestlayout/pkg/errors
package pkg
