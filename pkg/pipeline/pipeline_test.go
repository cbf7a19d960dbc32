package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nestlayout/pkg/cache"
	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/layout"
	"github.com/matzehuels/nestlayout/pkg/metrics"
)

// sample builds:
//
//	r ─┬─ i ─┬─ a
//	   │     └─ b
//	   └─ c
//	x
func sample(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New([]graph.NodeSpec{
		{ID: "r", Members: []graph.NodeSpec{
			{ID: "i", Members: []graph.NodeSpec{{ID: "a"}, {ID: "b"}}},
			{ID: "c"},
		}},
		{ID: "x"},
	}, []graph.EdgeSpec{
		{ID: "ab", Source: "a", Target: "b", Type: graph.EdgeConstructs},
		{ID: "ac", Source: "a", Target: "c", Type: graph.EdgeHolds},
		{ID: "bx", Source: "b", Target: "x", Type: graph.EdgeCalls},
	})
	require.NoError(t, err)
	return g
}

func testRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(c, nil, nil)
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"pdf", false},
		{"png", false},
		{"SVG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Metrics: true}
	require.NoError(t, opts.ValidateAndSetDefaults())
	assert.Equal(t, layout.DefaultSettings().Hash(), opts.Settings.Hash())
	assert.True(t, opts.Route, "metrics implies routing")
	assert.NotNil(t, opts.Logger)

	bad := Options{Settings: layout.DefaultSettings()}
	bad.Settings.MinimumNodeSize = -1
	err := bad.ValidateAndSetDefaults()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSettings))
}

func TestRunnerLayout(t *testing.T) {
	g := sample(t)
	res, err := testRunner(t, nil).Layout(context.Background(), g, Options{Metrics: true})
	require.NoError(t, err)

	for _, n := range res.Graph.Flatten() {
		assert.True(t, n.HasSize(), "%s unsized", n.ID)
	}
	for _, n := range g.Flatten() {
		assert.Zero(t, n.Width, "input graph %s was modified", n.ID)
	}
	assert.Equal(t, g.Hash(), res.GraphHash)
	assert.Equal(t, 6, res.Stats.Nodes)
	assert.Equal(t, 3, res.Stats.Edges)
	assert.Len(t, res.Report, len(metrics.All))
	assert.Len(t, res.Routes.Paths, 3)
	assert.False(t, res.CacheInfo.LayoutHit)
	assert.Contains(t, res.Summary(), "6 nodes, 3 edges")
}

func TestRunnerLayoutWithoutMetrics(t *testing.T) {
	res, err := testRunner(t, nil).Layout(context.Background(), sample(t), Options{})
	require.NoError(t, err)
	assert.Nil(t, res.Routes.Paths)
	assert.Nil(t, res.Report)
}

func TestRunnerCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := testRunner(t, c)
	ctx := context.Background()

	first, err := r.Layout(ctx, sample(t), Options{Metrics: true})
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.LayoutHit)
	assert.False(t, first.CacheInfo.MetricsHit)

	second, err := r.Layout(ctx, sample(t), Options{Metrics: true})
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.LayoutHit)
	assert.True(t, second.CacheInfo.MetricsHit)
	assert.Equal(t, first.Report.TSV(), second.Report.TSV())
	for _, n := range first.Graph.Flatten() {
		m := second.Graph.Node(n.ID)
		assert.Equal(t, n.X, m.X, n.ID)
		assert.Equal(t, n.Y, m.Y, n.ID)
		assert.Equal(t, n.Width, m.Width, n.ID)
	}

	fresh, err := r.Layout(ctx, sample(t), Options{Metrics: true, Refresh: true})
	require.NoError(t, err)
	assert.False(t, fresh.CacheInfo.LayoutHit)
	assert.False(t, fresh.CacheInfo.MetricsHit)

	s := layout.DefaultSettings()
	s.Layouts.Root = layout.Circular
	other, err := r.Layout(ctx, sample(t), Options{Settings: s})
	require.NoError(t, err)
	assert.False(t, other.CacheInfo.LayoutHit, "different settings use a different key")
}

func TestRunnerMeasure(t *testing.T) {
	r := testRunner(t, nil)
	ctx := context.Background()
	res, err := r.Layout(ctx, sample(t), Options{Metrics: true})
	require.NoError(t, err)

	data, err := graph.MarshalGraph(res.Graph)
	require.NoError(t, err)
	g, _, err := Decode(data, graph.ConvertOptions{})
	require.NoError(t, err)

	measured, err := r.Measure(ctx, g, layout.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, res.Report.TSV(), measured.Report.TSV())
	assert.Same(t, g, measured.Graph)
}

func TestDecode(t *testing.T) {
	raw := `{"elements": {
		"nodes": [{"data": {"id": "p"}}, {"data": {"id": "p.A"}}, {"data": {"id": "int"}}],
		"edges": [
			{"data": {"id": "1", "source": "p", "target": "p.A", "label": "contains"}},
			{"data": {"id": "2", "source": "p.A", "target": "int", "label": "holds"}}
		]
	}}`
	kind, err := DetectInput([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, InputRaw, kind)

	g, stats, err := Decode([]byte(raw), graph.ConvertOptions{FilterPrimitives: true})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, stats.DroppedNodes)

	file := `{"nodes": [{"id": "a"}, {"id": "b"}], "edges": [{"id": "e", "source": "a", "target": "b", "type": "calls"}]}`
	kind, err = DetectInput([]byte(file))
	require.NoError(t, err)
	assert.Equal(t, InputGraph, kind)
	g, _, err = Decode([]byte(file), graph.ConvertOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	for _, bad := range []string{`not json`, `{"foo": 1}`} {
		_, _, err := Decode([]byte(bad), graph.ConvertOptions{})
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), bad)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load("does-not-exist.json", graph.ConvertOptions{})
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	res, err := testRunner(t, nil).Layout(ctx, sample(t), Options{Route: true})
	require.NoError(t, err)

	data, err := Export(ctx, res, FormatJSON, ExportOptions{})
	require.NoError(t, err)
	var f graph.File
	require.NoError(t, json.Unmarshal(data, &f))
	require.Len(t, f.Edges, 3)
	for _, e := range f.Edges {
		assert.GreaterOrEqual(t, len(e.RenderPoints), 2, e.ID)
	}

	dot, err := Export(ctx, res, FormatDOT, ExportOptions{Detailed: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), "digraph"))
	assert.Contains(t, string(dot), `"b" -> "x"`)

	_, err = Export(ctx, res, "gif", ExportOptions{})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))

	all, err := ExportAll(ctx, res, []string{FormatJSON, FormatDOT}, ExportOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
