package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
	"github.com/matzehuels/nestlayout/pkg/metrics"
	"github.com/matzehuels/nestlayout/pkg/observability"
	"github.com/matzehuels/nestlayout/pkg/store"
)

const sampleGraph = `{
  "nodes": [
    {"id": "r", "members": [
      {"id": "i", "members": [{"id": "a"}, {"id": "b"}]},
      {"id": "c"}
    ]},
    {"id": "x"}
  ],
  "edges": [
    {"id": "ab", "source": "a", "target": "b", "type": "constructs"},
    {"id": "ac", "source": "a", "target": "c", "type": "holds"},
    {"id": "bx", "source": "b", "target": "x", "type": "calls"}
  ]
}`

// workspace isolates cache, data and backend settings and returns a scratch
// directory holding sample.json.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv(envRedisAddr, "")
	t.Setenv(envMongoURI, "")
	t.Cleanup(observability.Reset)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.json"), []byte(sampleGraph), 0o644))
	return dir
}

// execute runs the root command and returns what it wrote to its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLayoutCommand(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(dir, "sample.json")

	_, err := execute(t, "layout", input, "--inner", "circular")
	require.NoError(t, err)

	f, err := graph.ReadFile(filepath.Join(dir, "sample.layout.json"))
	require.NoError(t, err)
	g, err := graph.FromFile(f)
	require.NoError(t, err)
	for _, n := range g.Flatten() {
		assert.True(t, n.HasSize(), n.ID)
	}
	for _, e := range f.Edges {
		assert.NotEmpty(t, e.RenderPoints, e.ID)
	}

	out := filepath.Join(dir, "custom.json")
	_, err = execute(t, "layout", input, "-o", out, "--no-cache", "--metrics")
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestLayoutCommandDepth(t *testing.T) {
	dir := workspace(t)
	out := filepath.Join(dir, "top.json")

	_, err := execute(t, "layout", filepath.Join(dir, "sample.json"), "--depth", "0", "-o", out)
	require.NoError(t, err)

	g, err := graph.ReadGraphFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len(), "only r and x stay visible")
	require.Len(t, g.Edges(), 1)
	assert.Equal(t, "r", g.Edges()[0].Source)
	assert.Equal(t, "x", g.Edges()[0].Target)
}

func TestLayoutCommandErrors(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(dir, "sample.json")

	_, err := execute(t, "layout", input, "--root", "spiral")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSettings))

	_, err = execute(t, "layout", input, "--padding=-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSettings))

	_, err = execute(t, "layout", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = execute(t, "layout")
	assert.Error(t, err, "input is required")
}

func TestLayoutDumpSettings(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, "layout", "--dump-settings", "--root", "forceBased", "--margin", "12")
	require.NoError(t, err)
	assert.Contains(t, out, `root = "forceBased"`)
	assert.Contains(t, out, "[layouts]")

	path := filepath.Join(dir, "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	again, err := execute(t, "layout", "--dump-settings", "-s", path)
	require.NoError(t, err)
	assert.Equal(t, out, again, "dumped settings load back unchanged")
}

func TestMetricsCommand(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(dir, "sample.json")
	laidOut := filepath.Join(dir, "sample.layout.json")

	_, err := execute(t, "layout", input)
	require.NoError(t, err)

	out, err := execute(t, "metrics", laidOut, "-f", "tsv")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(metrics.All))

	out, err = execute(t, "metrics", laidOut, "-f", "json")
	require.NoError(t, err)
	var report metrics.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report, len(metrics.All))

	out, err = execute(t, "metrics", laidOut, "-f", "html")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<table>"))

	out, err = execute(t, "metrics", laidOut)
	require.NoError(t, err)
	assert.Contains(t, out, "Node overlaps")

	_, err = execute(t, "metrics", laidOut, "-f", "xml")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))

	_, err = execute(t, "metrics", input)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidLayout), "an input graph has no layout")
}

func TestExportCommand(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(dir, "sample.json")

	_, err := execute(t, "export", input, "-f", "dot,json")
	require.NoError(t, err)

	dot, err := os.ReadFile(filepath.Join(dir, "sample.dot"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), "digraph G {"))
	assert.FileExists(t, filepath.Join(dir, "sample.export.json"))

	_, err = execute(t, "export", input, "-f", "gif")
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))

	_, err = execute(t, "export", input, "-f", "dot,json", "-o", filepath.Join(dir, "out"))
	assert.Error(t, err, "one output path for two formats")
}

func TestParseFormats(t *testing.T) {
	assert.Equal(t, []string{"svg"}, parseFormats(""))
	assert.Equal(t, []string{"dot", "png"}, parseFormats(" DOT, png,,dot"))
}

func TestConvertCommand(t *testing.T) {
	dir := workspace(t)
	raw := `{"elements": {
		"nodes": [{"data": {"id": "p"}}, {"data": {"id": "p.A"}}, {"data": {"id": "int"}}],
		"edges": [
			{"data": {"id": "1", "source": "p", "target": "p.A", "label": "contains"}},
			{"data": {"id": "2", "source": "p.A", "target": "int", "label": "holds"}}
		]
	}}`
	input := filepath.Join(dir, "raw.json")
	require.NoError(t, os.WriteFile(input, []byte(raw), 0o644))

	_, err := execute(t, "convert", input, "--filter-primitives")
	require.NoError(t, err)

	g, err := graph.ReadGraphFile(filepath.Join(dir, "raw.graph.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.NotNil(t, g.Node("p.A"))
	assert.Nil(t, g.Node("int"))
}

func TestBatchCommands(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(dir, "sample.json")
	grid := filepath.Join(dir, "grid.toml")
	require.NoError(t, os.WriteFile(grid, []byte(`
workers = 2

[grid]
inner = ["circular", "layerTree"]
ports = [true, false]
`), 0o644))

	_, err := execute(t, "batch", "run", input, "--grid", grid, "--dataset", "demo")
	require.NoError(t, err)

	st, err := store.NewFileStore(filepath.Join(dir, "data", appName, "runs"))
	require.NoError(t, err)
	runs, err := st.List(context.Background(), store.Filter{Dataset: "demo", IncludeFailed: true})
	require.NoError(t, err)
	require.Len(t, runs, 4)

	out, err := execute(t, "batch", "list", "--dataset", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "circular/layerTree/layerTree")

	out, err = execute(t, "batch", "compare", "--dataset", "demo", "--top", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Overlaps")

	out, err = execute(t, "batch", "show", runs[0].ID, "-f", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "[layouts]")

	_, err = execute(t, "batch", "show", "../etc")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	_, err = execute(t, "batch", "run", input)
	assert.Error(t, err, "--grid is required")
}

func TestWriteComparison(t *testing.T) {
	report := func(overlaps float64) metrics.Report {
		r := make(metrics.Report, len(metrics.All))
		for i, m := range metrics.All {
			r[i] = metrics.Entry{Metric: m, Label: m.Label(), Value: 1}
		}
		r[0].Value = overlaps
		return r
	}
	runs := []store.Run{
		{ID: "1", SettingsHash: "good", Dataset: "d", Metrics: report(0)},
		{ID: "2", SettingsHash: "bad", Dataset: "d", Metrics: report(5)},
		{ID: "3", SettingsHash: "broken", Dataset: "d", Failed: true},
	}

	var buf bytes.Buffer
	require.NoError(t, writeComparison(&buf, runs, 1))
	assert.Contains(t, buf.String(), "good")
	assert.NotContains(t, buf.String(), "bad")

	buf.Reset()
	require.NoError(t, writeComparison(&buf, runs, 0))
	assert.Contains(t, buf.String(), "No settings rank")
}

func TestCacheCommands(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache", appName), strings.TrimSpace(out))

	_, err = execute(t, "layout", filepath.Join(dir, "sample.json"))
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(dir, "cache", appName))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	_, err = execute(t, "cache", "clear")
	require.NoError(t, err)
	_, err = execute(t, "cache", "clear", "--no-cache")
	require.NoError(t, err)
}

func TestFormatMetric(t *testing.T) {
	assert.Equal(t, "1.2346", formatMetric(1.23456))
	assert.Equal(t, "3", formatMetric(3))
	assert.Equal(t, "n/a", formatMetric(metrics.Report{}.Get(metrics.TotalArea)))
}
