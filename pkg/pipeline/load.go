package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
)

// Input formats recognized by [Decode].
const (
	InputGraph = "graph"
	InputRaw   = "raw"
)

// DetectInput tells a property-graph dump (top-level "elements" key) from a
// graph file.
func DetectInput(data []byte) (string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode input")
	}
	if _, ok := top["elements"]; ok {
		return InputRaw, nil
	}
	if _, ok := top["nodes"]; ok {
		return InputGraph, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "input has neither \"nodes\" nor \"elements\"")
}

// Decode builds a graph from either input format. Raw dumps are converted
// with conv; stats are zero for graph files.
func Decode(data []byte, conv graph.ConvertOptions) (*graph.Graph, graph.ConvertStats, error) {
	kind, err := DetectInput(data)
	if err != nil {
		return nil, graph.ConvertStats{}, err
	}
	if kind == InputRaw {
		raw, err := graph.ReadRawInput(bytes.NewReader(data))
		if err != nil {
			return nil, graph.ConvertStats{}, err
		}
		return graph.Convert(raw, conv)
	}
	f, err := graph.UnmarshalFile(data)
	if err != nil {
		return nil, graph.ConvertStats{}, err
	}
	g, err := graph.FromFile(f)
	return g, graph.ConvertStats{}, err
}

// Load reads and decodes the graph at path.
func Load(path string, conv graph.ConvertOptions) (*graph.Graph, graph.ConvertStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, graph.ConvertStats{}, fmt.Errorf("read %s: %w", path, err)
	}
	g, stats, err := Decode(data, conv)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return g, stats, nil
}

// RequireLayout returns an INVALID_LAYOUT error unless every node of g has a
// size, which is the case for graphs read back from a layout file.
func RequireLayout(g *graph.Graph) error {
	for _, n := range g.Flatten() {
		if !n.HasSize() {
			return errors.New(errors.ErrCodeInvalidLayout, "node %q has no size; lay the graph out first", n.ID)
		}
	}
	return nil
}
