package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/nestlayout/pkg/errors"
)

// =============================================================================
// File - Serialization Format
// =============================================================================

// File is the JSON (and BSON) form of a graph.
//
// Input graphs only need ids, members and edges. Layout output uses the same
// shape with geometry filled in, plus render points and ports when routed:
//
//	{
//	  "nodes": [{"id": "pkg", "members": [{"id": "pkg.A"}, {"id": "pkg.B"}]}],
//	  "edges": [{"id": "e1", "source": "pkg.A", "target": "pkg.B", "type": "calls"}]
//	}
type File struct {
	Nodes []FileNode `json:"nodes" bson:"nodes"`
	Edges []FileEdge `json:"edges" bson:"edges"`
}

// FileNode is a serialized node with its members nested inline.
type FileNode struct {
	ID      string     `json:"id" bson:"id"`
	Members []FileNode `json:"members,omitempty" bson:"members,omitempty"`
	Width   float64    `json:"width,omitempty" bson:"width,omitempty"`
	Height  float64    `json:"height,omitempty" bson:"height,omitempty"`
	X       float64    `json:"x,omitempty" bson:"x,omitempty"`
	Y       float64    `json:"y,omitempty" bson:"y,omitempty"`
	Ports   []FilePort `json:"ports,omitempty" bson:"ports,omitempty"`
}

// FileEdge is a serialized edge.
type FileEdge struct {
	ID           string         `json:"id" bson:"id"`
	Source       string         `json:"source" bson:"source"`
	Target       string         `json:"target" bson:"target"`
	Type         EdgeType       `json:"type,omitempty" bson:"type,omitempty"`
	Weight       float64        `json:"weight,omitempty" bson:"weight,omitempty"`
	Routing      []RoutingPoint `json:"routing,omitempty" bson:"routing,omitempty"`
	RenderPoints []FilePoint    `json:"render_points,omitempty" bson:"render_points,omitempty"`
}

// FilePoint is an absolute point.
type FilePoint struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// FilePort is a serialized edge port in absolute coordinates.
type FilePort struct {
	Direction string     `json:"direction" bson:"direction"`
	X         float64    `json:"x" bson:"x"`
	Y         float64    `json:"y" bson:"y"`
	Width     float64    `json:"width" bson:"width"`
	Height    float64    `json:"height" bson:"height"`
	Types     []EdgeType `json:"types" bson:"types"`
}

// =============================================================================
// Graph ↔ File Conversion
// =============================================================================

// ToFile serializes g including geometry and routing.
func (g *Graph) ToFile() File {
	var toNode func(n *Node) FileNode
	toNode = func(n *Node) FileNode {
		fn := FileNode{ID: n.ID, Width: n.Width, Height: n.Height, X: n.X, Y: n.Y}
		for _, m := range n.Members {
			fn.Members = append(fn.Members, toNode(m))
		}
		return fn
	}

	f := File{Nodes: make([]FileNode, 0, len(g.roots)), Edges: make([]FileEdge, 0, len(g.edges))}
	for _, r := range g.roots {
		f.Nodes = append(f.Nodes, toNode(r))
	}
	for _, e := range g.edges {
		f.Edges = append(f.Edges, FileEdge{
			ID:      e.ID,
			Source:  e.Source,
			Target:  e.Target,
			Type:    e.Type,
			Weight:  e.Weight,
			Routing: append([]RoutingPoint(nil), e.Routing...),
		})
	}
	return f
}

// FromFile builds a graph from its serialized form, restoring any geometry
// and routing present in the file.
func FromFile(f File) (*Graph, error) {
	var toSpec func(fn FileNode) NodeSpec
	toSpec = func(fn FileNode) NodeSpec {
		s := NodeSpec{ID: fn.ID}
		for _, m := range fn.Members {
			s.Members = append(s.Members, toSpec(m))
		}
		return s
	}

	nodes := make([]NodeSpec, 0, len(f.Nodes))
	for _, fn := range f.Nodes {
		nodes = append(nodes, toSpec(fn))
	}
	edges := make([]EdgeSpec, 0, len(f.Edges))
	for _, fe := range f.Edges {
		t, err := ParseEdgeType(string(fe.Type))
		if err != nil {
			return nil, err
		}
		edges = append(edges, EdgeSpec{ID: fe.ID, Source: fe.Source, Target: fe.Target, Type: t, Weight: fe.Weight})
	}

	g, err := New(nodes, edges)
	if err != nil {
		return nil, err
	}

	var restore func(fn FileNode)
	restore = func(fn FileNode) {
		n := g.index[fn.ID]
		n.Width, n.Height, n.X, n.Y = fn.Width, fn.Height, fn.X, fn.Y
		for _, m := range fn.Members {
			restore(m)
		}
	}
	for _, fn := range f.Nodes {
		restore(fn)
	}
	for i, fe := range f.Edges {
		if len(fe.Routing) > 0 {
			g.edges[i].Routing = append([]RoutingPoint(nil), fe.Routing...)
		}
	}
	return g, nil
}

// Hash returns a hex SHA-256 of the graph structure (ids, nesting, edges),
// ignoring geometry. Equal inputs produce equal hashes.
func (g *Graph) Hash() string {
	var strip func(fn FileNode) FileNode
	strip = func(fn FileNode) FileNode {
		out := FileNode{ID: fn.ID}
		for _, m := range fn.Members {
			out.Members = append(out.Members, strip(m))
		}
		return out
	}
	f := g.ToFile()
	for i := range f.Nodes {
		f.Nodes[i] = strip(f.Nodes[i])
	}
	for i := range f.Edges {
		f.Edges[i].Routing = nil
	}
	data, _ := json.Marshal(f)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// Serialization API
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	return MarshalFile(g.ToFile())
}

// MarshalFile converts a file to indented JSON bytes.
func MarshalFile(f File) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeFileTo(f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalFile decodes JSON bytes without building a graph.
func UnmarshalFile(data []byte) (File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return f, nil
}

// WriteGraph writes g as JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeFileTo(g.ToFile(), w)
}

// WriteFile writes f as JSON to w.
func WriteFile(f File, w io.Writer) error {
	return writeFileTo(f, w)
}

// WriteGraphFile writes g to a JSON file, creating or truncating it.
func WriteGraphFile(g *Graph, path string) error {
	return WriteFileTo(g.ToFile(), path)
}

// WriteFileTo writes f to a JSON file at path.
func WriteFileTo(f File, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return writeFileTo(f, out)
}

// ReadGraph decodes a JSON graph from r.
func ReadGraph(r io.Reader) (*Graph, error) {
	f, err := readFileFrom(r)
	if err != nil {
		return nil, err
	}
	return FromFile(f)
}

// ReadGraphFile reads a JSON graph from path.
func ReadGraphFile(path string) (*Graph, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	return ReadGraph(in)
}

// ReadFile decodes the serialized form from path without building a graph.
func ReadFile(path string) (File, error) {
	in, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	return readFileFrom(in)
}

func writeFileTo(f File, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFileFrom(r io.Reader) (File, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return File{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return f, nil
}
