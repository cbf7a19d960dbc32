package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/google/uuid"

	"github.com/matzehuels/nestlayout/pkg/errors"
)

// =============================================================================
// Raw Property-Graph Input
// =============================================================================

// RawInput is a property-graph dump as exported by graph databases:
//
//	{"elements": {
//	  "nodes": [{"data": {"id": "pkg.A"}}],
//	  "edges": [{"data": {"id": "1", "source": "pkg", "target": "pkg.A",
//	                      "label": "contains", "properties": {"weight": 1}}}]
//	}}
//
// Edges may carry their type in "label" or as the first entry of "labels".
type RawInput struct {
	Elements struct {
		Nodes []RawNode `json:"nodes"`
		Edges []RawEdge `json:"edges"`
	} `json:"elements"`
}

// RawNode is a node entry of [RawInput].
type RawNode struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// RawEdge is an edge entry of [RawInput].
type RawEdge struct {
	Data struct {
		ID         string   `json:"id"`
		Source     string   `json:"source"`
		Target     string   `json:"target"`
		Label      string   `json:"label"`
		Labels     []string `json:"labels"`
		Properties struct {
			Weight float64 `json:"weight"`
		} `json:"properties"`
	} `json:"data"`
}

// ReadRawInput decodes a property-graph dump from r.
func ReadRawInput(r io.Reader) (RawInput, error) {
	var raw RawInput
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return RawInput{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode raw input")
	}
	return raw, nil
}

// ReadRawInputFile decodes a property-graph dump from path.
func ReadRawInputFile(path string) (RawInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawInput{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRawInput(f)
}

// =============================================================================
// Conversion
// =============================================================================

// ConvertOptions controls [Convert].
type ConvertOptions struct {
	// FilterPrimitives drops java.lang.* and Java primitive type nodes
	// together with every edge touching them.
	FilterPrimitives bool `json:"filter_primitives"`

	// FilterAllEncompassing repeatedly removes a single top-level node that
	// contains everything else, promoting its members to the top level.
	FilterAllEncompassing bool `json:"filter_all_encompassing"`
}

// ConvertStats reports what [Convert] discarded.
type ConvertStats struct {
	DroppedNodes int // filtered primitives and nodes caught in containment cycles
	DroppedEdges int // edges whose endpoints did not survive
	Demoted      int // second "contains" parents turned into plain edges
	Unwrapped    int // all-encompassing nodes removed
}

var primitiveTypes = map[string]bool{
	"int": true, "char": true, "byte": true, "short": true,
	"long": true, "float": true, "double": true, "boolean": true,
}

var javaLang = regexp.MustCompile(`java\.lang`)

func isPrimitive(id string) bool {
	return primitiveTypes[id] || javaLang.MatchString(id)
}

// Convert turns a property-graph dump into a nested graph.
//
// "contains" edges define nesting. A node can only have one container, so
// any further "contains" edge targeting an already nested node is kept as a
// plain edge. Edges without an id get a random UUID. Levels are recomputed
// after filtering.
func Convert(raw RawInput, opts ConvertOptions) (*Graph, ConvertStats, error) {
	var stats ConvertStats

	type entry struct {
		spec   *NodeSpec
		nested bool
		kids   []string
	}
	entries := make(map[string]*entry)
	var order []string
	for _, rn := range raw.Elements.Nodes {
		id := rn.Data.ID
		if opts.FilterPrimitives && isPrimitive(id) {
			stats.DroppedNodes++
			continue
		}
		if _, dup := entries[id]; dup {
			continue
		}
		entries[id] = &entry{spec: &NodeSpec{ID: id}}
		order = append(order, id)
	}

	var links []EdgeSpec
	for _, re := range raw.Elements.Edges {
		d := re.Data
		if opts.FilterPrimitives && (isPrimitive(d.Source) || isPrimitive(d.Target)) {
			stats.DroppedEdges++
			continue
		}
		label := d.Label
		if label == "" && len(d.Labels) > 0 {
			label = d.Labels[0]
		}
		t, err := ParseEdgeType(label)
		if err != nil {
			return nil, stats, err
		}
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		e := EdgeSpec{ID: id, Source: d.Source, Target: d.Target, Type: t, Weight: d.Properties.Weight}

		if t != EdgeContains {
			links = append(links, e)
			continue
		}
		parent, child := entries[e.Source], entries[e.Target]
		if parent == nil || child == nil {
			return nil, stats, errors.New(errors.ErrCodeInvalidInput, "contains edge %q references unknown node", id)
		}
		if child.nested {
			stats.Demoted++
			links = append(links, e)
			continue
		}
		child.nested = true
		parent.kids = append(parent.kids, e.Target)
	}

	// Build nested specs from the top-level nodes down. Nodes only reachable
	// through a containment cycle never get a top-level ancestor and are
	// dropped.
	placed := make(map[string]bool)
	var build func(id string, path map[string]bool) NodeSpec
	build = func(id string, path map[string]bool) NodeSpec {
		placed[id] = true
		path[id] = true
		s := NodeSpec{ID: id}
		for _, k := range entries[id].kids {
			if path[k] || placed[k] {
				continue
			}
			s.Members = append(s.Members, build(k, path))
		}
		delete(path, id)
		return s
	}

	var roots []NodeSpec
	for _, id := range order {
		if !entries[id].nested {
			roots = append(roots, build(id, make(map[string]bool)))
		}
	}

	if opts.FilterAllEncompassing {
		for len(roots) == 1 && len(roots[0].Members) > 0 {
			drop := roots[0].ID
			delete(placed, drop)
			roots = roots[0].Members
			stats.Unwrapped++
		}
	}
	stats.DroppedNodes += len(order) - len(placed) - stats.Unwrapped

	kept := links[:0]
	for _, e := range links {
		if placed[e.Source] && placed[e.Target] {
			kept = append(kept, e)
		} else {
			stats.DroppedEdges++
		}
	}

	g, err := New(roots, kept)
	if err != nil {
		return nil, stats, err
	}
	return g, stats, nil
}
