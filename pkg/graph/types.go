package graph

import (
	"math"

	"github.com/matzehuels/nestlayout/pkg/errors"
)

// =============================================================================
// Edge Types
// =============================================================================

// EdgeType tags the relation an edge represents in the source model.
type EdgeType string

// Edge types found in code-structure datasets.
const (
	EdgeContains     EdgeType = "contains"
	EdgeConstructs   EdgeType = "constructs"
	EdgeHolds        EdgeType = "holds"
	EdgeCalls        EdgeType = "calls"
	EdgeAccepts      EdgeType = "accepts"
	EdgeSpecializes  EdgeType = "specializes"
	EdgeReturns      EdgeType = "returns"
	EdgeAccesses     EdgeType = "accesses"
	EdgeCreates      EdgeType = "creates"
	EdgeExhibits     EdgeType = "exhibits"
	EdgeInvokes      EdgeType = "invokes"
	EdgeTypeRef      EdgeType = "type"
	EdgeHasVariable  EdgeType = "hasVariable"
	EdgeHasParameter EdgeType = "hasParameter"
	EdgeHasScript    EdgeType = "hasScript"
	EdgeReturnType   EdgeType = "returnType"
	EdgeInstantiates EdgeType = "instantiates"
	EdgeNests        EdgeType = "nests"
	EdgeUnknown      EdgeType = "UNKNOWN"
)

var edgeTypes = map[EdgeType]bool{
	EdgeContains: true, EdgeConstructs: true, EdgeHolds: true, EdgeCalls: true,
	EdgeAccepts: true, EdgeSpecializes: true, EdgeReturns: true, EdgeAccesses: true,
	EdgeCreates: true, EdgeExhibits: true, EdgeInvokes: true, EdgeTypeRef: true,
	EdgeHasVariable: true, EdgeHasParameter: true, EdgeHasScript: true,
	EdgeReturnType: true, EdgeInstantiates: true, EdgeNests: true, EdgeUnknown: true,
}

// ParseEdgeType validates s as an edge type. The empty string maps to
// [EdgeUnknown] since several datasets omit the label.
func ParseEdgeType(s string) (EdgeType, error) {
	if s == "" {
		return EdgeUnknown, nil
	}
	t := EdgeType(s)
	if !edgeTypes[t] {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown edge type %q", s)
	}
	return t, nil
}

// EdgeTypeSet is a set of edge types used to filter edges.
type EdgeTypeSet map[EdgeType]bool

// NewEdgeTypeSet builds a set from the given types.
func NewEdgeTypeSet(types ...EdgeType) EdgeTypeSet {
	s := make(EdgeTypeSet, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}

// Has reports whether t is in the set.
func (s EdgeTypeSet) Has(t EdgeType) bool { return s[t] }

// =============================================================================
// Node
// =============================================================================

// Node is a vertex of the containment tree.
//
// Members are owned by the node. The parent is held as an id and resolved
// through [Graph.Parent], so ownership only ever flows downwards.
//
// X and Y are the centre of the node relative to the centre of its parent
// (or to the drawing origin for top-level nodes).
type Node struct {
	ID      string
	Level   int
	Members []*Node

	parentID string

	Incoming []*Edge
	Outgoing []*Edge

	// IncomingLifted and OutgoingLifted hold the edges whose lifted
	// endpoint is this node. Lifted self-loops are never included.
	IncomingLifted []*Edge
	OutgoingLifted []*Edge

	Width  float64
	Height float64
	X      float64
	Y      float64
}

// ParentID returns the id of the containing node, or "" for top-level nodes.
func (n *Node) ParentID() string { return n.parentID }

// IsLeaf reports whether n has no members.
func (n *Node) IsLeaf() bool { return len(n.Members) == 0 }

// HasSize reports whether width and height are positive and finite.
func (n *Node) HasSize() bool {
	return n.Width > 0 && n.Height > 0 && !math.IsInf(n.Width, 0) && !math.IsInf(n.Height, 0)
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a typed, weighted relation between two nodes at any depth.
type Edge struct {
	ID     string
	Source string
	Target string
	Type   EdgeType
	Weight float64

	// LiftedSource and LiftedTarget are the ancestors-or-self of Source and
	// Target that are siblings in the innermost container holding both.
	LiftedSource *Node
	LiftedTarget *Node

	// Routing holds the waypoints added by layouts, in source to target order.
	Routing []RoutingPoint
}

// IsLiftedLoop reports whether both lifted endpoints are the same node.
func (e *Edge) IsLiftedLoop() bool {
	return e.LiftedSource != nil && e.LiftedSource == e.LiftedTarget
}

// RoutingPoint is a waypoint expressed in the local frame of Origin, the
// container whose layout produced it. An empty Origin is the top level.
type RoutingPoint struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Origin string  `json:"origin,omitempty" bson:"origin,omitempty"`
}

// =============================================================================
// Construction Specs
// =============================================================================

// NodeSpec describes a node and its nested members for [New].
type NodeSpec struct {
	ID      string
	Members []NodeSpec
}

// EdgeSpec describes an edge for [New]. A zero Weight defaults to 1.
type EdgeSpec struct {
	ID     string
	Source string
	Target string
	Type   EdgeType
	Weight float64
}
