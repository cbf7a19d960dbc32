package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nestlayout/pkg/errors"
	"github.com/matzehuels/nestlayout/pkg/graph"
)

// =============================================================================
// Enumerations
// =============================================================================

// Algorithm names one of the per-container layout strategies.
type Algorithm string

const (
	LayerTree    Algorithm = "layerTree"
	Circular     Algorithm = "circular"
	ForceBased   Algorithm = "forceBased"
	StraightTree Algorithm = "straightTree"
)

// Tier is a nesting depth class with its own algorithm and settings.
type Tier string

const (
	TierInner        Tier = "inner"
	TierIntermediate Tier = "intermediate"
	TierRoot         Tier = "root"
)

// Tiers lists the tiers from innermost to outermost.
var Tiers = []Tier{TierInner, TierIntermediate, TierRoot}

// ManyBodyKind selects the repulsion used by the force-based layout.
type ManyBodyKind string

const (
	ManyBodyNone        ManyBodyKind = "None"
	ManyBodyCharge      ManyBodyKind = "Charge"
	ManyBodyRectangular ManyBodyKind = "Rectangular"
)

// =============================================================================
// Defaults - Single Source of Truth for CLI, API and Batch
// =============================================================================

const (
	DefaultMinimumNodeSize  = 50.0
	DefaultButtonRadius     = 5.0
	DefaultNodeCornerRadius = 5.0
	DefaultNodePadding      = 20.0
	DefaultNodeMargin       = 30.0
	DefaultTextSize         = 10.0
	DefaultPortSize         = 10.0
	DefaultSeed             = uint64(42)

	// DefaultIterations is the fixed number of force simulation ticks.
	DefaultIterations = 300
)

// DefaultLayoutEdgeTypes are the edge types layouts arrange nodes by.
var DefaultLayoutEdgeTypes = []graph.EdgeType{graph.EdgeConstructs, graph.EdgeHolds}

// DefaultMetricEdgeTypes are the edge types the metrics engine scores.
var DefaultMetricEdgeTypes = []graph.EdgeType{graph.EdgeCalls}

// =============================================================================
// Settings
// =============================================================================

// Settings configures a full layout pass.
//
// Settings files are TOML (or JSON) and are merged over [DefaultSettings],
// so a file only needs the keys it changes:
//
//	node_padding = 10
//
//	[layouts]
//	inner = "circular"
//	root = "forceBased"
//
//	[params.root.many_body]
//	kind = "Charge"
//	strength = 20
type Settings struct {
	MinimumNodeSize  float64 `json:"minimum_node_size" toml:"minimum_node_size" bson:"minimum_node_size"`
	ButtonRadius     float64 `json:"button_radius" toml:"button_radius" bson:"button_radius"`
	NodeCornerRadius float64 `json:"node_corner_radius" toml:"node_corner_radius" bson:"node_corner_radius"`
	NodePadding      float64 `json:"node_padding" toml:"node_padding" bson:"node_padding"`
	TextSize         float64 `json:"text_size" toml:"text_size" bson:"text_size"`
	ShowEdgePorts    bool    `json:"show_edge_ports" toml:"show_edge_ports" bson:"show_edge_ports"`
	PortSize         float64 `json:"port_size" toml:"port_size" bson:"port_size"`
	EdgeRouting      bool    `json:"edge_routing" toml:"edge_routing" bson:"edge_routing"`
	Seed             uint64  `json:"seed" toml:"seed" bson:"seed"`

	NodeMargin PerTier[float64]    `json:"node_margin" toml:"node_margin" bson:"node_margin"`
	Layouts    PerTier[Algorithm]  `json:"layouts" toml:"layouts" bson:"layouts"`
	Params     PerTier[TierParams] `json:"params" toml:"params" bson:"params"`

	LayoutEdgeTypes []graph.EdgeType `json:"layout_edge_types" toml:"layout_edge_types" bson:"layout_edge_types"`
	MetricEdgeTypes []graph.EdgeType `json:"metric_edge_types" toml:"metric_edge_types" bson:"metric_edge_types"`
}

// PerTier holds one value per nesting tier.
type PerTier[T any] struct {
	Inner        T `json:"inner" toml:"inner" bson:"inner"`
	Intermediate T `json:"intermediate" toml:"intermediate" bson:"intermediate"`
	Root         T `json:"root" toml:"root" bson:"root"`
}

// Get returns the value for tier t.
func (p PerTier[T]) Get(t Tier) T {
	switch t {
	case TierInner:
		return p.Inner
	case TierIntermediate:
		return p.Intermediate
	default:
		return p.Root
	}
}

// Set replaces the value for tier t.
func (p *PerTier[T]) Set(t Tier, v T) {
	switch t {
	case TierInner:
		p.Inner = v
	case TierIntermediate:
		p.Intermediate = v
	default:
		p.Root = v
	}
}

// All returns a PerTier with v in every tier.
func All[T any](v T) PerTier[T] {
	return PerTier[T]{Inner: v, Intermediate: v, Root: v}
}

// TierParams carries the algorithm parameters of one tier.
type TierParams struct {
	// UniformSize makes the straight-tree layout give every child the same
	// width and height.
	UniformSize bool        `json:"uniform_size" toml:"uniform_size" bson:"uniform_size"`
	ManyBody    ManyBody    `json:"many_body" toml:"many_body" bson:"many_body"`
	Collide     bool        `json:"collide" toml:"collide" bson:"collide"`
	Center      CenterForce `json:"center" toml:"center" bson:"center"`
	Link        LinkForce   `json:"link" toml:"link" bson:"link"`
}

// ManyBody configures node repulsion. Min and Max bound the boundary gap
// over which the rectangular variant acts.
type ManyBody struct {
	Kind     ManyBodyKind `json:"kind" toml:"kind" bson:"kind"`
	Strength float64      `json:"strength" toml:"strength" bson:"strength"`
	Min      float64      `json:"min" toml:"min" bson:"min"`
	Max      float64      `json:"max" toml:"max" bson:"max"`
}

// CenterForce pulls children towards the local origin.
type CenterForce struct {
	Enabled bool    `json:"enabled" toml:"enabled" bson:"enabled"`
	X       float64 `json:"x" toml:"x" bson:"x"`
	Y       float64 `json:"y" toml:"y" bson:"y"`
}

// LinkForce pulls linked children towards a target distance.
type LinkForce struct {
	Enabled  bool    `json:"enabled" toml:"enabled" bson:"enabled"`
	Distance float64 `json:"distance" toml:"distance" bson:"distance"`
	Strength float64 `json:"strength" toml:"strength" bson:"strength"`
}

// DefaultTierParams returns the parameters used for every tier by default.
func DefaultTierParams() TierParams {
	return TierParams{
		UniformSize: true,
		ManyBody:    ManyBody{Kind: ManyBodyRectangular, Strength: 30, Min: 0, Max: 300},
		Collide:     true,
		Center:      CenterForce{Enabled: true, X: 0.1, Y: 0.1},
		Link:        LinkForce{Enabled: true, Distance: 30, Strength: 1},
	}
}

// DefaultSettings returns the default layout settings.
func DefaultSettings() Settings {
	return Settings{
		MinimumNodeSize:  DefaultMinimumNodeSize,
		ButtonRadius:     DefaultButtonRadius,
		NodeCornerRadius: DefaultNodeCornerRadius,
		NodePadding:      DefaultNodePadding,
		TextSize:         DefaultTextSize,
		ShowEdgePorts:    true,
		PortSize:         DefaultPortSize,
		EdgeRouting:      true,
		Seed:             DefaultSeed,
		NodeMargin:       All(DefaultNodeMargin),
		Layouts:          All(LayerTree),
		Params:           All(DefaultTierParams()),
		LayoutEdgeTypes:  append([]graph.EdgeType(nil), DefaultLayoutEdgeTypes...),
		MetricEdgeTypes:  append([]graph.EdgeType(nil), DefaultMetricEdgeTypes...),
	}
}

// =============================================================================
// Validation and Hashing
// =============================================================================

// Validate checks s for values no layout can work with.
func (s Settings) Validate() error {
	if !positive(s.MinimumNodeSize) {
		return errors.New(errors.ErrCodeInvalidSettings, "minimum_node_size must be positive, got %v", s.MinimumNodeSize)
	}
	if !nonNegative(s.NodePadding) {
		return errors.New(errors.ErrCodeInvalidSettings, "node_padding must be non-negative, got %v", s.NodePadding)
	}
	if !nonNegative(s.PortSize) {
		return errors.New(errors.ErrCodeInvalidSettings, "port_size must be non-negative, got %v", s.PortSize)
	}
	for _, t := range Tiers {
		if m := s.NodeMargin.Get(t); !nonNegative(m) {
			return errors.New(errors.ErrCodeInvalidSettings, "node_margin.%s must be non-negative, got %v", t, m)
		}
		if a := s.Layouts.Get(t); !IsAlgorithm(a) {
			return errors.New(errors.ErrCodeInvalidSettings, "layouts.%s: unknown algorithm %q", t, a)
		}
		p := s.Params.Get(t)
		switch p.ManyBody.Kind {
		case ManyBodyNone, ManyBodyCharge, ManyBodyRectangular:
		default:
			return errors.New(errors.ErrCodeInvalidSettings, "params.%s.many_body: unknown kind %q", t, p.ManyBody.Kind)
		}
		if p.ManyBody.Min > p.ManyBody.Max {
			return errors.New(errors.ErrCodeInvalidSettings, "params.%s.many_body: min %v exceeds max %v", t, p.ManyBody.Min, p.ManyBody.Max)
		}
		if p.Link.Enabled && !nonNegative(p.Link.Distance) {
			return errors.New(errors.ErrCodeInvalidSettings, "params.%s.link: distance must be non-negative", t)
		}
	}
	for _, et := range append(append([]graph.EdgeType(nil), s.LayoutEdgeTypes...), s.MetricEdgeTypes...) {
		if _, err := graph.ParseEdgeType(string(et)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSettings, err, "edge types")
		}
	}
	return nil
}

// Hash returns the hex SHA-256 of the canonical JSON encoding of s.
func (s Settings) Hash() string {
	data, _ := json.Marshal(s)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ForTier flattens s into the settings a layout invocation at tier t sees.
func (s Settings) ForTier(t Tier) TierSettings {
	return TierSettings{
		Tier:            t,
		MinimumNodeSize: s.MinimumNodeSize,
		NodePadding:     s.NodePadding,
		NodeMargin:      s.NodeMargin.Get(t),
		EdgeRouting:     s.EdgeRouting,
		EdgeTypes:       graph.NewEdgeTypeSet(s.LayoutEdgeTypes...),
		Params:          s.Params.Get(t),
		Seed:            s.Seed,
	}
}

// IsAlgorithm reports whether a names a registered algorithm.
func IsAlgorithm(a Algorithm) bool {
	_, ok := Algorithms[a]
	return ok
}

func positive(v float64) bool    { return v > 0 && !math.IsInf(v, 0) }
func nonNegative(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }

// TierSettings is what a single layout invocation needs.
type TierSettings struct {
	Tier            Tier
	MinimumNodeSize float64
	NodePadding     float64
	NodeMargin      float64
	EdgeRouting     bool
	EdgeTypes       graph.EdgeTypeSet
	Params          TierParams
	Seed            uint64
}

// =============================================================================
// Loading
// =============================================================================

// LoadSettingsFile reads a TOML or JSON settings file (by extension) and
// merges it over the defaults. The result is validated.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "read settings")
	}
	format := "toml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return ParseSettings(data, format)
}

// ParseSettings decodes data in the given format ("toml" or "json") over the
// defaults and validates the result.
func ParseSettings(data []byte, format string) (Settings, error) {
	s := DefaultSettings()
	switch format {
	case "json":
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode json settings")
		}
	case "toml":
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return Settings{}, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode toml settings")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Settings{}, errors.New(errors.ErrCodeInvalidSettings, "unknown settings key %q", undecoded[0].String())
		}
	default:
		return Settings{}, errors.New(errors.ErrCodeUnsupported, "unsupported settings format %q", format)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// EncodeTOML writes s as TOML.
func (s Settings) EncodeTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}
