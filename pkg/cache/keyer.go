package cache

// Keyer builds cache keys. Swapping the keyer (see [ScopedKeyer]) isolates
// namespaces without touching callers.
type Keyer interface {
	// LayoutKey addresses the annotated layout of a graph under settings.
	LayoutKey(graphHash, settingsHash string) string

	// MetricsKey addresses the metrics report of an annotated layout for a
	// set of measured edge types.
	MetricsKey(layoutHash string, opts MetricsKeyOpts) string
}

// MetricsKeyOpts are the inputs that change a metrics report besides the
// layout itself.
type MetricsKeyOpts struct {
	EdgeTypes []string `json:"edge_types"`
	Ports     bool     `json:"ports"`
}

// DefaultKeyer hashes key components into "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<hash>".
func (DefaultKeyer) LayoutKey(graphHash, settingsHash string) string {
	return hashKey("layout", graphHash, settingsHash)
}

// MetricsKey returns "metrics:<hash>".
func (DefaultKeyer) MetricsKey(layoutHash string, opts MetricsKeyOpts) string {
	return hashKey("metrics", layoutHash, opts)
}
