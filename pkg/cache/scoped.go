package cache

// ScopedKeyer prefixes every key of an inner keyer. The server uses it to
// keep its entries apart from CLI runs sharing the same Redis instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "server:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(graphHash, settingsHash string) string {
	return k.prefix + k.inner.LayoutKey(graphHash, settingsHash)
}

// MetricsKey generates a prefixed metrics key.
func (k *ScopedKeyer) MetricsKey(layoutHash string, opts MetricsKeyOpts) string {
	return k.prefix + k.inner.MetricsKey(layoutHash, opts)
}
