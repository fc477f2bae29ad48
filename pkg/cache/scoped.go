package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several deployments
// or schema versions can share one backend without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ngv:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PlacementKey returns the prefixed key of the inner keyer.
func (k *ScopedKeyer) PlacementKey(opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(opts)
}
