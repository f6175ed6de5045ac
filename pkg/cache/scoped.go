package cache

// ScopedKeyer prepends a prefix to every key from an inner Keyer. The HTTP
// service uses it to namespace entries by API version, so a change to the
// response format never serves bytes cached by an older deployment.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer whose keys all start with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// FilterKey implements Keyer.
func (k *ScopedKeyer) FilterKey(filter, inputHash string, opts any) string {
	return k.prefix + k.inner.FilterKey(filter, inputHash, opts)
}
