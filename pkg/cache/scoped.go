package cache

// ScopedKeyer wraps a Keyer with a prefix. The server scopes keys by OSS
// Index account so that reports fetched with different credentials (and
// therefore different rate limits and visibility) are kept apart.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "user:"+cache.Hash([]byte(username))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ReportKey generates a prefixed key for audit report caching.
func (k *ScopedKeyer) ReportKey(ecosystem, purl string) string {
	return k.prefix + k.inner.ReportKey(ecosystem, purl)
}
