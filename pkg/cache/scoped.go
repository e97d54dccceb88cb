package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. Runners sharing one
// Redis instance use distinct prefixes so their entries never collide:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "tabula:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix. A nil inner keyer
// selects the default.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

func (k *ScopedKeyer) SourceKey(url string, headers map[string]string) string {
	return k.prefix + k.inner.SourceKey(url, headers)
}

func (k *ScopedKeyer) DatasetKey(bodyHash string, opts DatasetKeyOpts) string {
	return k.prefix + k.inner.DatasetKey(bodyHash, opts)
}
