package cache

// ScopedKeyer wraps a Keyer with a prefix so multiple tools can share
// one backend without key collisions. The serve command scopes its keys;
// the local CLI cache uses the unscoped default.
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

// SheetKey generates a prefixed sheet key.
func (k *ScopedKeyer) SheetKey(configHash, framesHash string) string {
	return k.prefix + k.inner.SheetKey(configHash, framesHash)
}

// DescriptorKey generates a prefixed descriptor key.
func (k *ScopedKeyer) DescriptorKey(configHash, framesHash string) string {
	return k.prefix + k.inner.DescriptorKey(configHash, framesHash)
}

// FrameKey generates a prefixed frame key.
func (k *ScopedKeyer) FrameKey(path, contentHash string) string {
	return k.prefix + k.inner.FrameKey(path, contentHash)
}
