// Package cache provides pluggable byte caches for pipeline artifacts.
// A composed sheet is a pure function of the layout config and the input
// frame bytes, so cache keys are content hashes and entries never go
// stale silently: a changed input changes the key.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for the artifacts the pipeline produces.
type Keyer interface {
	// SheetKey identifies a composed sheet by config content and the
	// combined hash of its resolved input frames.
	SheetKey(configHash, framesHash string) string

	// DescriptorKey identifies the JSON layout descriptor for a sheet.
	DescriptorKey(configHash, framesHash string) string

	// FrameKey identifies a single decoded frame by file content.
	FrameKey(path, contentHash string) string
}

// DefaultKeyer builds unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SheetKey hashes the config and frame digests together.
func (k *DefaultKeyer) SheetKey(configHash, framesHash string) string {
	return hashKey("sheet", configHash, framesHash)
}

// DescriptorKey hashes the config and frame digests together.
func (k *DefaultKeyer) DescriptorKey(configHash, framesHash string) string {
	return hashKey("descriptor", configHash, framesHash)
}

// FrameKey keys a decoded frame on its path and content digest.
func (k *DefaultKeyer) FrameKey(path, contentHash string) string {
	return hashKey("frame", path, contentHash)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
