// Package cache stores fetched source bodies and parsed datasets between
// runs.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry below a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [NullCache]: caching disabled
//
// Keys are derived by a [Keyer] so that every entry depends on exactly the
// inputs that produced it. [NewScopedKeyer] prefixes keys for isolation
// between tenants sharing one backend.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	// TTLSource bounds how long a fetched body is reused before refetching.
	TTLSource = 24 * time.Hour
	// TTLDataset bounds how long parsed records are kept. Dataset keys hash
	// the body, so a stale entry is never served for changed content.
	TTLDataset = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey is the key of a raw response in namespace.
	HTTPKey(namespace, key string) string
	// SourceKey is the key of the body fetched from url with headers.
	SourceKey(url string, headers map[string]string) string
	// DatasetKey is the key of the records parsed from a body with the
	// given content hash.
	DatasetKey(bodyHash string, opts DatasetKeyOpts) string
}

// DatasetKeyOpts holds the parse settings that change the records produced
// from a body.
type DatasetKeyOpts struct {
	MimeType string   `json:"mime_type"`
	KeyX     string   `json:"key_x,omitempty"`
	KeyValue []string `json:"key_value,omitempty"`
}

// DefaultKeyer derives keys by hashing their inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// SourceKey hashes url and headers. Header order does not matter.
func (DefaultKeyer) SourceKey(url string, headers map[string]string) string {
	return hashKey("source", url, headers)
}

// DatasetKey hashes the body hash and parse options.
func (DefaultKeyer) DatasetKey(bodyHash string, opts DatasetKeyOpts) string {
	return hashKey("dataset", bodyHash, opts)
}

var _ Keyer = DefaultKeyer{}
