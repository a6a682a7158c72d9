// Package cache remembers which documents have already been rendered.
//
// A document's key hashes its layered file, its descriptor and every option
// that changes output pixels or paths. On a hit the cached entry lists the
// files that were written; if they all still exist the document is skipped
// without decoding.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}

// TTLDocument is how long a rendered document stays cached. Entries are
// validated against the files on disk, so they never need to expire.
const TTLDocument time.Duration = 0

// DocumentKeyOpts are the render options that affect a document's outputs.
type DocumentKeyOpts struct {
	Document        string // base name, which outputs are named after
	OutputDir       string
	Bounds          string
	Compression     string
	AllowDuplicates bool
}

// Keyer generates cache keys.
type Keyer interface {
	DocumentKey(documentHash, descriptorHash string, opts DocumentKeyOpts) string
}

// DefaultKeyer generates keys of the form "doc:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DocumentKey returns the key for a document render.
func (DefaultKeyer) DocumentKey(documentHash, descriptorHash string, opts DocumentKeyOpts) string {
	return hashKey("doc", documentHash, descriptorHash, opts)
}

// NullCache never stores anything. The CLI uses it for --no-cache, and the
// runner falls back to it when no cache is given.
type NullCache struct{}

// NewNullCache returns a cache on which every lookup misses.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

var (
	_ Cache = NullCache{}
	_ Cache = (*FileCache)(nil)
)
