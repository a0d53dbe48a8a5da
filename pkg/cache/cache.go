// Package cache provides the storage layer used to avoid redundant registry
// and audit-service calls across runs.
//
// All backends implement [Cache], a small byte-oriented key/value interface
// with per-entry TTLs:
//
//   - [NullCache]: never stores anything (--no-cache)
//   - [FileCache]: one JSON file per entry under ~/.cache/stackaudit/
//   - [MemoryCache]: bounded in-process LRU
//   - [SQLiteCache]: single-file database with zstd-compressed values
//   - [RedisCache]: shared cache for server deployments
//   - [MongoCache]: shared cache backed by a MongoDB collection
//
// Use [Open] to construct a backend from a [Config]. Keys are produced by a
// [Keyer] so that HTTP responses and audit reports never collide.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores opaque byte values by key.
//
// Get reports a miss as (nil, false, nil); expired entries are misses.
// A ttl of 0 passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys for the different kinds of cached data.
type Keyer interface {
	// HTTPKey generates a key for a cached registry response.
	HTTPKey(namespace, key string) string
	// ReportKey generates a key for a cached audit report of one package.
	ReportKey(ecosystem, purl string) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ReportKey hashes the lowercased purl so that keys have a fixed length
// regardless of coordinate size.
func (DefaultKeyer) ReportKey(ecosystem, purl string) string {
	return hashKey("report:"+ecosystem, strings.ToLower(purl))
}
