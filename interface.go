// Package snapshotcache keeps a single remotely fetched snapshot in a local cache storage
// and decides, on every read, whether to serve the cached copy, fetch synchronously,
// or serve the cached copy while refreshing it in the background.
package snapshotcache

import (
	"context"
	"time"

	"github.com/karupanerura/snapshot-cache/expiration"
)

// DefaultCacheDuration is the default lifetime of the cache-level expiry marker.
const DefaultCacheDuration = 5 * time.Minute

// ValueConstraint is an interface for value constraints.
// A value carries its own domain expiry, which is independent of the cache-level expiry.
type ValueConstraint interface {
	// ExpiresAt returns the time at which the value itself is no longer valid.
	ExpiresAt() time.Time
}

// Entry is a value returned to the caller.
type Entry[V ValueConstraint] struct {
	// Value is the snapshot.
	Value V

	// Stale indicates that the value was served from the cache as a fallback
	// because a live fetch failed.
	Stale bool
}

// CacheEntry is a persisted value with a cache-level expiration time.
// The value and the expiration time are always written together.
type CacheEntry[V ValueConstraint] struct {
	// Value is the cached snapshot.
	Value V

	// ExpiresAt is the cache-level expiration time of the entry.
	// It is computed as write time plus the cache duration.
	// A zero value means the marker is missing and the entry is treated as expired.
	ExpiresAt time.Time
}

// IsExpired reports whether the cache-level marker of the entry has passed.
func (e *CacheEntry[V]) IsExpired(policy expiration.ExpirationPolicy, now time.Time) bool {
	return policy.IsExpired(now, e.ExpiresAt)
}

// CacheStorage is an interface for a cache storage backend holding one entry.
// Implementations must be thread-safe.
type CacheStorage[V ValueConstraint] interface {
	// Get retrieves the stored entry.
	// If nothing is stored, it should return nil as the CacheEntry.
	// It must not filter out expired entries; expiry decisions belong to the caller.
	Get(context.Context) (*CacheEntry[V], error)

	// Set stores the entry, replacing the value and the expiration time in a single write.
	Set(context.Context, *CacheEntry[V]) error

	// Clear removes the stored entry.
	// Clearing an empty storage is not an error.
	Clear(context.Context) error
}

// Fetcher is an interface for retrieving a fresh snapshot from a remote source.
type Fetcher[V ValueConstraint] interface {
	// Fetch retrieves a fresh value.
	Fetch(context.Context) (V, error)
}

// FetcherFunc is a function type that implements the Fetcher interface.
type FetcherFunc[V ValueConstraint] func(context.Context) (V, error)

// Fetch calls the function.
func (f FetcherFunc[V]) Fetch(ctx context.Context) (V, error) {
	return f(ctx)
}

// SourceLoader is an interface for fetching a fresh value and storing it in the cache storage.
// Implementations must be thread-safe.
type SourceLoader[V ValueConstraint] interface {
	// LoadAndStore fetches a fresh value, stores it in the cache storage and returns it.
	// A fetch failure is returned as is.
	LoadAndStore(context.Context) (V, error)
}
