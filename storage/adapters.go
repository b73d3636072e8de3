package storage

import (
	"context"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// SilentErrorStorage is a decorator for a snapshotcache.CacheStorage that silently handles
// read errors. Instead of propagating them, it calls the provided OnError function and reports a miss.
// Write and clear errors are propagated, since the caller decides how to react to them.
type SilentErrorStorage[V snapshotcache.ValueConstraint] struct {
	// Storage is the underlying storage that this decorator wraps.
	Storage snapshotcache.CacheStorage[V]

	// OnError is a function that is called when a read error occurs.
	// The error is passed to the function as an argument.
	OnError func(error)
}

// Get retrieves the entry from the underlying storage.
// If an error occurs during the retrieval process and an OnError handler is set, the error
// will be passed to the OnError handler. If an error occurs, the method returns nil entry and nil error.
func (s *SilentErrorStorage[V]) Get(ctx context.Context) (*snapshotcache.CacheEntry[V], error) {
	entry, err := s.Storage.Get(ctx)
	if err != nil {
		if s.OnError != nil {
			s.OnError(err)
		}
		return nil, nil
	}
	return entry, nil
}

// Set stores the entry in the underlying storage and returns its error, if any.
func (s *SilentErrorStorage[V]) Set(ctx context.Context, entry *snapshotcache.CacheEntry[V]) error {
	return s.Storage.Set(ctx, entry)
}

// Clear clears the underlying storage and returns its error, if any.
func (s *SilentErrorStorage[V]) Clear(ctx context.Context) error {
	return s.Storage.Clear(ctx)
}

// FunctionsStorage is a snapshotcache.CacheStorage implementation that uses functions to perform the storage operations.
type FunctionsStorage[V snapshotcache.ValueConstraint] struct {
	// GetFunc retrieves the stored entry.
	// If nothing is stored, it should return nil as the CacheEntry.
	GetFunc func(context.Context) (*snapshotcache.CacheEntry[V], error)

	// SetFunc stores the entry, replacing any existing one.
	SetFunc func(context.Context, *snapshotcache.CacheEntry[V]) error

	// ClearFunc removes the stored entry.
	ClearFunc func(context.Context) error
}

// Get calls the GetFunc function to retrieve the entry.
func (s *FunctionsStorage[V]) Get(ctx context.Context) (*snapshotcache.CacheEntry[V], error) {
	return s.GetFunc(ctx)
}

// Set calls the SetFunc function to store the entry.
func (s *FunctionsStorage[V]) Set(ctx context.Context, entry *snapshotcache.CacheEntry[V]) error {
	return s.SetFunc(ctx, entry)
}

// Clear calls the ClearFunc function to remove the entry.
func (s *FunctionsStorage[V]) Clear(ctx context.Context) error {
	return s.ClearFunc(ctx)
}
