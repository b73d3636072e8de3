package memstorage

import (
	"context"
	"sync"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// Storage is an in-memory single-entry cache storage.
type Storage[V snapshotcache.ValueConstraint] struct {
	mu      sync.RWMutex
	entry   *snapshotcache.CacheEntry[V]
	options options[V]
}

// NewInMemoryStorage creates a new in-memory cache storage.
// Unless WithCloner is given, values are cloned with snapshotcache.DefaultValueCloner.
func NewInMemoryStorage[V snapshotcache.ValueConstraint](opts ...Option[V]) *Storage[V] {
	options := defaultOptions[V]()
	for _, opt := range opts {
		opt.apply(&options)
	}
	if options.cloner == nil {
		options.cloner = snapshotcache.DefaultValueCloner[V]()
	}
	return &Storage[V]{options: options}
}

// Get returns a copy of the stored entry, or nil if nothing is stored.
func (s *Storage[V]) Get(_ context.Context) (*snapshotcache.CacheEntry[V], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entry == nil {
		return nil, nil
	}
	return cloneCacheEntry(s.options.cloner, s.entry), nil
}

// Set replaces the stored entry with a copy of entry.
func (s *Storage[V]) Set(_ context.Context, entry *snapshotcache.CacheEntry[V]) error {
	cloned := cloneCacheEntry(s.options.cloner, entry)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = cloned
	return nil
}

// Clear removes the stored entry.
func (s *Storage[V]) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = nil
	return nil
}

func cloneCacheEntry[V snapshotcache.ValueConstraint](cloner snapshotcache.ValueCloner[V], v *snapshotcache.CacheEntry[V]) *snapshotcache.CacheEntry[V] {
	return &snapshotcache.CacheEntry[V]{
		Value:     cloner.CloneValue(v.Value),
		ExpiresAt: v.ExpiresAt,
	}
}
