// Package pureloader provides a SourceLoader that fetches and stores sequentially.
package pureloader

import (
	"context"
	"log/slog"
	"time"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/errorclass"
)

// PureLoader is a simple SourceLoader for sequential tasks.
// It fetches a value from a fetcher and caches it. Concurrent callers each perform their own fetch.
type PureLoader[V snapshotcache.ValueConstraint] struct {
	fetcher      snapshotcache.Fetcher[V]
	storage      snapshotcache.CacheStorage[V]
	clock        snapshotcache.Clock
	duration     time.Duration
	onStoreError func(error)
	logger       *errorclass.Logger
}

// NewPureLoader creates a new PureLoader with the given storage and fetcher.
func NewPureLoader[V snapshotcache.ValueConstraint](storage snapshotcache.CacheStorage[V], fetcher snapshotcache.Fetcher[V], opts ...Option[V]) *PureLoader[V] {
	l := &PureLoader[V]{
		fetcher:  fetcher,
		storage:  storage,
		clock:    snapshotcache.SystemClock,
		duration: snapshotcache.DefaultCacheDuration,
	}
	for _, o := range opts {
		o.apply(l)
	}
	if l.logger == nil {
		l.logger = errorclass.NewLogger(slog.Default())
	}
	return l
}

// LoadAndStore fetches a value, stores it with a cache marker of now plus the cache duration, and returns it.
// A fetch failure is returned as is. A store failure is passed to the store error handler,
// or logged as a warning when there is none, and the freshly fetched value is still returned.
func (p *PureLoader[V]) LoadAndStore(ctx context.Context) (V, error) {
	value, err := p.fetcher.Fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	entry := &snapshotcache.CacheEntry[V]{
		Value:     value,
		ExpiresAt: p.clock.Now().Add(p.duration),
	}
	if err := p.storage.Set(ctx, entry); err != nil {
		if p.onStoreError != nil {
			p.onStoreError(err)
		} else {
			p.logger.Warn(ctx, err, "failed to store fetched value")
		}
	}
	return value, nil
}
