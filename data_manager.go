package snapshotcache

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/karupanerura/snapshot-cache/errorclass"
	"github.com/karupanerura/snapshot-cache/expiration"
)

// DataManager serves a single cached snapshot.
// It decides on every call whether to return the cached value, load a fresh one synchronously,
// or return the cached value while refreshing it in the background.
type DataManager[V ValueConstraint] struct {
	storage CacheStorage[V]
	loader  SourceLoader[V]

	clock             Clock
	domainPolicy      expiration.ExpirationPolicy
	cachePolicy       expiration.ExpirationPolicy
	logger            *errorclass.Logger
	onBackgroundError func(error)
	context           func() context.Context
	fetchTimeout      time.Duration

	background conc.WaitGroup
}

// NewDataManager creates a new DataManager.
// The loader must store into the same storage that is given here.
func NewDataManager[V ValueConstraint](storage CacheStorage[V], loader SourceLoader[V], opts ...Option[V]) *DataManager[V] {
	m := &DataManager[V]{
		storage:      storage,
		loader:       loader,
		clock:        SystemClock,
		domainPolicy: expiration.UnixSecondsExpirationPolicy{},
		cachePolicy:  expiration.GeneralExpirationPolicy{},
		context:      context.Background,
	}
	for _, o := range opts {
		o.apply(m)
	}
	if m.logger == nil {
		m.logger = errorclass.NewLogger(slog.Default())
	}
	return m
}

// Get returns the snapshot.
//
// If forceRefresh is true, a fresh value is always loaded and a load failure is returned without any fallback.
// Otherwise the cached entry is used when both the domain expiry and the cache marker are valid,
// a fresh value is loaded when there is no entry or the domain expiry has passed,
// and the cached value is returned while a background load runs when only the cache marker has passed.
//
// When a load fails on that path, the last persisted entry is returned with Stale set,
// even if it has expired. The error is returned only if nothing is persisted at all.
func (m *DataManager[V]) Get(ctx context.Context, forceRefresh bool) (*Entry[V], error) {
	if forceRefresh {
		value, err := m.load(ctx)
		if err != nil {
			m.logger.LogError(ctx, err, "DataManager.Get(refresh)")
			return nil, err
		}
		return &Entry[V]{Value: value}, nil
	}

	entry, err := m.resolve(ctx)
	if err == nil {
		return entry, nil
	}
	m.logger.LogError(ctx, err, "DataManager.Get")

	cached := m.readCache(ctx)
	if cached == nil {
		return nil, err
	}
	m.logger.Info(ctx, "serving expired cache after load failure",
		slog.Time("cache_expires_at", cached.ExpiresAt),
	)
	return &Entry[V]{Value: cached.Value, Stale: true}, nil
}

// resolve applies the retrieval policy without any failure fallback.
func (m *DataManager[V]) resolve(ctx context.Context) (*Entry[V], error) {
	cached := m.readCache(ctx)
	if cached == nil {
		value, err := m.load(ctx)
		if err != nil {
			return nil, err
		}
		return &Entry[V]{Value: value}, nil
	}

	now := m.clock.Now()
	if m.domainPolicy.IsExpired(now, cached.Value.ExpiresAt()) {
		m.logger.Info(ctx, "cached snapshot expired, loading a fresh one",
			slog.Time("expires_at", cached.Value.ExpiresAt()),
		)
		value, err := m.load(ctx)
		if err != nil {
			return nil, err
		}
		return &Entry[V]{Value: value}, nil
	}

	if cached.IsExpired(m.cachePolicy, now) {
		m.logger.Info(ctx, "cache marker expired but snapshot still valid, refreshing in background",
			slog.Time("cache_expires_at", cached.ExpiresAt),
		)
		m.refreshInBackground()
		return &Entry[V]{Value: cached.Value}, nil
	}

	m.logger.Debug(ctx, "serving cached snapshot",
		slog.Time("expires_at", cached.Value.ExpiresAt()),
		slog.Time("cache_expires_at", cached.ExpiresAt),
	)
	return &Entry[V]{Value: cached.Value}, nil
}

// readCache reads the stored entry. A read failure is logged and treated as a cache miss.
func (m *DataManager[V]) readCache(ctx context.Context) *CacheEntry[V] {
	cached, err := m.storage.Get(ctx)
	if err != nil {
		m.logger.Warn(ctx, err, "failed to read cache, treating as a miss")
		return nil
	}
	return cached
}

// load invokes the loader, bounded by the fetch timeout if one is set.
func (m *DataManager[V]) load(ctx context.Context) (V, error) {
	if m.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
		defer cancel()
	}
	return m.loader.LoadAndStore(ctx)
}

// refreshInBackground launches a detached load. The caller never waits for it and never sees its error.
func (m *DataManager[V]) refreshInBackground() {
	ctx := m.context()
	m.background.Go(func() {
		var (
			pc  panics.Catcher
			err error
		)
		pc.Try(func() {
			_, err = m.load(ctx)
		})
		if r := pc.Recovered(); r != nil {
			err = r.AsError()
		}
		if err != nil {
			m.logger.Warn(ctx, err, "background refresh failed")
			if m.onBackgroundError != nil {
				m.onBackgroundError(err)
			}
		}
	})
}

// Refresh loads a fresh snapshot into the cache, like Get with forceRefresh, and discards the value.
// A failure is logged once here, so callers only need to react to the returned error.
func (m *DataManager[V]) Refresh(ctx context.Context) error {
	if _, err := m.load(ctx); err != nil {
		m.logger.LogError(ctx, err, "DataManager.Refresh")
		return err
	}
	return nil
}

// Wait blocks until every background refresh launched so far has finished.
// Get never calls it; it exists for graceful shutdown.
func (m *DataManager[V]) Wait() {
	m.background.Wait()
}

// Clear removes the cached entry. The next Get behaves as a cold start.
func (m *DataManager[V]) Clear(ctx context.Context) error {
	if err := m.storage.Clear(ctx); err != nil {
		m.logger.LogError(ctx, err, "DataManager.Clear")
		return err
	}
	return nil
}
