// Package app assembles a booking DataManager from the runtime configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/booking"
	"github.com/karupanerura/snapshot-cache/errorclass"
	"github.com/karupanerura/snapshot-cache/expiration"
	"github.com/karupanerura/snapshot-cache/internal/config"
	"github.com/karupanerura/snapshot-cache/intervalupdater"
	"github.com/karupanerura/snapshot-cache/loader/pureloader"
	"github.com/karupanerura/snapshot-cache/loader/singleflightloader"
	"github.com/karupanerura/snapshot-cache/source"
	"github.com/karupanerura/snapshot-cache/source/httpsource"
	"github.com/karupanerura/snapshot-cache/storage"
	"github.com/karupanerura/snapshot-cache/storage/memstorage"
	"github.com/karupanerura/snapshot-cache/storage/redisstorage"
	"github.com/karupanerura/snapshot-cache/storage/sqlstorage"
)

// App owns the booking cache and the resources behind it.
type App struct {
	Manager *snapshotcache.DataManager[booking.Snapshot]
	Storage snapshotcache.CacheStorage[booking.Snapshot]
	Clock   snapshotcache.Clock

	cfg    *config.Config
	logger *errorclass.Logger
}

// Option customizes New.
type Option func(*settings)

type settings struct {
	clock   snapshotcache.Clock
	fetcher snapshotcache.Fetcher[booking.Snapshot]
	storage snapshotcache.CacheStorage[booking.Snapshot]
}

// WithClock replaces the system clock.
func WithClock(clock snapshotcache.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithFetcher replaces the fetcher built from the configured source.
// Retry and expiry validation are still applied around it.
func WithFetcher(f snapshotcache.Fetcher[booking.Snapshot]) Option {
	return func(s *settings) {
		s.fetcher = f
	}
}

// WithStorage replaces the storage opened from the configured backend.
func WithStorage(st snapshotcache.CacheStorage[booking.Snapshot]) Option {
	return func(s *settings) {
		s.storage = st
	}
}

// New opens the configured storage and builds the DataManager on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	s := settings{clock: snapshotcache.SystemClock}
	for _, o := range opts {
		o(&s)
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := s.storage
	if st == nil {
		var err error
		if st, err = openStorage(ctx, cfg, s.clock); err != nil {
			return nil, err
		}
	}

	a := &App{
		Storage: st,
		Clock:   s.clock,
		cfg:     cfg,
		logger:  errorclass.NewLogger(logger),
	}

	fetcher := s.fetcher
	if fetcher == nil {
		fetcher = a.newFetcher()
	}
	fetcher = &source.Lint[booking.Snapshot]{Fetcher: fetcher}
	if cfg.Retries > 0 {
		fetcher = &source.Retry[booking.Snapshot]{
			Fetcher:    fetcher,
			MaxRetries: uint64(cfg.Retries),
			OnRetry: func(err error, wait time.Duration) {
				a.logger.Warn(context.Background(), err, fmt.Sprintf("fetch failed, retrying in %s", wait))
			},
		}
	}

	// reads through the manager degrade to a miss; Status still sees the raw storage error
	cache := &storage.SilentErrorStorage[booking.Snapshot]{
		Storage: st,
		OnError: func(err error) {
			a.logger.Warn(context.Background(), err, fmt.Sprintf("failed to read %s cache, treating as a miss", cfg.CacheBackend))
		},
	}

	var loader snapshotcache.SourceLoader[booking.Snapshot] = pureloader.NewPureLoader(cache, fetcher,
		pureloader.WithClock[booking.Snapshot](s.clock),
		pureloader.WithCacheDuration[booking.Snapshot](cfg.CacheDuration),
		pureloader.WithLogger[booking.Snapshot](logger),
		pureloader.WithOnStoreError[booking.Snapshot](func(err error) {
			a.logger.Warn(context.Background(), err, "failed to store snapshot")
		}),
	)
	if cfg.SingleFlight {
		loader = singleflightloader.NewSingleFlightLoader(loader)
	}

	managerOpts := []snapshotcache.Option[booking.Snapshot]{
		snapshotcache.WithClock[booking.Snapshot](s.clock),
		snapshotcache.WithLogger[booking.Snapshot](logger),
		snapshotcache.WithFetchTimeout[booking.Snapshot](cfg.FetchTimeout),
	}
	if cfg.CacheJitter > 0 {
		managerOpts = append(managerOpts, snapshotcache.WithCacheExpirationPolicy[booking.Snapshot](
			&expiration.JitterExpirationPolicy{Window: cfg.CacheJitter},
		))
	}
	a.Manager = snapshotcache.NewDataManager(cache, loader, managerOpts...)
	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, clock snapshotcache.Clock) (snapshotcache.CacheStorage[booking.Snapshot], error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		return memstorage.NewInMemoryStorage[booking.Snapshot](), nil

	case config.BackendRedis:
		st, err := redisstorage.Dial[booking.Snapshot](ctx, cfg.CacheDSN, cfg.CacheKey)
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		backend, err := sqlstorage.ParseBackend(cfg.CacheBackend)
		if err != nil {
			return nil, err
		}
		st, err := sqlstorage.Open[booking.Snapshot](ctx, backend, cfg.CacheDSN,
			sqlstorage.WithKey(cfg.CacheKey),
			sqlstorage.WithTableName(cfg.CacheTable),
			sqlstorage.WithClock(clock),
		)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

func (a *App) newFetcher() snapshotcache.Fetcher[booking.Snapshot] {
	if a.cfg.Source == config.SourceHTTP {
		opts := []httpsource.Option{httpsource.WithUserAgent(a.cfg.UserAgent)}
		if a.cfg.SourceToken != "" {
			opts = append(opts, httpsource.WithBearerToken(a.cfg.SourceToken))
		}
		return httpsource.New[booking.Snapshot](a.cfg.SourceURL, opts...)
	}
	return &source.Delayed[booking.Snapshot]{
		Fetcher: booking.NewMockFetcher(a.Clock, booking.DefaultMockValidity),
		Delay:   a.cfg.MockDelay,
	}
}

// Get returns the booking snapshot with IsStale derived from the read.
func (a *App) Get(ctx context.Context, forceRefresh bool) (booking.Snapshot, error) {
	entry, err := a.Manager.Get(ctx, forceRefresh)
	if err != nil {
		return booking.Snapshot{}, err
	}
	return booking.FromEntry(entry), nil
}

// Status describes what is currently persisted, without loading anything.
type Status struct {
	Backend string `json:"backend"`
	Key     string `json:"key"`

	// Cached is false when nothing is persisted.
	Cached bool `json:"cached"`

	ShipReference  string    `json:"shipReference,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CacheExpiresAt time.Time `json:"cacheExpiresAt"`
	Expired        bool      `json:"expired"`
	CacheExpired   bool      `json:"cacheExpired"`
}

// Status reads the persisted entry and reports both expiries against the app clock.
func (a *App) Status(ctx context.Context) (*Status, error) {
	st := &Status{Backend: a.cfg.CacheBackend, Key: a.cfg.CacheKey}
	entry, err := a.Storage.Get(ctx)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return st, nil
	}

	now := a.Clock.Now()
	st.Cached = true
	st.ShipReference = entry.Value.ShipReference
	st.ExpiresAt = entry.Value.ExpiresAt()
	st.CacheExpiresAt = entry.ExpiresAt
	st.Expired = entry.Value.IsExpired(now)
	st.CacheExpired = entry.IsExpired(expiration.GeneralExpirationPolicy{}, now)
	return st, nil
}

// StartRefresher keeps the cache warm by refreshing it at the configured interval until ctx is done.
// It returns nil when no interval is configured. Failed refreshes are logged by the manager.
func (a *App) StartRefresher(ctx context.Context) <-chan struct{} {
	if a.cfg.RefreshInterval <= 0 {
		return nil
	}
	updater := intervalupdater.NewIntervalUpdater(a.Manager, a.cfg.RefreshInterval, nil)
	return updater.LaunchBackgroundUpdater(ctx)
}

// Close waits for background refreshes and releases the storage.
func (a *App) Close() error {
	a.Manager.Wait()
	if c, ok := a.Storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close cache storage: %w", err)
		}
	}
	return nil
}

// Clear removes the persisted snapshot.
func (a *App) Clear(ctx context.Context) error {
	return a.Manager.Clear(ctx)
}
