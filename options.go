package snapshotcache

import (
	"context"
	"log/slog"
	"time"

	"github.com/karupanerura/snapshot-cache/errorclass"
	"github.com/karupanerura/snapshot-cache/expiration"
)

// Option is the interface for the options of the DataManager.
type Option[V ValueConstraint] interface {
	apply(*DataManager[V])
}

type optionFunc[V ValueConstraint] func(*DataManager[V])

func (f optionFunc[V]) apply(m *DataManager[V]) {
	f(m)
}

// WithClock sets the clock used for expiry decisions.
// The default clock is SystemClock.
func WithClock[V ValueConstraint](clock Clock) Option[V] {
	return optionFunc[V](func(m *DataManager[V]) {
		m.clock = clock
	})
}

// WithDomainExpirationPolicy sets the policy applied to the value's own expiry.
// The default policy is expiration.UnixSecondsExpirationPolicy, matching the whole-second expiry of the value.
func WithDomainExpirationPolicy[V ValueConstraint](policy expiration.ExpirationPolicy) Option[V] {
	return optionFunc[V](func(m *DataManager[V]) {
		m.domainPolicy = policy
	})
}

// WithCacheExpirationPolicy sets the policy applied to the cache-level marker.
// The default policy is expiration.GeneralExpirationPolicy.
func WithCacheExpirationPolicy[V ValueConstraint](policy expiration.ExpirationPolicy) Option[V] {
	return optionFunc[V](func(m *DataManager[V]) {
		m.cachePolicy = policy
	})
}

// WithLogger sets the logger. The default logger is slog.Default().
func WithLogger[V ValueConstraint](logger *slog.Logger) Option[V] {
	return optionFunc[V](func(m *DataManager[V]) {
		m.logger = errorclass.NewLogger(logger)
	})
}

// WithOnBackgroundError sets a callback that receives errors of background refreshes.
// Those errors are logged regardless of the callback.
func WithOnBackgroundError[V ValueConstraint](f func(error)) Option[V] {
	return optionFunc[V](func(m *DataManager[V]) {
		m.onBackgroundError = f
	})
}

// WithBackgroundContextProvider sets the context provider for background refreshes.
// The provider must return a new context for each call.
// The default context provider is context.Background.
func WithBackgroundContextProvider[V ValueConstraint](provider func() context.Context) Option[V] {
	return optionFunc[V](func(m *DataManager[V]) {
		m.context = provider
	})
}

// WithFetchTimeout bounds every load with the given timeout.
// Zero, the default, means no timeout.
func WithFetchTimeout[V ValueConstraint](d time.Duration) Option[V] {
	return optionFunc[V](func(m *DataManager[V]) {
		m.fetchTimeout = d
	})
}
