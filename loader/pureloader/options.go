package pureloader

import (
	"log/slog"
	"time"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/errorclass"
)

// Option is the interface for the options of the PureLoader.
type Option[V snapshotcache.ValueConstraint] interface {
	apply(*PureLoader[V])
}

type optionFunc[V snapshotcache.ValueConstraint] func(*PureLoader[V])

func (f optionFunc[V]) apply(l *PureLoader[V]) {
	f(l)
}

// WithClock sets the clock used to compute the cache marker.
func WithClock[V snapshotcache.ValueConstraint](clock snapshotcache.Clock) Option[V] {
	return optionFunc[V](func(l *PureLoader[V]) {
		l.clock = clock
	})
}

// WithCacheDuration sets the lifetime of the cache marker.
// The default is snapshotcache.DefaultCacheDuration.
func WithCacheDuration[V snapshotcache.ValueConstraint](d time.Duration) Option[V] {
	return optionFunc[V](func(l *PureLoader[V]) {
		l.duration = d
	})
}

// WithOnStoreError sets a callback for failures to store a freshly fetched value.
// Without one, the failure is logged.
func WithOnStoreError[V snapshotcache.ValueConstraint](f func(error)) Option[V] {
	return optionFunc[V](func(l *PureLoader[V]) {
		l.onStoreError = f
	})
}

// WithLogger sets the logger for store failures that no callback handles. The default is slog.Default().
func WithLogger[V snapshotcache.ValueConstraint](logger *slog.Logger) Option[V] {
	return optionFunc[V](func(l *PureLoader[V]) {
		l.logger = errorclass.NewLogger(logger)
	})
}
