package singleflightloader

import (
	"context"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// Option is the interface for the options of the SingleFlightLoader.
type Option[V snapshotcache.ValueConstraint] interface {
	apply(*SingleFlightLoader[V])
}

type optionFunc[V snapshotcache.ValueConstraint] func(*SingleFlightLoader[V])

func (f optionFunc[V]) apply(l *SingleFlightLoader[V]) {
	f(l)
}

// WithCloner sets the value cloner to the loader.
// The default value cloner is snapshotcache.DefaultValueCloner.
func WithCloner[V snapshotcache.ValueConstraint](cloner snapshotcache.ValueCloner[V]) Option[V] {
	return optionFunc[V](func(l *SingleFlightLoader[V]) {
		l.cloner = cloner
	})
}

// WithBackgroundContextProvider sets the context provider to the loader.
// The provider must return a new context for each call.
// The default context provider is context.Background.
func WithBackgroundContextProvider[V snapshotcache.ValueConstraint](provider func() context.Context) Option[V] {
	return optionFunc[V](func(l *SingleFlightLoader[V]) {
		l.context = provider
	})
}
