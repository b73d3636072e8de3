package memstorage

import (
	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// Option is the interface for the options of the in-memory cache storage.
type Option[V snapshotcache.ValueConstraint] interface {
	apply(*options[V])
}

type optionFunc[V snapshotcache.ValueConstraint] func(*options[V])

func (f optionFunc[V]) apply(o *options[V]) {
	f(o)
}

// WithCloner sets the value cloner to the storage.
func WithCloner[V snapshotcache.ValueConstraint](cloner snapshotcache.ValueCloner[V]) Option[V] {
	return optionFunc[V](func(o *options[V]) {
		o.cloner = cloner
	})
}

type options[V snapshotcache.ValueConstraint] struct {
	cloner snapshotcache.ValueCloner[V]
}

func defaultOptions[V snapshotcache.ValueConstraint]() options[V] {
	return options[V]{}
}
