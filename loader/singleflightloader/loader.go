package singleflightloader

import (
	"context"

	"golang.org/x/sync/singleflight"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// flightKey is the only key; a loader serves a single snapshot.
const flightKey = "snapshot"

// SingleFlightLoader is a SourceLoader that uses a single flight mechanism to load values.
type SingleFlightLoader[V snapshotcache.ValueConstraint] struct {
	loader  snapshotcache.SourceLoader[V]
	cloner  snapshotcache.ValueCloner[V]
	context func() context.Context

	group singleflight.Group
}

// NewSingleFlightLoader creates a new SingleFlightLoader wrapping loader.
func NewSingleFlightLoader[V snapshotcache.ValueConstraint](loader snapshotcache.SourceLoader[V], opts ...Option[V]) *SingleFlightLoader[V] {
	l := &SingleFlightLoader[V]{
		loader:  loader,
		context: context.Background,
	}
	for _, o := range opts {
		o.apply(l)
	}
	if l.cloner == nil {
		l.cloner = snapshotcache.DefaultValueCloner[V]()
	}
	return l
}

// LoadAndStore joins the in-flight load if there is one, or starts a new one.
// If ctx is done before the load finishes, it returns the context error while the load keeps running.
func (l *SingleFlightLoader[V]) LoadAndStore(ctx context.Context) (V, error) {
	ch := l.group.DoChan(flightKey, func() (any, error) {
		return l.loader.LoadAndStore(l.context())
	})

	var zero V
	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		value := r.Val.(V)
		if r.Shared {
			// note: every receiver of a shared result gets its own copy
			value = l.cloner.CloneValue(value)
		}
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
