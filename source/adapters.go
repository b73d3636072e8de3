package source

import (
	"context"
	"errors"
	"time"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// ErrMissingExpiry is returned by Lint when a fetched value does not carry a domain expiry.
var ErrMissingExpiry = errors.New("fetched value has no expiry time")

// Lint is a fetcher that validates the values of another fetcher.
// A value without a domain expiry would be treated as expired on every read, so it is rejected
// before it reaches the cache storage.
type Lint[V snapshotcache.ValueConstraint] struct {
	Fetcher snapshotcache.Fetcher[V]
}

var _ snapshotcache.Fetcher[stubValue] = (*Lint[stubValue])(nil)

// Fetch retrieves a value from the fetcher and checks its expiry time.
func (f *Lint[V]) Fetch(ctx context.Context) (V, error) {
	value, err := f.Fetcher.Fetch(ctx)
	if err != nil {
		return value, err
	}
	if value.ExpiresAt().IsZero() {
		var zero V
		return zero, ErrMissingExpiry
	}
	return value, nil
}

// Delayed is a fetcher that waits before delegating to another fetcher.
// It simulates the latency of a remote service.
type Delayed[V snapshotcache.ValueConstraint] struct {
	Fetcher snapshotcache.Fetcher[V]

	// Delay is the time to wait before each fetch.
	Delay time.Duration
}

var _ snapshotcache.Fetcher[stubValue] = (*Delayed[stubValue])(nil)

// Fetch waits for the delay and then fetches. It gives up early when ctx is done.
func (f *Delayed[V]) Fetch(ctx context.Context) (V, error) {
	if f.Delay > 0 {
		timer := time.NewTimer(f.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return f.Fetcher.Fetch(ctx)
}

type stubValue struct{}

func (stubValue) ExpiresAt() time.Time { return time.Time{} }
