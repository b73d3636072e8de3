// Package intervalupdater refreshes a cached snapshot at a fixed interval, so that readers keep hitting a warm cache.
package intervalupdater

import (
	"context"
	"time"
)

// Refresher is implemented by anything that can reload its snapshot, such as snapshotcache.DataManager.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc is a function type that implements the Refresher interface.
type RefresherFunc func(ctx context.Context) error

// Refresh calls the function.
func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

// IntervalUpdater is a background updater that refreshes a snapshot at a fixed interval.
type IntervalUpdater struct {
	refresher         Refresher
	interval          time.Duration
	onBackgroundError func(error)
}

// NewIntervalUpdater creates a new IntervalUpdater.
// Errors of background refreshes are passed to onBackgroundError; they never stop the updater.
func NewIntervalUpdater(refresher Refresher, interval time.Duration, onBackgroundError func(error)) *IntervalUpdater {
	return &IntervalUpdater{
		refresher:         refresher,
		interval:          interval,
		onBackgroundError: onBackgroundError,
	}
}

// LaunchBackgroundUpdater starts the background updater and returns a channel that is closed when it stops.
// The background updater can be stopped by canceling the context passed to LaunchBackgroundUpdater.
func (u *IntervalUpdater) LaunchBackgroundUpdater(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		u.poll(ctx)
	}()
	return done
}

// poll refreshes immediately and then at the fixed interval.
func (u *IntervalUpdater) poll(ctx context.Context) {
	u.refresh(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			u.refresh(ctx)
		}
	}
}

func (u *IntervalUpdater) refresh(ctx context.Context) {
	if err := u.refresher.Refresh(ctx); err != nil && ctx.Err() == nil && u.onBackgroundError != nil {
		u.onBackgroundError(err)
	}
}
