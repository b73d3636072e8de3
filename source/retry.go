package source

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/errorclass"
)

// Retry is a fetcher that retries another fetcher with exponential backoff and jitter.
// Only retryable failures are retried; other failures are returned immediately.
type Retry[V snapshotcache.ValueConstraint] struct {
	Fetcher snapshotcache.Fetcher[V]

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64

	// InitialInterval is the first backoff interval. Zero means backoff.DefaultInitialInterval.
	InitialInterval time.Duration

	// MaxInterval caps a single backoff interval. Zero means backoff.DefaultMaxInterval.
	MaxInterval time.Duration

	// IsRetryable reports whether a failure should be retried. Nil means IsRetryable.
	IsRetryable func(error) bool

	// OnRetry is called before each retry with the failure and the wait.
	OnRetry func(err error, wait time.Duration)
}

var _ snapshotcache.Fetcher[stubValue] = (*Retry[stubValue])(nil)

// Fetch calls the fetcher until it succeeds, a failure is not retryable, the retries run out or ctx is done.
func (f *Retry[V]) Fetch(ctx context.Context) (V, error) {
	retryable := f.IsRetryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var value V
	operation := func() error {
		v, err := f.Fetcher.Fetch(ctx)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		value = v
		return nil
	}

	if err := backoff.RetryNotify(operation, f.backOff(ctx), f.OnRetry); err != nil {
		var zero V
		return zero, err
	}
	return value, nil
}

func (f *Retry[V]) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if f.InitialInterval > 0 {
		b.InitialInterval = f.InitialInterval
	}
	if f.MaxInterval > 0 {
		b.MaxInterval = f.MaxInterval
	}
	// the number of retries bounds the loop, not the elapsed time
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, f.MaxRetries), ctx)
}

// IsRetryable reports whether err is worth another attempt:
// transport failures and the 500, 502, 503 and 504 responses.
// Cancellation and deadline errors of the caller's context are never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch errorclass.Classify(err).Kind {
	case errorclass.KindNetwork, errorclass.KindServer:
		return true
	default:
		return false
	}
}
