package booking

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

//go:embed mockdata/booking.json
var mockBooking []byte

// DefaultMockValidity is how long a mock snapshot stays valid after it is fetched.
const DefaultMockValidity = time.Hour

// NewMockFetcher returns a fetcher that serves the bundled booking.
// The expiry of every fetched snapshot is set to the clock's now plus validity,
// so that the mock data never starts out expired.
func NewMockFetcher(clock snapshotcache.Clock, validity time.Duration) snapshotcache.Fetcher[Snapshot] {
	if clock == nil {
		clock = snapshotcache.SystemClock
	}
	if validity <= 0 {
		validity = DefaultMockValidity
	}
	return snapshotcache.FetcherFunc[Snapshot](func(ctx context.Context) (Snapshot, error) {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}

		var s Snapshot
		if err := json.Unmarshal(mockBooking, &s); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode mock booking: %w", err)
		}
		s.ExpiryTime = clock.Now().Add(validity).Unix()
		return s, nil
	})
}
