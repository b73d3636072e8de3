package snapshotcache_test

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/booking"
	"github.com/karupanerura/snapshot-cache/loader/pureloader"
	"github.com/karupanerura/snapshot-cache/storage/memstorage"
)

func ExampleDataManager_Get() {
	ctx := context.Background()
	clock := snapshotcache.FixedClock(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))

	store := memstorage.NewInMemoryStorage[booking.Snapshot]()
	fetcher := booking.NewMockFetcher(clock, 2*time.Hour)
	loader := pureloader.NewPureLoader(store, fetcher, pureloader.WithClock[booking.Snapshot](clock))
	manager := snapshotcache.NewDataManager(store, loader,
		snapshotcache.WithClock[booking.Snapshot](clock),
		snapshotcache.WithLogger[booking.Snapshot](slog.New(slog.DiscardHandler)),
	)
	defer manager.Wait()

	entry, err := manager.Get(ctx, false)
	if err != nil {
		panic(err)
	}
	snapshot := booking.FromEntry(entry)
	fmt.Println(snapshot.ShipReference, len(snapshot.Segments), snapshot.IsStale)
	fmt.Println(booking.RemainingTime(clock.Now(), snapshot.ExpiryTime))
	// Output:
	// ABCDEF 3 false
	// 2h 0m
}
