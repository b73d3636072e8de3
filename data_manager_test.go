package snapshotcache_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/booking"
	"github.com/karupanerura/snapshot-cache/expiration"
	"github.com/karupanerura/snapshot-cache/loader/pureloader"
	"github.com/karupanerura/snapshot-cache/storage"
	"github.com/karupanerura/snapshot-cache/storage/memstorage"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// testFetcher serves REF-1, REF-2, ... valid for an hour, or fails with err.
type testFetcher struct {
	clock snapshotcache.Clock

	mu      sync.Mutex
	fetches int
	err     error
	panics  bool
	block   bool
}

func (f *testFetcher) Fetch(ctx context.Context) (booking.Snapshot, error) {
	f.mu.Lock()
	f.fetches++
	n, err, panics, block := f.fetches, f.err, f.panics, f.block
	f.mu.Unlock()

	if panics {
		panic("fetcher exploded")
	}
	if block {
		<-ctx.Done()
		return booking.Snapshot{}, ctx.Err()
	}
	if err != nil {
		return booking.Snapshot{}, err
	}
	return booking.Snapshot{
		ShipReference: fmt.Sprintf("REF-%d", n),
		ExpiryTime:    f.clock.Now().Add(time.Hour).Unix(),
		Duration:      3600,
	}, nil
}

func (f *testFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *testFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type harness struct {
	clock   *testClock
	storage snapshotcache.CacheStorage[booking.Snapshot]
	fetcher *testFetcher
	manager *snapshotcache.DataManager[booking.Snapshot]
}

var epoch = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, store snapshotcache.CacheStorage[booking.Snapshot], opts ...snapshotcache.Option[booking.Snapshot]) *harness {
	t.Helper()

	clock := &testClock{now: epoch}
	if store == nil {
		store = memstorage.NewInMemoryStorage[booking.Snapshot]()
	}
	fetcher := &testFetcher{clock: clock}
	loader := pureloader.NewPureLoader(store, fetcher,
		pureloader.WithClock[booking.Snapshot](clock),
		pureloader.WithLogger[booking.Snapshot](slog.New(slog.DiscardHandler)),
	)
	opts = append([]snapshotcache.Option[booking.Snapshot]{
		snapshotcache.WithClock[booking.Snapshot](clock),
		snapshotcache.WithLogger[booking.Snapshot](slog.New(slog.DiscardHandler)),
	}, opts...)
	return &harness{
		clock:   clock,
		storage: store,
		fetcher: fetcher,
		manager: snapshotcache.NewDataManager(store, loader, opts...),
	}
}

// seed stores a snapshot whose domain expiry and cache marker are offset from the clock.
func (h *harness) seed(t *testing.T, domainOffset, markerOffset time.Duration) booking.Snapshot {
	t.Helper()

	s := booking.Snapshot{
		ShipReference: "SEEDED",
		ExpiryTime:    epoch.Add(domainOffset).Unix(),
		Duration:      600,
	}
	err := h.storage.Set(t.Context(), &snapshotcache.CacheEntry[booking.Snapshot]{
		Value:     s,
		ExpiresAt: epoch.Add(markerOffset),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (h *harness) stored(t *testing.T) *snapshotcache.CacheEntry[booking.Snapshot] {
	t.Helper()

	entry, err := h.storage.Get(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	return entry
}

func TestDataManager_Get(t *testing.T) {
	t.Parallel()

	t.Run("Cold start fetches and stores", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "REF-1" || got.Stale {
			t.Errorf("unexpected entry: %+v", got)
		}
		if n := h.fetcher.count(); n != 1 {
			t.Errorf("expected 1 fetch, got %d", n)
		}

		stored := h.stored(t)
		if stored == nil {
			t.Fatal("expected the snapshot to be stored")
		}
		if want := epoch.Add(snapshotcache.DefaultCacheDuration); !stored.ExpiresAt.Equal(want) {
			t.Errorf("expected cache marker %v, got %v", want, stored.ExpiresAt)
		}
		if df := cmp.Diff(got.Value, stored.Value); df != "" {
			t.Errorf("stored snapshot diff (-returned +stored):\n%s", df)
		}
	})

	t.Run("Fresh hit does not fetch", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		seeded := h.seed(t, time.Hour, time.Minute)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(&snapshotcache.Entry[booking.Snapshot]{Value: seeded}, got); df != "" {
			t.Errorf("entry diff (-want +got):\n%s", df)
		}
		h.manager.Wait()
		if n := h.fetcher.count(); n != 0 {
			t.Errorf("expected no fetch, got %d", n)
		}
	})

	t.Run("Domain expiry fetches synchronously", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		h.seed(t, -time.Second, time.Minute)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "REF-1" || got.Stale {
			t.Errorf("unexpected entry: %+v", got)
		}
		if stored := h.stored(t); stored.Value.ShipReference != "REF-1" {
			t.Errorf("expected the fresh snapshot to be stored, got %q", stored.Value.ShipReference)
		}
	})

	t.Run("Domain expiry is checked in whole seconds", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		seeded := h.seed(t, 0, time.Hour)

		h.clock.set(epoch.Add(500 * time.Millisecond))
		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(&snapshotcache.Entry[booking.Snapshot]{Value: seeded}, got); df != "" {
			t.Errorf("entry diff within the expiry second (-want +got):\n%s", df)
		}
		if n := h.fetcher.count(); n != 0 {
			t.Errorf("expected no fetch within the expiry second, got %d", n)
		}

		h.clock.set(epoch.Add(time.Second))
		got, err = h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "REF-1" || got.Stale {
			t.Errorf("expected a fresh fetch after the expiry second, got %+v", got)
		}
	})

	t.Run("Expired cache marker serves cached and refreshes in background", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		seeded := h.seed(t, time.Hour, -time.Second)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(&snapshotcache.Entry[booking.Snapshot]{Value: seeded}, got); df != "" {
			t.Errorf("entry diff (-want +got):\n%s", df)
		}

		h.manager.Wait()
		if n := h.fetcher.count(); n != 1 {
			t.Errorf("expected 1 background fetch, got %d", n)
		}
		stored := h.stored(t)
		if stored.Value.ShipReference != "REF-1" {
			t.Errorf("expected the background fetch to be stored, got %q", stored.Value.ShipReference)
		}
		if want := epoch.Add(snapshotcache.DefaultCacheDuration); !stored.ExpiresAt.Equal(want) {
			t.Errorf("expected cache marker %v, got %v", want, stored.ExpiresAt)
		}
	})

	t.Run("Missing cache marker counts as expired", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		seeded := h.seed(t, time.Hour, 0)
		if err := h.storage.Set(t.Context(), &snapshotcache.CacheEntry[booking.Snapshot]{Value: seeded}); err != nil {
			t.Fatal(err)
		}

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "SEEDED" {
			t.Errorf("expected the cached snapshot, got %q", got.Value.ShipReference)
		}
		h.manager.Wait()
		if n := h.fetcher.count(); n != 1 {
			t.Errorf("expected 1 background fetch, got %d", n)
		}
	})

	t.Run("Force refresh always fetches", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		h.seed(t, time.Hour, time.Minute)

		got, err := h.manager.Get(t.Context(), true)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "REF-1" || got.Stale {
			t.Errorf("unexpected entry: %+v", got)
		}
		if stored := h.stored(t); stored.Value.ShipReference != "REF-1" {
			t.Errorf("expected the fresh snapshot to be stored, got %q", stored.Value.ShipReference)
		}
	})

	t.Run("Force refresh failure does not fall back", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		h.seed(t, time.Hour, time.Minute)
		fetchErr := errors.New("network error")
		h.fetcher.fail(fetchErr)

		got, err := h.manager.Get(t.Context(), true)
		if !errors.Is(err, fetchErr) {
			t.Errorf("expected %v, got %v", fetchErr, err)
		}
		if got != nil {
			t.Errorf("expected no entry, got %+v", got)
		}
	})

	t.Run("Failure falls back to expired cache", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		seeded := h.seed(t, -time.Hour, -time.Hour)
		h.fetcher.fail(errors.New("network error"))

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(&snapshotcache.Entry[booking.Snapshot]{Value: seeded, Stale: true}, got); df != "" {
			t.Errorf("entry diff (-want +got):\n%s", df)
		}
		if n := h.fetcher.count(); n != 1 {
			t.Errorf("expected exactly 1 fetch, got %d", n)
		}
	})

	t.Run("Failure without cache returns the error", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		fetchErr := errors.New("boom")
		h.fetcher.fail(fetchErr)

		got, err := h.manager.Get(t.Context(), false)
		if !errors.Is(err, fetchErr) {
			t.Errorf("expected %v, got %v", fetchErr, err)
		}
		if got != nil {
			t.Errorf("expected no entry, got %+v", got)
		}
	})

	t.Run("Clear makes the next read a cold start", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		if _, err := h.manager.Get(t.Context(), false); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := h.manager.Clear(t.Context()); err != nil {
				t.Fatalf("clear #%d: %v", i+1, err)
			}
		}

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "REF-2" {
			t.Errorf("expected a second fetch, got %q", got.Value.ShipReference)
		}
	})

	t.Run("Fresh hit is logged at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		h := newHarness(t, nil, snapshotcache.WithLogger[booking.Snapshot](
			slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
		h.seed(t, time.Hour, time.Minute)

		if _, err := h.manager.Get(t.Context(), false); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{`"level":"DEBUG"`, `"msg":"serving cached snapshot"`, `"cache_expires_at":"2026-10-15T12:01:00Z"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in log output:\n%s", want, out)
			}
		}
	})

	t.Run("Refresh failure is logged once", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		h := newHarness(t, nil, snapshotcache.WithLogger[booking.Snapshot](slog.New(slog.NewJSONHandler(&buf, nil))))
		fetchErr := errors.New("boom")
		h.fetcher.fail(fetchErr)

		if err := h.manager.Refresh(t.Context()); !errors.Is(err, fetchErr) {
			t.Errorf("expected %v, got %v", fetchErr, err)
		}
		out := buf.String()
		if n := strings.Count(out, "\n"); n != 1 {
			t.Errorf("expected one record, got %d:\n%s", n, out)
		}
		if !strings.Contains(out, `"where":"DataManager.Refresh"`) {
			t.Errorf("expected the Refresh record, got:\n%s", out)
		}
	})

	t.Run("Refresh stores a fresh snapshot", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil)
		h.seed(t, time.Hour, time.Minute)

		if err := h.manager.Refresh(t.Context()); err != nil {
			t.Fatal(err)
		}
		if stored := h.stored(t); stored.Value.ShipReference != "REF-1" {
			t.Errorf("expected the fresh snapshot to be stored, got %q", stored.Value.ShipReference)
		}
	})
}

func TestDataManager_StorageFailures(t *testing.T) {
	t.Parallel()

	t.Run("Read failure is a miss", func(t *testing.T) {
		t.Parallel()

		var stored []*snapshotcache.CacheEntry[booking.Snapshot]
		store := &storage.FunctionsStorage[booking.Snapshot]{
			GetFunc: func(context.Context) (*snapshotcache.CacheEntry[booking.Snapshot], error) {
				return nil, storage.ErrGet
			},
			SetFunc: func(_ context.Context, e *snapshotcache.CacheEntry[booking.Snapshot]) error {
				stored = append(stored, e)
				return nil
			},
		}
		h := newHarness(t, store)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "REF-1" {
			t.Errorf("unexpected entry: %+v", got)
		}
		if len(stored) != 1 {
			t.Errorf("expected 1 write, got %d", len(stored))
		}
	})

	t.Run("Write failure still returns the fresh snapshot", func(t *testing.T) {
		t.Parallel()

		store := &storage.FunctionsStorage[booking.Snapshot]{
			GetFunc: func(context.Context) (*snapshotcache.CacheEntry[booking.Snapshot], error) {
				return nil, nil
			},
			SetFunc: func(context.Context, *snapshotcache.CacheEntry[booking.Snapshot]) error {
				return storage.ErrSet
			},
		}
		h := newHarness(t, store)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "REF-1" || got.Stale {
			t.Errorf("unexpected entry: %+v", got)
		}
	})

	t.Run("Clear failure propagates", func(t *testing.T) {
		t.Parallel()

		store := &storage.FunctionsStorage[booking.Snapshot]{
			ClearFunc: func(context.Context) error {
				return storage.ErrClear
			},
		}
		h := newHarness(t, store)
		if err := h.manager.Clear(t.Context()); !errors.Is(err, storage.ErrClear) {
			t.Errorf("expected %v, got %v", storage.ErrClear, err)
		}
	})
}

func TestDataManager_Background(t *testing.T) {
	t.Parallel()

	t.Run("Background failure goes to the error sink", func(t *testing.T) {
		t.Parallel()

		var (
			mu   sync.Mutex
			errs []error
		)
		fetchErr := errors.New("network error")
		h := newHarness(t, nil, snapshotcache.WithOnBackgroundError[booking.Snapshot](func(err error) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err)
		}))
		seeded := h.seed(t, time.Hour, -time.Second)
		h.fetcher.fail(fetchErr)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(&snapshotcache.Entry[booking.Snapshot]{Value: seeded}, got); df != "" {
			t.Errorf("entry diff (-want +got):\n%s", df)
		}

		h.manager.Wait()
		mu.Lock()
		defer mu.Unlock()
		if df := cmp.Diff([]error{fetchErr}, errs, cmpopts.EquateErrors()); df != "" {
			t.Errorf("background errors diff (-want +got):\n%s", df)
		}
	})

	t.Run("Background panic is recovered", func(t *testing.T) {
		t.Parallel()

		errCh := make(chan error, 1)
		h := newHarness(t, nil, snapshotcache.WithOnBackgroundError[booking.Snapshot](func(err error) {
			errCh <- err
		}))
		h.seed(t, time.Hour, -time.Second)
		h.fetcher.mu.Lock()
		h.fetcher.panics = true
		h.fetcher.mu.Unlock()

		if _, err := h.manager.Get(t.Context(), false); err != nil {
			t.Fatal(err)
		}
		h.manager.Wait()

		select {
		case err := <-errCh:
			if !strings.Contains(err.Error(), "fetcher exploded") {
				t.Errorf("unexpected error: %v", err)
			}
		default:
			t.Fatal("expected the panic to be reported")
		}
	})

	t.Run("Background refresh outlives the caller context", func(t *testing.T) {
		t.Parallel()

		type ctxKey struct{}
		var seen any
		h := newHarness(t, nil)
		h.seed(t, time.Hour, -time.Second)
		inner := h.fetcher
		h.manager = snapshotcache.NewDataManager(h.storage,
			pureloader.NewPureLoader(h.storage, snapshotcache.FetcherFunc[booking.Snapshot](func(ctx context.Context) (booking.Snapshot, error) {
				seen = ctx.Value(ctxKey{})
				if err := ctx.Err(); err != nil {
					return booking.Snapshot{}, err
				}
				return inner.Fetch(ctx)
			}), pureloader.WithClock[booking.Snapshot](h.clock)),
			snapshotcache.WithClock[booking.Snapshot](h.clock),
			snapshotcache.WithLogger[booking.Snapshot](slog.New(slog.DiscardHandler)),
			snapshotcache.WithBackgroundContextProvider[booking.Snapshot](func() context.Context {
				return context.WithValue(context.Background(), ctxKey{}, "background")
			}),
		)

		ctx, cancel := context.WithCancel(t.Context())
		if _, err := h.manager.Get(ctx, false); err != nil {
			t.Fatal(err)
		}
		cancel()
		h.manager.Wait()

		if seen != "background" {
			t.Errorf("expected the background context, got %v", seen)
		}
		if stored := h.stored(t); stored.Value.ShipReference != "REF-1" {
			t.Errorf("expected the background fetch to be stored, got %q", stored.Value.ShipReference)
		}
	})
}

func TestDataManager_Options(t *testing.T) {
	t.Parallel()

	t.Run("Fetch timeout bounds the load", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil, snapshotcache.WithFetchTimeout[booking.Snapshot](20*time.Millisecond))
		h.fetcher.mu.Lock()
		h.fetcher.block = true
		h.fetcher.mu.Unlock()

		_, err := h.manager.Get(t.Context(), false)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
	})

	t.Run("Never expiring domain policy keeps serving the cache", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil, snapshotcache.WithDomainExpirationPolicy[booking.Snapshot](expiration.NeverExpirationPolicy{}))
		h.seed(t, -time.Hour, time.Minute)

		got, err := h.manager.Get(t.Context(), false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Value.ShipReference != "SEEDED" {
			t.Errorf("expected the cached snapshot, got %q", got.Value.ShipReference)
		}
	})

	t.Run("Never expiring cache policy disables background refresh", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, nil, snapshotcache.WithCacheExpirationPolicy[booking.Snapshot](expiration.NeverExpirationPolicy{}))
		h.seed(t, time.Hour, -time.Hour)

		if _, err := h.manager.Get(t.Context(), false); err != nil {
			t.Fatal(err)
		}
		h.manager.Wait()
		if n := h.fetcher.count(); n != 0 {
			t.Errorf("expected no fetch, got %d", n)
		}
	})

	t.Run("Failures are logged with their classification", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		h := newHarness(t, nil, snapshotcache.WithLogger[booking.Snapshot](slog.New(slog.NewJSONHandler(&buf, nil))))
		h.fetcher.fail(errors.New("Network Error"))

		if _, err := h.manager.Get(t.Context(), false); err == nil {
			t.Fatal("expected an error")
		}
		out := buf.String()
		for _, want := range []string{`"where":"DataManager.Get"`, `"type":"NETWORK_ERROR"`} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %s in log output:\n%s", want, out)
			}
		}
	})
}
