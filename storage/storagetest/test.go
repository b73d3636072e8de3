// storagetest package provides generic test cases for cache storage implementations.
package storagetest

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// TestValue is a snapshot-like value used by the test cases.
type TestValue struct {
	ID     int       `json:"id"`
	Tags   []string  `json:"tags"`
	Expiry time.Time `json:"expiry"`
}

// ExpiresAt returns the domain expiry of the value.
func (v TestValue) ExpiresAt() time.Time {
	return v.Expiry
}

// Clone returns a deep copy of the value.
func (v TestValue) Clone() TestValue {
	v.Tags = slices.Clone(v.Tags)
	return v
}

// NewTestValue returns a value with the given id that expires in an hour.
func NewTestValue(id int) TestValue {
	return TestValue{
		ID:     id,
		Tags:   []string{fmt.Sprintf("tag-%d", id), "snapshot"},
		Expiry: time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

// Provider returns a new empty storage for a test and a function that releases it.
type Provider func(t *testing.T) (snapshotcache.CacheStorage[TestValue], func())

// Run runs all test cases against the storage returned by provider.
func Run(t *testing.T, provider Provider) {
	TestGetEmpty(t, provider)
	TestSetAndGet(t, provider)
	TestOverwrite(t, provider)
	TestClear(t, provider)
	TestMissingMarker(t, provider)
	TestIsolation(t, provider)
	TestConcurrentSet(t, provider)
}

// TestGetEmpty tests that an empty storage reports a miss without an error.
func TestGetEmpty(t *testing.T, provider Provider) {
	t.Run("GetEmpty", func(t *testing.T) {
		storage, release := provider(t)
		defer release()

		got, err := storage.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Errorf("expected nil entry, got %+v", got)
		}
	})
}

// TestSetAndGet tests that a stored entry is returned with its value and cache marker.
func TestSetAndGet(t *testing.T, provider Provider) {
	t.Run("SetAndGet", func(t *testing.T) {
		storage, release := provider(t)
		defer release()

		entry := &snapshotcache.CacheEntry[TestValue]{
			Value:     NewTestValue(1),
			ExpiresAt: time.Now().Add(5 * time.Minute).Truncate(time.Millisecond),
		}
		if err := storage.Set(t.Context(), entry); err != nil {
			t.Fatal(err)
		}

		got, err := storage.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(entry, got); df != "" {
			t.Errorf("entry diff (-want +got):\n%s", df)
		}
	})
}

// TestOverwrite tests that Set replaces both the value and the cache marker.
func TestOverwrite(t *testing.T, provider Provider) {
	t.Run("Overwrite", func(t *testing.T) {
		storage, release := provider(t)
		defer release()

		first := &snapshotcache.CacheEntry[TestValue]{
			Value:     NewTestValue(1),
			ExpiresAt: time.Now().Add(-time.Minute).Truncate(time.Millisecond),
		}
		second := &snapshotcache.CacheEntry[TestValue]{
			Value:     NewTestValue(2),
			ExpiresAt: time.Now().Add(5 * time.Minute).Truncate(time.Millisecond),
		}
		for _, e := range []*snapshotcache.CacheEntry[TestValue]{first, second} {
			if err := storage.Set(t.Context(), e); err != nil {
				t.Fatal(err)
			}
		}

		got, err := storage.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(second, got); df != "" {
			t.Errorf("entry diff (-want +got):\n%s", df)
		}
	})
}

// TestClear tests that Clear removes the entry and can be repeated.
func TestClear(t *testing.T, provider Provider) {
	t.Run("Clear", func(t *testing.T) {
		storage, release := provider(t)
		defer release()

		if err := storage.Clear(t.Context()); err != nil {
			t.Fatalf("clear on empty storage: %v", err)
		}

		entry := &snapshotcache.CacheEntry[TestValue]{
			Value:     NewTestValue(1),
			ExpiresAt: time.Now().Add(5 * time.Minute).Truncate(time.Millisecond),
		}
		if err := storage.Set(t.Context(), entry); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := storage.Clear(t.Context()); err != nil {
				t.Fatalf("clear #%d: %v", i+1, err)
			}
			got, err := storage.Get(t.Context())
			if err != nil {
				t.Fatal(err)
			}
			if got != nil {
				t.Errorf("expected nil entry after clear #%d, got %+v", i+1, got)
			}
		}
	})
}

// TestMissingMarker tests that an entry without a cache marker round trips with a zero marker.
func TestMissingMarker(t *testing.T, provider Provider) {
	t.Run("MissingMarker", func(t *testing.T) {
		storage, release := provider(t)
		defer release()

		entry := &snapshotcache.CacheEntry[TestValue]{Value: NewTestValue(1)}
		if err := storage.Set(t.Context(), entry); err != nil {
			t.Fatal(err)
		}

		got, err := storage.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("expected an entry, got nil")
		}
		if !got.ExpiresAt.IsZero() {
			t.Errorf("expected zero marker, got %v", got.ExpiresAt)
		}
	})
}

// TestIsolation tests that mutating a stored or returned value does not change the stored entry.
func TestIsolation(t *testing.T, provider Provider) {
	t.Run("Isolation", func(t *testing.T) {
		storage, release := provider(t)
		defer release()

		entry := &snapshotcache.CacheEntry[TestValue]{
			Value:     NewTestValue(1),
			ExpiresAt: time.Now().Add(5 * time.Minute).Truncate(time.Millisecond),
		}
		want := entry.Value.Clone()
		if err := storage.Set(t.Context(), entry); err != nil {
			t.Fatal(err)
		}
		entry.Value.Tags[0] = "mutated-after-set"

		got, err := storage.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		got.Value.Tags[0] = "mutated-after-get"

		got, err = storage.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if df := cmp.Diff(want, got.Value); df != "" {
			t.Errorf("value diff (-want +got):\n%s", df)
		}
	})
}

// TestConcurrentSet tests that concurrent writers leave exactly one complete entry behind.
func TestConcurrentSet(t *testing.T, provider Provider) {
	t.Run("ConcurrentSet", func(t *testing.T) {
		storage, release := provider(t)
		defer release()

		const writers = 8
		entries := make(map[int]*snapshotcache.CacheEntry[TestValue], writers)
		for i := 1; i <= writers; i++ {
			entries[i] = &snapshotcache.CacheEntry[TestValue]{
				Value:     NewTestValue(i),
				ExpiresAt: time.Now().Add(time.Duration(i) * time.Minute).Truncate(time.Millisecond),
			}
		}

		eg, ctx := errgroup.WithContext(t.Context())
		for _, e := range entries {
			eg.Go(func() error {
				return storage.Set(ctx, e)
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		got, err := storage.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("expected an entry, got nil")
		}
		want, ok := entries[got.Value.ID]
		if !ok {
			t.Fatalf("unexpected value id: %d", got.Value.ID)
		}
		if df := cmp.Diff(want, got); df != "" {
			t.Errorf("value and marker must come from the same write (-want +got):\n%s", df)
		}
	})
}

// BenchmarkSet benchmarks the Set method of the cache storage.
func BenchmarkSet(b *testing.B, storage snapshotcache.CacheStorage[TestValue]) {
	entry := &snapshotcache.CacheEntry[TestValue]{
		Value:     NewTestValue(1),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	ctx := b.Context()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := storage.Set(ctx, entry); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGet benchmarks the Get method of the cache storage.
func BenchmarkGet(b *testing.B, storage snapshotcache.CacheStorage[TestValue]) {
	ctx := b.Context()
	if err := storage.Set(ctx, &snapshotcache.CacheEntry[TestValue]{
		Value:     NewTestValue(1),
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := storage.Get(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
