package sqlstorage_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/storage/sqlstorage"
	"github.com/karupanerura/snapshot-cache/storage/storagetest"
)

func openSQLite(t *testing.T, path string, opts ...sqlstorage.Option) *sqlstorage.Storage[storagetest.TestValue] {
	t.Helper()
	s, err := sqlstorage.Open[storagetest.TestValue](t.Context(), sqlstorage.SQLite, path, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStorageSQLite(t *testing.T) {
	t.Parallel()
	storagetest.Run(t, func(t *testing.T) (snapshotcache.CacheStorage[storagetest.TestValue], func()) {
		s := openSQLite(t, filepath.Join(t.TempDir(), "cache.db"))
		return s, func() { _ = s.Close() }
	})
}

func TestStorageSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.db")
	want := &snapshotcache.CacheEntry[storagetest.TestValue]{
		Value:     storagetest.NewTestValue(3),
		ExpiresAt: time.Now().Add(time.Minute).Truncate(time.Millisecond),
	}

	first := openSQLite(t, path)
	if err := first.Set(t.Context(), want); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second := openSQLite(t, path)
	defer second.Close()
	got, err := second.Get(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if df := cmp.Diff(want, got); df != "" {
		t.Errorf("entry diff (-want +got):\n%s", df)
	}
}

func TestStorageKeysAreIsolated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.db")
	a := openSQLite(t, path, sqlstorage.WithKey("A"))
	defer a.Close()
	b := openSQLite(t, path, sqlstorage.WithKey("B"))
	defer b.Close()

	if err := a.Set(t.Context(), &snapshotcache.CacheEntry[storagetest.TestValue]{Value: storagetest.NewTestValue(1)}); err != nil {
		t.Fatal(err)
	}
	got, err := b.Get(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected key B to be empty, got %+v", got)
	}

	if err := b.Clear(t.Context()); err != nil {
		t.Fatal(err)
	}
	got, err = a.Get(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Value.ID != 1 {
		t.Errorf("expected key A to keep its entry, got %+v", got)
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backend sqlstorage.Backend
		dsn     string
		opts    []sqlstorage.Option
		wantErr string
	}{
		{
			name:    "InvalidTableName",
			backend: sqlstorage.SQLite,
			dsn:     "cache.db",
			opts:    []sqlstorage.Option{sqlstorage.WithTableName("cache; DROP TABLE users")},
			wantErr: "invalid table name",
		},
		{
			name:    "EmptyTableName",
			backend: sqlstorage.SQLite,
			dsn:     "cache.db",
			opts:    []sqlstorage.Option{sqlstorage.WithTableName("")},
			wantErr: "table name cannot be empty",
		},
		{
			name:    "EmptyKey",
			backend: sqlstorage.SQLite,
			dsn:     "cache.db",
			opts:    []sqlstorage.Option{sqlstorage.WithKey("")},
			wantErr: "cache key cannot be empty",
		},
		{
			name:    "EmptyDSN",
			backend: sqlstorage.PostgreSQL,
			wantErr: "cannot be empty",
		},
		{
			name:    "InvalidMySQLDSN",
			backend: sqlstorage.MySQL,
			dsn:     "not a dsn",
			wantErr: "invalid MySQL connection string",
		},
		{
			name:    "UnsupportedBackend",
			backend: sqlstorage.Backend("oracle"),
			dsn:     "whatever",
			wantErr: "unsupported storage backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := sqlstorage.Open[storagetest.TestValue](t.Context(), tt.backend, tt.dsn, tt.opts...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseBackend(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"sqlite", "postgresql", "mysql"} {
		b, err := sqlstorage.ParseBackend(name)
		if err != nil {
			t.Errorf("ParseBackend(%q): %v", name, err)
		}
		if string(b) != name {
			t.Errorf("ParseBackend(%q) = %q", name, b)
		}
	}
	if _, err := sqlstorage.ParseBackend("redis"); err == nil {
		t.Error("expected an error for a non-SQL backend")
	}
}

func BenchmarkStorageSQLite(b *testing.B) {
	s, err := sqlstorage.Open[storagetest.TestValue](b.Context(), sqlstorage.SQLite, filepath.Join(b.TempDir(), "cache.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	b.Run("Set", func(b *testing.B) {
		storagetest.BenchmarkSet(b, s)
	})
	b.Run("Get", func(b *testing.B) {
		storagetest.BenchmarkGet(b, s)
	})
}
