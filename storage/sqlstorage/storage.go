package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/storage"
)

// Storage is a single-row cache storage on a SQL database.
type Storage[V snapshotcache.ValueConstraint] struct {
	db      *sql.DB
	backend Backend
	options options

	selectQuery string
	upsertQuery string
	deleteQuery string
}

// Open connects to the database and creates the cache table if it does not exist.
//
// The dsn depends on the backend:
//   - sqlite: a file path, e.g. bookingcache.db
//   - postgresql: host=localhost port=5432 user=postgres dbname=postgres
//   - mysql: user:password@tcp(host:port)/dbname
func Open[V snapshotcache.ValueConstraint](ctx context.Context, backend Backend, dsn string, opts ...Option) (*Storage[V], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt.apply(&options)
	}
	if err := validateTableName(options.tableName); err != nil {
		return nil, err
	}
	if options.key == "" {
		return nil, errors.New("cache key cannot be empty")
	}
	if dsn == "" {
		return nil, fmt.Errorf("connection string for %s backend cannot be empty", backend)
	}

	switch backend {
	case SQLite, PostgreSQL:
	case MySQL:
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return nil, fmt.Errorf("invalid MySQL connection string: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q. Must be sqlite, postgresql, or mysql", backend)
	}

	db, err := sql.Open(backend.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == SQLite {
		// a single connection avoids "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	if _, err := db.ExecContext(ctx, backend.createTableQuery(options.tableName)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", options.tableName, err)
	}

	return &Storage[V]{
		db:          db,
		backend:     backend,
		options:     options,
		selectQuery: backend.selectQuery(options.tableName),
		upsertQuery: backend.upsertQuery(options.tableName),
		deleteQuery: backend.deleteQuery(options.tableName),
	}, nil
}

// Get reads the row of the namespace key. A missing row is a miss.
func (s *Storage[V]) Get(ctx context.Context) (*snapshotcache.CacheEntry[V], error) {
	var (
		payload   []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.selectQuery, s.options.key).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrGet, err)
	}
	return storage.DecodeEntry[V](payload, expiresAt)
}

// Set upserts the payload and the cache marker in one statement.
func (s *Storage[V]) Set(ctx context.Context, entry *snapshotcache.CacheEntry[V]) error {
	payload, expiresAt, err := storage.EncodeEntry(entry)
	if err != nil {
		return err
	}
	updatedAt := s.options.clock.Now().UnixMilli()
	if _, err := s.db.ExecContext(ctx, s.upsertQuery, s.options.key, payload, expiresAt, updatedAt); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSet, err)
	}
	return nil
}

// Clear deletes the row of the namespace key.
func (s *Storage[V]) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.deleteQuery, s.options.key); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrClear, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Storage[V]) Close() error {
	return s.db.Close()
}
