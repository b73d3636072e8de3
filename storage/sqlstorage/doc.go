// Package sqlstorage provides a database/sql implementation of the snapshotcache.CacheStorage interface.
//
// The entry is kept in one row keyed by the namespace key. The JSON payload and the cache marker
// live in the same row, so a single upsert replaces both of them.
// SQLite (modernc.org/sqlite), PostgreSQL (pgx) and MySQL are supported.
package sqlstorage
