package sqlstorage

import (
	"fmt"
	"regexp"
)

// Backend is a database backend.
type Backend string

const (
	SQLite     Backend = "sqlite" // default
	PostgreSQL Backend = "postgresql"
	MySQL      Backend = "mysql"
)

// ParseBackend returns the backend named by s.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case SQLite, PostgreSQL, MySQL:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported storage backend: %q. Must be sqlite, postgresql, or mysql", s)
	}
}

func (b Backend) driverName() string {
	switch b {
	case PostgreSQL:
		return "pgx"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName rejects anything but a plain SQL identifier, since the name is interpolated into queries.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

func (b Backend) quote(name string) string {
	if b == MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

func (b Backend) createTableQuery(table string) string {
	switch b {
	case MySQL:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key VARCHAR(255) PRIMARY KEY,
				payload LONGBLOB NOT NULL,
				expires_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			)`, b.quote(table))

	case PostgreSQL:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				payload BYTEA NOT NULL,
				expires_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			)`, b.quote(table))

	default:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				payload BLOB NOT NULL,
				expires_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			)`, b.quote(table))
	}
}

func (b Backend) selectQuery(table string) string {
	return fmt.Sprintf(`SELECT payload, expires_at FROM %s WHERE cache_key = %s`, b.quote(table), b.placeholder(1))
}

func (b Backend) deleteQuery(table string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE cache_key = %s`, b.quote(table), b.placeholder(1))
}

func (b Backend) upsertQuery(table string) string {
	switch b {
	case MySQL:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, payload, expires_at, updated_at) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE payload = new.payload, expires_at = new.expires_at, updated_at = new.updated_at`, b.quote(table))

	case PostgreSQL:
		return fmt.Sprintf(`INSERT INTO %s (cache_key, payload, expires_at, updated_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`, b.quote(table))

	default:
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (cache_key, payload, expires_at, updated_at) VALUES (?, ?, ?, ?)`, b.quote(table))
	}
}

func (b Backend) placeholder(n int) string {
	if b == PostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
