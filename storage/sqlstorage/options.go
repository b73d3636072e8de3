package sqlstorage

import (
	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/storage"
)

// DefaultTableName is the default name of the cache table.
const DefaultTableName = "snapshot_cache"

// Option is the interface for the options of the SQL cache storage.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithKey sets the namespace key of the row. The default key is storage.DefaultKey.
func WithKey(key string) Option {
	return optionFunc(func(o *options) {
		o.key = key
	})
}

// WithTableName sets the table name. The default table name is DefaultTableName.
func WithTableName(name string) Option {
	return optionFunc(func(o *options) {
		o.tableName = name
	})
}

// WithClock sets the clock used for the updated_at column.
func WithClock(clock snapshotcache.Clock) Option {
	return optionFunc(func(o *options) {
		o.clock = clock
	})
}

type options struct {
	key       string
	tableName string
	clock     snapshotcache.Clock
}

func defaultOptions() options {
	return options{
		key:       storage.DefaultKey,
		tableName: DefaultTableName,
		clock:     snapshotcache.SystemClock,
	}
}
