package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	snapshotcache "github.com/karupanerura/snapshot-cache"
)

// DefaultKey is the default namespace key under which the snapshot is persisted.
// It must stay stable across process restarts for cache hits to work.
const DefaultKey = "SHIP_BOOKING_DATA"

// EncodeEntry returns the persisted form of entry: the JSON payload and the cache marker in epoch milliseconds.
func EncodeEntry[V snapshotcache.ValueConstraint](entry *snapshotcache.CacheEntry[V]) (payload []byte, expiresAtMillis int64, err error) {
	payload, err = json.Marshal(entry.Value)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrSet, err)
	}
	return payload, ToMillis(entry.ExpiresAt), nil
}

// DecodeEntry restores an entry from its persisted form.
func DecodeEntry[V snapshotcache.ValueConstraint](payload []byte, expiresAtMillis int64) (*snapshotcache.CacheEntry[V], error) {
	var value V
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return &snapshotcache.CacheEntry[V]{
		Value:     value,
		ExpiresAt: FromMillis(expiresAtMillis),
	}, nil
}

// ToMillis converts t to epoch milliseconds. The zero time is 0.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a time. 0 is the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// FormatMillis returns the decimal string form of the cache marker.
func FormatMillis(t time.Time) string {
	return strconv.FormatInt(ToMillis(t), 10)
}

// ParseMillis parses the decimal string form of the cache marker.
// An empty string is a missing marker and yields the zero time.
func ParseMillis(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid expiry marker %q: %w", ErrDecode, s, err)
	}
	return FromMillis(ms), nil
}
