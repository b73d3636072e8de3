// Package redisstorage provides a Redis implementation of the snapshotcache.CacheStorage interface.
//
// The entry is kept in one hash with the fields payload and expires_at, written by a single HSET.
// No Redis TTL is set: expired entries must stay readable for the stale fallback.
package redisstorage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/storage"
)

const (
	fieldPayload   = "payload"
	fieldExpiresAt = "expires_at"
)

// Storage is a single-hash cache storage on Redis.
type Storage[V snapshotcache.ValueConstraint] struct {
	client redis.UniversalClient
	key    string
}

// New creates a storage on an existing client. An empty key means storage.DefaultKey.
func New[V snapshotcache.ValueConstraint](client redis.UniversalClient, key string) *Storage[V] {
	if key == "" {
		key = storage.DefaultKey
	}
	return &Storage[V]{client: client, key: key}
}

// Dial connects to the Redis server at url (e.g. redis://localhost:6379/0) and creates a storage on it.
func Dial[V snapshotcache.ValueConstraint](ctx context.Context, url, key string) (*Storage[V], error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New[V](client, key), nil
}

// Get reads both fields of the hash at once. A missing payload is a miss.
func (s *Storage[V]) Get(ctx context.Context) (*snapshotcache.CacheEntry[V], error) {
	values, err := s.client.HMGet(ctx, s.key, fieldPayload, fieldExpiresAt).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrGet, err)
	}
	return decodeFields[V](values)
}

// Set writes the payload and the cache marker with one HSET.
func (s *Storage[V]) Set(ctx context.Context, entry *snapshotcache.CacheEntry[V]) error {
	payload, _, err := storage.EncodeEntry(entry)
	if err != nil {
		return err
	}
	err = s.client.HSet(ctx, s.key,
		fieldPayload, payload,
		fieldExpiresAt, storage.FormatMillis(entry.ExpiresAt),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSet, err)
	}
	return nil
}

// Clear deletes the hash.
func (s *Storage[V]) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrClear, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Storage[V]) Close() error {
	return s.client.Close()
}

func decodeFields[V snapshotcache.ValueConstraint](values []any) (*snapshotcache.CacheEntry[V], error) {
	if len(values) != 2 {
		return nil, fmt.Errorf("%w: unexpected number of fields: %d", storage.ErrDecode, len(values))
	}
	payload, ok := values[0].(string)
	if !ok {
		if values[0] == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: unexpected payload type %T", storage.ErrDecode, values[0])
	}

	var marker string
	switch v := values[1].(type) {
	case nil:
	case string:
		marker = v
	default:
		return nil, fmt.Errorf("%w: unexpected expiry marker type %T", storage.ErrDecode, v)
	}
	expiresAt, err := storage.ParseMillis(marker)
	if err != nil {
		return nil, err
	}

	entry, err := storage.DecodeEntry[V]([]byte(payload), 0)
	if err != nil {
		return nil, err
	}
	entry.ExpiresAt = expiresAt
	return entry, nil
}
