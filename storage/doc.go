// Package storage provides cache storage adapters and utilities for the snapshot-cache library.
//
// This package contains adapters such as SilentErrorStorage, which wraps any CacheStorage
// implementation so that read failures degrade to a cache miss, and FunctionsStorage, which
// allows building custom storage implementations using function callbacks.
//
// It also holds the persisted representation shared by the durable backends: the payload is
// JSON and the cache marker is an epoch-milliseconds integer, written together.
//
// This package also defines common error types for storage operations:
// ErrGet, ErrSet, ErrClear and ErrDecode.
package storage
