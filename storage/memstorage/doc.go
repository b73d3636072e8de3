// Package memstorage provides an in-memory implementation of the snapshotcache.CacheStorage interface.
//
// The storage holds a single entry and clones the value on every Set and Get, so that callers
// never share a snapshot with the storage. It does not survive process restarts.
package memstorage
