// Package source provides adapters and utilities for working with remote fetchers in the snapshot-cache library.
//
// This package contains decorators for the snapshotcache.Fetcher interface: a linting fetcher that checks
// the fetched value, a delaying fetcher, and a retrying fetcher with exponential backoff.
package source
