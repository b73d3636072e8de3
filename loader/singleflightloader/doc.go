// Package singleflightloader provides a loader that coalesces concurrent loads.
//
// When several goroutines miss the cache at the same time, only one of them reaches the
// underlying loader and the result is shared among all of them. The shared load runs with a
// context from the background context provider, so a caller that gives up does not cancel the
// load for the others.
//
// The SingleFlightLoader can be configured with options:
//   - WithCloner: Allows setting a custom value cloner to use when copying values to multiple requesters
//   - WithBackgroundContextProvider: Sets a custom context provider for the shared load
package singleflightloader
