// Package expiration provides policies for deciding whether a snapshot or its cache marker has expired.
//
// This package defines the ExpirationPolicy interface and several implementations. The same
// interface is used for the domain expiry carried by a snapshot and for the cache-level expiry
// marker stored next to it, so both are compared as time.Time values.
package expiration
