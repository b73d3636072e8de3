// Package booking defines the ship booking snapshot served by the cache and its display helpers.
package booking

import (
	"fmt"
	"slices"
	"time"

	snapshotcache "github.com/karupanerura/snapshot-cache"
	"github.com/karupanerura/snapshot-cache/expiration"
)

// Location is a port.
type Location struct {
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
}

// OriginAndDestinationPair is the route of a segment.
type OriginAndDestinationPair struct {
	Origin          Location `json:"origin"`
	Destination     Location `json:"destination"`
	OriginCity      string   `json:"originCity"`
	DestinationCity string   `json:"destinationCity"`
}

// Segment is one leg of the voyage.
type Segment struct {
	ID                       int                      `json:"id"`
	OriginAndDestinationPair OriginAndDestinationPair `json:"originAndDestinationPair"`
}

// Snapshot is a ship booking as returned by the booking service.
type Snapshot struct {
	ShipReference string `json:"shipReference"`

	// ExpiryTime is the time the booking data stops being valid, in epoch seconds.
	ExpiryTime int64 `json:"expiryTime"`

	// Duration is the voyage duration in seconds.
	Duration int64 `json:"duration"`

	Segments []Segment `json:"segments"`

	// IsStale is set on snapshots served from the cache after a failed fetch.
	// It is derived on every read; a persisted value is never trusted.
	IsStale bool `json:"isStale,omitempty"`
}

// ExpiresAt returns ExpiryTime as a time. A missing expiry is the zero time.
func (s Snapshot) ExpiresAt() time.Time {
	if s.ExpiryTime == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiryTime, 0)
}

// IsExpired reports whether the booking has expired at now, comparing whole seconds.
func (s Snapshot) IsExpired(now time.Time) bool {
	return expiration.IsUnixExpired(now, s.ExpiryTime)
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	s.Segments = slices.Clone(s.Segments)
	return s
}

// FromEntry returns a copy of the entry's snapshot with IsStale taken from the entry.
func FromEntry(e *snapshotcache.Entry[Snapshot]) Snapshot {
	s := e.Value.Clone()
	s.IsStale = e.Stale
	return s
}

// FormatDuration formats seconds as "Xh Ym".
func FormatDuration(seconds int64) string {
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}

// RemainingTime formats the time left until expiryTime (epoch seconds) as "Xh Ym", or "expired".
func RemainingTime(now time.Time, expiryTime int64) string {
	remaining := expiryTime - now.Unix()
	if remaining <= 0 {
		return "expired"
	}
	return FormatDuration(remaining)
}
