package expiration

import (
	"math/rand/v2"
	"time"
)

// ExpirationPolicy decides whether something that expires at expiresAt has expired at now.
type ExpirationPolicy interface {
	IsExpired(now, expiresAt time.Time) bool
}

// GeneralExpirationPolicy expires once now is strictly after the expiration time.
// The zero time is always expired, so a missing marker reads as expired.
type GeneralExpirationPolicy struct{}

var _ ExpirationPolicy = GeneralExpirationPolicy{}

// IsExpired reports now > expiresAt.
func (GeneralExpirationPolicy) IsExpired(now, expiresAt time.Time) bool {
	return now.After(expiresAt)
}

// UnixSecondsExpirationPolicy compares at the resolution of Unix timestamps.
// A value that expires at second ts stays valid until the clock reaches ts+1.
type UnixSecondsExpirationPolicy struct{}

var _ ExpirationPolicy = UnixSecondsExpirationPolicy{}

// IsExpired reports now.Unix() > expiresAt.Unix().
func (UnixSecondsExpirationPolicy) IsExpired(now, expiresAt time.Time) bool {
	return IsUnixExpired(now, expiresAt.Unix())
}

// NeverExpirationPolicy never expires anything.
// As the cache-level policy it turns background revalidation off.
type NeverExpirationPolicy struct{}

var _ ExpirationPolicy = NeverExpirationPolicy{}

// IsExpired returns false.
func (NeverExpirationPolicy) IsExpired(_, _ time.Time) bool {
	return false
}

// JitterExpirationPolicy expires a value at a random point of the window that ends at its expiration time.
// Processes that cached the same snapshot together then revalidate at different times.
type JitterExpirationPolicy struct {
	// Window is the longest time before expiresAt at which a value may expire.
	// Zero makes the policy behave like GeneralExpirationPolicy.
	Window time.Duration

	// Random draws the jitter. Nil means the global generator.
	Random *rand.Rand
}

var _ ExpirationPolicy = (*JitterExpirationPolicy)(nil)

// IsExpired is always false before the window, always true after expiresAt,
// and inside the window compares now against expiresAt moved earlier by a fresh random jitter.
func (p *JitterExpirationPolicy) IsExpired(now, expiresAt time.Time) bool {
	if p.Window <= 0 || expiresAt.IsZero() || now.After(expiresAt) {
		return now.After(expiresAt)
	}
	if now.Before(expiresAt.Add(-p.Window)) {
		return false
	}
	return now.After(expiresAt.Add(-p.jitter()))
}

func (p *JitterExpirationPolicy) jitter() time.Duration {
	n := int64(p.Window) + 1
	if p.Random == nil {
		return time.Duration(rand.Int64N(n))
	}
	return time.Duration(p.Random.Int64N(n))
}

// IsUnixExpired reports whether now, truncated to whole seconds since the epoch, is past unixSeconds.
func IsUnixExpired(now time.Time, unixSeconds int64) bool {
	return now.Unix() > unixSeconds
}
