package expiration_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/karupanerura/snapshot-cache/expiration"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		policy    expiration.ExpirationPolicy
		expiresAt time.Time
		want      bool
	}{
		{name: "general/future", policy: expiration.GeneralExpirationPolicy{}, expiresAt: now.Add(time.Nanosecond), want: false},
		{name: "general/exactly now", policy: expiration.GeneralExpirationPolicy{}, expiresAt: now, want: false},
		{name: "general/past", policy: expiration.GeneralExpirationPolicy{}, expiresAt: now.Add(-time.Nanosecond), want: true},
		{name: "general/missing marker", policy: expiration.GeneralExpirationPolicy{}, expiresAt: time.Time{}, want: true},
		{name: "unix seconds/previous second", policy: expiration.UnixSecondsExpirationPolicy{}, expiresAt: now.Add(-time.Second), want: true},
		{name: "unix seconds/missing marker", policy: expiration.UnixSecondsExpirationPolicy{}, expiresAt: time.Time{}, want: true},
		{name: "never/past", policy: expiration.NeverExpirationPolicy{}, expiresAt: now.Add(-1000 * time.Hour), want: false},
		{name: "never/missing marker", policy: expiration.NeverExpirationPolicy{}, expiresAt: time.Time{}, want: false},
		{name: "jitter/before window", policy: &expiration.JitterExpirationPolicy{Window: time.Minute}, expiresAt: now.Add(time.Minute + time.Second), want: false},
		{name: "jitter/past", policy: &expiration.JitterExpirationPolicy{Window: time.Minute}, expiresAt: now.Add(-time.Nanosecond), want: true},
		{name: "jitter/missing marker", policy: &expiration.JitterExpirationPolicy{Window: time.Minute}, expiresAt: time.Time{}, want: true},
		{name: "jitter/zero window", policy: &expiration.JitterExpirationPolicy{}, expiresAt: now, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.policy.IsExpired(now, tt.expiresAt); got != tt.want {
				t.Errorf("IsExpired(%v) = %v, want %v", tt.expiresAt, got, tt.want)
			}
		})
	}
}

func TestUnixSecondsExpirationPolicy_WithinTheSecond(t *testing.T) {
	t.Parallel()

	var policy expiration.UnixSecondsExpirationPolicy
	expiresAt := now
	for _, offset := range []time.Duration{0, 500 * time.Millisecond, time.Second - time.Nanosecond} {
		if policy.IsExpired(now.Add(offset), expiresAt) {
			t.Errorf("expired at +%s", offset)
		}
	}
	if !policy.IsExpired(now.Add(time.Second), expiresAt) {
		t.Error("not expired at +1s")
	}
}

func TestJitterExpirationPolicy_Window(t *testing.T) {
	t.Parallel()

	policy := &expiration.JitterExpirationPolicy{
		Window: time.Minute,
		Random: rand.New(rand.NewPCG(1, 2)),
	}

	// halfway through the window roughly half of the checks expire
	expiresAt := now.Add(30 * time.Second)
	var expired int
	const checks = 1000
	for range checks {
		if policy.IsExpired(now, expiresAt) {
			expired++
		}
	}
	if expired < checks/4 || expired > checks*3/4 {
		t.Errorf("expired %d of %d checks halfway through the window", expired, checks)
	}

	// nothing expires at the start of the window
	for range checks {
		if policy.IsExpired(now, now.Add(time.Minute)) {
			t.Fatal("expired at the start of the window")
		}
	}
}

func TestIsUnixExpired(t *testing.T) {
	t.Parallel()

	now := now.Add(500 * time.Millisecond)
	tests := []struct {
		name string
		ts   int64
		want bool
	}{
		{name: "future timestamp", ts: now.Unix() + 60, want: false},
		{name: "same second is not expired", ts: now.Unix(), want: false},
		{name: "previous second is expired", ts: now.Unix() - 1, want: true},
		{name: "zero timestamp is expired", ts: 0, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := expiration.IsUnixExpired(now, tt.ts); got != tt.want {
				t.Errorf("IsUnixExpired(%d) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}
