package auth

import (
	"sync"
	"time"
)

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// RateLimiter tracks failed login attempts per key (usually the remote IP).
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	maxFail  int
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing 10 failures per minute per key.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		attempts: make(map[string][]time.Time),
		window:   rateLimitWindow,
		maxFail:  rateLimitMaxFail,
		now:      time.Now,
	}
}

// RecordFailure records a failed attempt and returns true if key is now limited.
func (rl *RateLimiter) RecordFailure(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.prune(key)
	valid = append(valid, rl.now())
	rl.attempts[key] = valid

	return len(valid) > rl.maxFail
}

// Limited reports whether key has exceeded the failure budget.
func (rl *RateLimiter) Limited(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.prune(key)
	if len(valid) == 0 {
		delete(rl.attempts, key)
		return false
	}
	rl.attempts[key] = valid
	return len(valid) > rl.maxFail
}

// Reset forgets all failures for key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

// prune drops attempts older than the window. Caller holds mu.
func (rl *RateLimiter) prune(key string) []time.Time {
	cutoff := rl.now().Add(-rl.window)
	valid := rl.attempts[key][:0]
	for _, t := range rl.attempts[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}
