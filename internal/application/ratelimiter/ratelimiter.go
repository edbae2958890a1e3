package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrRateLimitExceeded is returned when the rate limit is exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// RateLimiter admits at most maxCalls calls within any sliding window.
type RateLimiter struct {
	mu             sync.Mutex
	maxCalls       int
	windowDuration time.Duration
	callTimestamps []time.Time
	now            func() time.Time
}

// NewRateLimiter creates a limiter allowing maxCalls per windowDuration.
// A nil clock uses time.Now.
func NewRateLimiter(maxCalls int, windowDuration time.Duration, clock func() time.Time) *RateLimiter {
	if maxCalls <= 0 {
		maxCalls = 1 // Minimum 1 call
	}
	if windowDuration <= 0 {
		windowDuration = time.Minute // Default to 1 minute
	}
	if clock == nil {
		clock = time.Now
	}

	return &RateLimiter{
		maxCalls:       maxCalls,
		windowDuration: windowDuration,
		callTimestamps: make([]time.Time, 0, maxCalls),
		now:            clock,
	}
}

// Allow records a call, or returns ErrRateLimitExceeded without recording it
// when the window is full.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evict(now)

	if len(rl.callTimestamps) >= rl.maxCalls {
		return ErrRateLimitExceeded
	}

	rl.callTimestamps = append(rl.callTimestamps, now)
	return nil
}

// Remaining reports how many calls the current window still admits.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.evict(rl.now())
	return rl.maxCalls - len(rl.callTimestamps)
}

// evict drops timestamps that fell out of the window. Caller holds mu.
func (rl *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-rl.windowDuration)
	valid := rl.callTimestamps[:0]
	for _, ts := range rl.callTimestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	rl.callTimestamps = valid
}
