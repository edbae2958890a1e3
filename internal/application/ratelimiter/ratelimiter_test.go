package ratelimiter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name           string
		maxCalls       int
		windowDuration time.Duration
		wantMaxCalls   int
		wantWindow     time.Duration
	}{
		{name: "as given", maxCalls: 10, windowDuration: 30 * time.Second, wantMaxCalls: 10, wantWindow: 30 * time.Second},
		{name: "zero calls defaults to 1", maxCalls: 0, windowDuration: time.Minute, wantMaxCalls: 1, wantWindow: time.Minute},
		{name: "negative calls defaults to 1", maxCalls: -5, windowDuration: time.Minute, wantMaxCalls: 1, wantWindow: time.Minute},
		{name: "zero duration defaults to minute", maxCalls: 10, windowDuration: 0, wantMaxCalls: 10, wantWindow: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.maxCalls, tt.windowDuration, nil)
			if rl.maxCalls != tt.wantMaxCalls {
				t.Errorf("NewRateLimiter() maxCalls = %d, want %d", rl.maxCalls, tt.wantMaxCalls)
			}
			if rl.windowDuration != tt.wantWindow {
				t.Errorf("NewRateLimiter() windowDuration = %v, want %v", rl.windowDuration, tt.wantWindow)
			}
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name          string
		maxCalls      int
		numCalls      int
		wantSuccesses int
	}{
		{name: "within limit", maxCalls: 5, numCalls: 5, wantSuccesses: 5},
		{name: "exceeding limit", maxCalls: 3, numCalls: 5, wantSuccesses: 3},
		{name: "single call limit", maxCalls: 1, numCalls: 2, wantSuccesses: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.maxCalls, time.Minute, nil)
			successes := 0

			for i := 0; i < tt.numCalls; i++ {
				err := rl.Allow(context.Background())
				switch {
				case err == nil:
					successes++
				case !errors.Is(err, ErrRateLimitExceeded):
					t.Errorf("Allow() error = %v, want ErrRateLimitExceeded", err)
				}
			}

			if successes != tt.wantSuccesses {
				t.Errorf("Allow() got %d successes, want %d", successes, tt.wantSuccesses)
			}
		})
	}
}

func TestRateLimiter_Allow_Concurrent(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(context.Background()) == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 5 {
		t.Errorf("Allow() got %d successes, want 5", successes)
	}
}

func TestRateLimiter_Allow_CancelledContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Allow(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Allow() error = %v, want %v", err, context.Canceled)
	}
	if rl.Remaining() != 1 {
		t.Errorf("cancelled call consumed capacity, Remaining() = %d", rl.Remaining())
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(2, 10*time.Second, clock.Now)
	ctx := context.Background()

	if err := rl.Allow(ctx); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	clock.Advance(4 * time.Second)
	if err := rl.Allow(ctx); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if err := rl.Allow(ctx); !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("Allow() third call error = %v, want ErrRateLimitExceeded", err)
	}

	// first call leaves the window, second is still inside
	clock.Advance(7 * time.Second)
	if rl.Remaining() != 1 {
		t.Errorf("Remaining() = %d, want 1", rl.Remaining())
	}
	if err := rl.Allow(ctx); err != nil {
		t.Errorf("Allow() after slide error = %v", err)
	}
	if err := rl.Allow(ctx); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Allow() error = %v, want ErrRateLimitExceeded", err)
	}
}
