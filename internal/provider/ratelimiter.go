package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket sized for upstream API quotas. A bucket of
// N tokens refilling one per interval allows bursts of N and a steady rate
// of one call per interval after that.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   int
	capacity int
	interval time.Duration
	last     time.Time

	now func() time.Time
}

func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   maxTokens,
		capacity: maxTokens,
		interval: refillInterval,
		last:     time.Now(),
		now:      time.Now,
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.interval):
		}
	}
}

func (r *RateLimiter) take() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := r.now().Sub(r.last)
	if refilled := int(elapsed / r.interval); refilled > 0 {
		r.tokens += refilled
		if r.tokens > r.capacity {
			r.tokens = r.capacity
		}
		r.last = r.last.Add(time.Duration(refilled) * r.interval)
	}

	if r.tokens == 0 {
		return false
	}
	r.tokens--
	return true
}
