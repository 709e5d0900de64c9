package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is 10 requests per second per key.
	DefaultRate = rate.Limit(10)
	// DefaultBurst is the bucket size per key.
	DefaultBurst = 20

	limiterIdleTTL = 10 * time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key (client IP). Buckets unused for
// limiterIdleTTL are dropped by the janitor.
type RateLimiter struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	limits map[string]*entry
	now    func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewRateLimiter creates a rate limiter with the default budget and starts
// its janitor. Call Stop to release it.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWith(DefaultRate, DefaultBurst, time.Minute)
}

// NewRateLimiterWith creates a rate limiter sweeping idle keys every interval.
func NewRateLimiterWith(limit rate.Limit, burst int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		burst:  burst,
		limits: make(map[string]*entry),
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go rl.janitor(interval)
	return rl
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.limits[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limits[key] = e
	}
	e.lastSeen = rl.now()
	return e.limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Stop ends the janitor and waits for it to exit.
func (rl *RateLimiter) Stop() {
	select {
	case <-rl.stop:
	default:
		close(rl.stop)
	}
	<-rl.done
}

func (rl *RateLimiter) janitor(interval time.Duration) {
	defer close(rl.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-limiterIdleTTL)
	for key, e := range rl.limits {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limits, key)
		}
	}
}
