// Package middleware provides HTTP middleware for the GhorBari API.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets caps the number of tracked IPs so the limiter itself cannot
// be used to exhaust memory.
const maxBuckets = 100_000

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	burst   int
}

// bucket tracks one IP's remaining tokens.
type bucket struct {
	tokens   int
	lastFill time.Time
}

// NewRateLimiter creates a limiter allowing ratePerSec sustained requests
// with bursts up to burst per IP. A background goroutine evicts idle
// buckets until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    ratePerSec,
		burst:   burst,
	}
	go rl.evictLoop(ctx)

	return rl
}

// take refills ip's bucket for the elapsed time and spends one token.
// The bool reports whether a token was available; tableFull reports that a
// new IP was turned away because the bucket table is at capacity.
func (rl *RateLimiter) take(ip string) (allowed, tableFull bool) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			return false, true
		}

		b = &bucket{tokens: rl.burst, lastFill: now}
		rl.buckets[ip] = b
	}

	if refill := int(now.Sub(b.lastFill).Seconds() * float64(rl.rate)); refill > 0 {
		b.tokens = min(b.tokens+refill, rl.burst)
		b.lastFill = now
	}

	if b.tokens == 0 {
		return false, false
	}
	b.tokens--

	return true, false
}

// evictLoop drops buckets that have not been touched in a while.
func (rl *RateLimiter) evictLoop(ctx context.Context) {
	const (
		sweepEvery = 5 * time.Minute
		maxIdle    = 10 * time.Minute
	)

	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.lastFill) > maxIdle {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Handler returns Gin middleware enforcing the per-IP limit.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// c.ClientIP() is safe from X-Forwarded-For spoofing because
		// SetTrustedProxies(nil) in router.go disables proxy header trust.
		allowed, tableFull := rl.take(c.ClientIP())

		if tableFull {
			c.Header("Retry-After", "60")
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

			return
		}

		if !allowed {
			c.Header("Retry-After", "1")
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
