package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/audit"
	"github.com/braianruaimi/YAvoyOk-sub002/metrics"
	"github.com/braianruaimi/YAvoyOk-sub002/ratelimit"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit applies a fixed-window budget keyed by user id, falling back
// to the client IP when no principal is set. Runs after authentication
// so authenticated traffic is throttled per account, not per address.
func RateLimit(limiter *ratelimit.Limiter, sink *audit.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if p, ok := Principal(c); ok {
			key = "user:" + strconv.FormatUint(uint64(p.ID), 10)
		}

		dec, err := limiter.Allow(c.Request.Context(), key)
		var limited *ratelimit.ErrRateLimited
		if errors.As(err, &limited) {
			deny(c, sink, audit.DecisionRateLimited, limited.Error())
			c.Header("Retry-After", strconv.FormatInt(dec.RetryAfterSeconds, 10))
			Abort(c, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}
		// Store errors fail open; the decision already says allowed.
		c.Next()
	}
}

// burstBuckets holds one token bucket per client IP. Idle entries are
// swept opportunistically on lookup so the map stays bounded without a
// background goroutine per route group.
type burstBuckets struct {
	mu        sync.Mutex
	entries   map[string]*burstEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	sweepEach time.Duration
	lastSweep time.Time
}

type burstEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newBurstBuckets(rps rate.Limit, burst int) *burstBuckets {
	return &burstBuckets{
		entries:   make(map[string]*burstEntry),
		rps:       rps,
		burst:     burst,
		idleTTL:   15 * time.Minute,
		sweepEach: 2 * time.Minute,
		lastSweep: time.Now(),
	}
}

func (b *burstBuckets) get(ip string) *rate.Limiter {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) >= b.sweepEach {
		b.sweepLocked(now)
	}
	if e, ok := b.entries[ip]; ok {
		e.lastSeen = now
		return e.lim
	}
	lim := rate.NewLimiter(b.rps, b.burst)
	b.entries[ip] = &burstEntry{lim: lim, lastSeen: now}
	return lim
}

func (b *burstBuckets) sweepLocked(now time.Time) {
	b.lastSweep = now
	cutoff := now.Add(-b.idleTTL)
	for ip, e := range b.entries {
		if e.lastSeen.Before(cutoff) {
			delete(b.entries, ip)
		}
	}
}

// Burst is a token-bucket limiter per client IP for unauthenticated
// endpoints (login, register), where the window limiter has no user key
// yet and credential stuffing is the concern.
func Burst(rps rate.Limit, burst int) gin.HandlerFunc {
	buckets := newBurstBuckets(rps, burst)

	return func(c *gin.Context) {
		if !buckets.get(c.ClientIP()).Allow() {
			metrics.AuthDeniedTotal.WithLabelValues(audit.DecisionRateLimited).Inc()
			c.Header("Retry-After", "1")
			Abort(c, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}
		c.Next()
	}
}
