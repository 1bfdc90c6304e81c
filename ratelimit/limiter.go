package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store counts requests per key within a fixed window. Implementations
// must make the count-or-reset step atomic per key so two requests
// arriving exactly at the window boundary cannot both reset it.
type Store interface {
	// Incr bumps the counter for key, starting a new window if none is
	// active, and returns the count within the current window plus the
	// instant the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Config is the budget for one route class.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

type Decision struct {
	Allowed           bool
	Remaining         int64
	RetryAfterSeconds int64
}

// ErrRateLimited is returned when a key exhausts its window budget.
type ErrRateLimited struct {
	RetryAfterSeconds int64
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

// Limiter applies a fixed-window budget over a Store.
type Limiter struct {
	store Store
	cfg   Config
}

func New(store Store, cfg Config) *Limiter {
	return &Limiter{store: store, cfg: cfg}
}

// Allow records one request for key and decides whether it fits the
// window budget. On a store error the request is allowed: throttling is
// a protection, not a correctness gate.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.cfg.Window)
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if count > int64(l.cfg.MaxRequests) {
		retry := int64(time.Until(resetAt).Milliseconds()+999) / 1000
		if retry < 1 {
			retry = 1
		}
		return Decision{Allowed: false, RetryAfterSeconds: retry},
			&ErrRateLimited{RetryAfterSeconds: retry}
	}
	return Decision{Allowed: true, Remaining: int64(l.cfg.MaxRequests) - count}, nil
}
