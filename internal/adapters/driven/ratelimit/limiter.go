// Package ratelimit wraps model providers with a client-side request budget.
// Every call waits for a token. A provider 429 pauses further calls for a
// backoff period; the failed call itself is not retried.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

// DefaultBackoff is the pause applied after a provider rate limit response.
const DefaultBackoff = 30 * time.Second

// Limiter is a token bucket with a backoff window.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	backoff time.Duration
	now     func() time.Time
}

// NewLimiter allows requestsPerMinute calls per minute with a burst of one.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerMinute int) *Limiter {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		backoff: DefaultBackoff,
		now:     time.Now,
	}
}

// WithBackoff sets the pause applied after a rate limit error.
func (l *Limiter) WithBackoff(d time.Duration) *Limiter {
	l.backoff = d
	return l
}

// Wait blocks until the backoff window has passed and a token is available.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := retryAt.Sub(l.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.limiter.Wait(ctx)
}

// Observe starts a backoff window when err is a provider rate limit.
func (l *Limiter) Observe(err error) {
	if !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryAt = l.now().Add(l.backoff)
}

// BackingOff reports whether calls are currently paused.
func (l *Limiter) BackingOff() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now().Before(l.retryAt)
}
