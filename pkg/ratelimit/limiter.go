// Package ratelimit paces outgoing TMDB requests. A Limiter caps the request
// rate of one client across all concurrent fetches; Sleep implements the
// fixed per-task delay used by the paginated fetcher.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var rateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "tmdb_rate_limit_wait_seconds",
	Help:    "Time spent waiting on the TMDB request limiter",
	Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
})

// Limiter is a token bucket shared by every request of one client.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing rps requests per second with the given
// burst. A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be issued or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		rateLimitWait.Observe(waited.Seconds())
	}
	return nil
}

// Limit returns the configured requests per second (rate.Inf when unlimited).
func (l *Limiter) Limit() rate.Limit {
	return l.limiter.Limit()
}

// Sleep pauses for d, returning early with ctx.Err() if ctx is done first.
// Non-positive durations return immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
