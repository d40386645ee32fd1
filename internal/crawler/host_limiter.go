package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter enforces per-host politeness: a steady token bucket (default
// 2 requests/second) optionally stretched to a robots.txt crawl-delay floor.
// Workers wait on it at dequeue time.
type HostLimiter struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHostLimiter builds a limiter replenishing ratePerSec tokens per host.
// A positive crawlDelay wider than the bucket interval takes precedence.
func NewHostLimiter(ratePerSec float64, crawlDelay time.Duration) *HostLimiter {
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	interval := time.Duration(float64(time.Second) / ratePerSec)
	if crawlDelay > interval {
		interval = crawlDelay
	}
	return &HostLimiter{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the host's next token is available or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || host == "" {
		return nil
	}
	host = strings.ToLower(host)

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
