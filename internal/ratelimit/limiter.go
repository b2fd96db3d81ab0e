// Package ratelimit provides per-key token buckets that throttle the
// simulation tools exposed over MCP.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Tool names with a configured limit.
const (
	ToolRun     = "llpp_run"
	ToolCompare = "llpp_compare"
	ToolRuns    = "llpp_runs"
)

// Limiter is a token bucket per key. Every key starts with burst tokens and
// regains rate tokens per second, up to burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	nowFunc func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewLimiter creates a limiter with rate tokens per second and the given burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// refill returns the bucket for key with tokens accrued up to now.
// l.mu must be held.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), seen: now}
		l.buckets[key] = b
		return b
	}
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(l.burst), b.tokens+l.rate*elapsed)
		b.seen = now
	}
	return b
}

// Allow takes a token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns how long until key has a token again. Zero means a call
// would be allowed now; a negative duration means never (zero rate).
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens >= 1 {
		return 0
	}
	if l.rate <= 0 {
		return -1
	}
	return time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default per-tool limits. Runs and comparisons
// are CPU bound, listing is cheap.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolRun:     NewLimiter(20.0/60.0, 5), // 20/minute, burst 5
		ToolCompare: NewLimiter(6.0/60.0, 2),  // 6/minute, burst 2
		ToolRuns:    NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit returns an error when toolName is over its limit.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if limiter.Allow(toolName) {
		return nil
	}
	if wait := limiter.RetryAfter(toolName); wait > 0 {
		return fmt.Errorf("rate limit exceeded for %s, retry in %s", toolName, wait.Round(time.Second))
	}
	return fmt.Errorf("rate limit exceeded for %s", toolName)
}
