package security

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterSweepThreshold = 1024

// AttemptLimiter is an in-process token bucket per key. It is best effort:
// it never errors and its state does not survive the process.
type AttemptLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
	entries map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterOption customizes an AttemptLimiter.
type LimiterOption func(*AttemptLimiter)

// WithLimiterClock injects the limiter clock.
func WithLimiterClock(clock func() time.Time) LimiterOption {
	return func(l *AttemptLimiter) {
		if clock != nil {
			l.now = clock
		}
	}
}

// NewAttemptLimiter allows attempts per window for each key, with an
// initial allowance of burst. A non-positive attempts value disables limiting.
func NewAttemptLimiter(attempts int, window time.Duration, burst int, opts ...LimiterOption) *AttemptLimiter {
	l := &AttemptLimiter{
		limit:   rate.Inf,
		burst:   burst,
		idle:    window,
		now:     time.Now,
		entries: make(map[string]*limiterEntry),
	}
	if attempts > 0 && window > 0 {
		l.limit = rate.Every(window / time.Duration(attempts))
	}
	if l.burst <= 0 {
		l.burst = max(attempts, 1)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Allow consumes one attempt for key and reports whether it was permitted.
// A nil limiter allows everything.
func (l *AttemptLimiter) Allow(key string) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= limiterSweepThreshold {
			l.sweep(now)
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// Reset forgets the state for key, e.g. after a successful sign-in.
func (l *AttemptLimiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

func (l *AttemptLimiter) sweep(now time.Time) {
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.entries, key)
		}
	}
}
