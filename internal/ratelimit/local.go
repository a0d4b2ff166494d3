package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxLocalKeys = 10000

// Local is an in-process limiter used when Redis is unavailable. Each key
// gets a token bucket holding limit tokens refilled over one window.
type Local struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocal() *Local {
	return &Local{buckets: make(map[string]*bucket), now: time.Now}
}

func (l *Local) Allow(key string, cfg ActionConfig) (*CheckResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxLocalKeys {
			l.evict(now, cfg.Window)
		}
		every := cfg.Window / time.Duration(cfg.Limit)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), int(cfg.Limit))}
		l.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	remaining := int64(b.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	return &CheckResult{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(cfg.Window).Unix(),
		Limit:     cfg.Limit,
	}, nil
}

// evict drops buckets idle for longer than a window.
func (l *Local) evict(now time.Time, window time.Duration) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > window {
			delete(l.buckets, k)
		}
	}
}
