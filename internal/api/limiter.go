package api

import (
	"sync"

	"barberbridge/internal/config"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// keyedLimiter держит token bucket на каждый API-ключ (или IP).
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      config.APIRateLimitConfig
}

func newKeyedLimiter(cfg config.APIRateLimitConfig) *keyedLimiter {
	return &keyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		cfg:      cfg,
	}
}

func (l *keyedLimiter) enabled() bool {
	return l.cfg.RPS > 0
}

func (l *keyedLimiter) allow(key string) bool {
	if !l.enabled() {
		return true
	}
	return l.get(key).Allow()
}

func (l *keyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[key]; ok {
		return lim
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	l.limiters[key] = lim
	return lim
}
