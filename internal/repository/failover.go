package repository

import (
	"context"
	"sync"
	"time"

	"barberbridge/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRateLimiter uses primary until it fails, then fallback,
// probing primary again once per recoveryInterval.
type FailoverRateLimiter struct {
	primary  domain.RateLimiter
	fallback domain.RateLimiter
	logger   *zerolog.Logger

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverRateLimiter) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		return true
	}
	// пробуем восстановиться раз в минуту
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverRateLimiter) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if down && !r.isDown {
		r.logger.Error().Msg("Primary rate limiter failed, falling back to memory")
	}
	if !down && r.isDown {
		r.logger.Info().Msg("Primary rate limiter recovered")
	}
	r.isDown = down
	if down {
		r.lastCheck = r.now()
	}
}

func (r *FailoverRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.setDown(false)
			return allowed, nil
		}
		r.logger.Warn().Err(err).Str("key", key).Msg("primary rate limiter error")
		r.setDown(true)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
