package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

const defaultRecheckAfter = time.Minute

// FailoverRateLimitStore uses primary until it errors, then serves from
// fallback and retries primary once recheckAfter has passed.
type FailoverRateLimitStore struct {
	primary      domain.RateLimitStore
	fallback     domain.RateLimitStore
	logger       *zerolog.Logger
	recheckAfter time.Duration
	now          func() time.Time

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
}

func NewFailoverRateLimitStore(primary, fallback domain.RateLimitStore, logger *zerolog.Logger) *FailoverRateLimitStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverRateLimitStore{
		primary:      primary,
		fallback:     fallback,
		logger:       logger,
		recheckAfter: defaultRecheckAfter,
		now:          time.Now,
	}
}

// Degraded reports whether requests are currently served by the fallback.
func (r *FailoverRateLimitStore) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDown
}

func (r *FailoverRateLimitStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.shouldTryPrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverRateLimitStore) shouldTryPrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		return true
	}
	if r.now().Sub(r.lastCheck) >= r.recheckAfter {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverRateLimitStore) markDown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		r.logger.Error().Err(err).Msg("Primary rate limit store failed, falling back to memory")
	}
	r.isDown = true
	r.lastCheck = r.now()
}

func (r *FailoverRateLimitStore) markUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDown {
		r.logger.Info().Msg("Primary rate limit store recovered")
	}
	r.isDown = false
}
