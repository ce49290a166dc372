package redis

// Package redis provides Redis-based adapters for the berana system.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetLimiter caps forgot-password requests per email address using a
// counter with a fixed window. Failures are surfaced to the caller, which
// fails closed (treats a limiter error as "not allowed").
type ResetLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// ResetLimiterOptions groups construction parameters for ResetLimiter.
type ResetLimiterOptions struct {
	Client redis.UniversalClient
	Limit  int
	Window time.Duration
}

// NewResetLimiter creates a ResetLimiter.
func NewResetLimiter(opts ResetLimiterOptions) (*ResetLimiter, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Limit < 1 {
		return nil, errors.New("limit must be >= 1")
	}
	if opts.Window <= 0 {
		return nil, errors.New("window must be positive")
	}
	return &ResetLimiter{
		client: opts.Client,
		prefix: "reset-limit:",
		limit:  opts.Limit,
		window: opts.Window,
	}, nil
}

// Allow consumes one request slot for email and reports whether the
// request is inside the limit. The window starts at the first request.
func (l *ResetLimiter) Allow(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, errors.New("email cannot be empty")
	}

	key := l.prefix + email
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis expire: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}
