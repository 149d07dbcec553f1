package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the fixed-window Redis limiter.
type RedisConfig struct {
	Limit  int
	Window time.Duration
}

// Redis is a fixed-window counter limiter shared across API instances.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis-backed limiter.
func NewRedis(client *redis.Client, cfg RedisConfig, logger *slog.Logger) *Redis {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	return &Redis{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Check increments the tenant's counter for the current window and
// compares it against the limit. The first increment in a window sets
// the key's expiry so counters clean themselves up.
func (r *Redis) Check(ctx context.Context, ownerID, jobType string) (Decision, error) {
	windowStart := time.Now().Truncate(r.window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", ownerID, jobType, windowStart.Unix())

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			r.logger.Warn("Failed to set rate limit key expiry",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	decision := Decision{
		Allowed:   count <= int64(r.limit),
		Limit:     r.limit,
		Remaining: r.limit - int(count),
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	if !decision.Allowed {
		decision.RetryAfter = time.Until(windowStart.Add(r.window))
		r.logger.Warn("Rate limit exceeded",
			slog.String("owner_id", ownerID),
			slog.String("job_type", jobType),
			slog.Int64("count", count),
			slog.Int("limit", r.limit),
		)
	}

	return decision, nil
}

var _ Limiter = (*Redis)(nil)
