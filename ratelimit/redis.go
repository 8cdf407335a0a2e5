package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter store backed by Redis INCR. Counters
// share state across instances, so limits hold fleet-wide.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store. Keys are namespaced under
// prefix; empty prefix defaults to "rl".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "rl"
	}

	return &Redis{client: client, prefix: prefix}
}

// Allow implements Store using INCR with a conditional EXPIRE on the
// first hit of each window.
func (r *Redis) Allow(ctx context.Context, key string, cfg Config) (Decision, error) {
	redisKey := r.prefix + ":" + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// First hit in the window owns setting the TTL.
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, cfg.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > int64(cfg.Max) {
		retryAfter := cfg.Window
		if ttl, err := r.client.PTTL(ctx, redisKey).Result(); err == nil && ttl > 0 {
			retryAfter = ttl
		}

		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
	}

	remaining := cfg.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{Allowed: true, Remaining: remaining}, nil
}
