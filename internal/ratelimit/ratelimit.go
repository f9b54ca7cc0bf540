package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in Redis over a fixed window. Shared state
// lives in Redis so the limit holds across replicas.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func New(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Allow records one request for key and reports whether it is within the
// limit. The first hit in a window sets the expiry.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	} else {
		// recover from a lost expiry (e.g. crash between INCR and EXPIRE)
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err == nil && ttl < 0 {
			l.client.Expire(ctx, redisKey, l.window)
		}
	}

	return count <= l.limit, nil
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
