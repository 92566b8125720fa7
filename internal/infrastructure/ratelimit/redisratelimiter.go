package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is the shared-store implementation for multi-process
// deployments. Same fixed-window semantics as MemoryRateLimiter: INCR inside
// a key that expires at the window boundary.
type RedisRateLimiter struct {
	client      *redis.Client
	namespace   string
	windowSize  time.Duration
	maxRequests int
	ctx         context.Context
}

func NewRedisRateLimiter(client *redis.Client, namespace string, windowSize time.Duration, maxRequests int) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		namespace:   namespace,
		windowSize:  windowSize,
		maxRequests: maxRequests,
		ctx:         context.Background(),
	}
}

func (l *RedisRateLimiter) key(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.namespace, key)
}

func (l *RedisRateLimiter) Allow(key string) (bool, error) {
	redisKey := l.key(key)

	pipe := l.client.Pipeline()
	incr := pipe.Incr(l.ctx, redisKey)
	pipe.ExpireNX(l.ctx, redisKey, l.windowSize)

	if _, err := pipe.Exec(l.ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	return incr.Val() <= int64(l.maxRequests), nil
}

func (l *RedisRateLimiter) Remaining(key string) (int, error) {
	count, err := l.client.Get(l.ctx, l.key(key)).Int()
	if err == redis.Nil {
		return l.maxRequests, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit count: %w", err)
	}

	remaining := l.maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (l *RedisRateLimiter) RetryAfter(key string) (time.Duration, error) {
	redisKey := l.key(key)

	count, err := l.client.Get(l.ctx, redisKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit count: %w", err)
	}
	if count < l.maxRequests {
		return 0, nil
	}

	ttl, err := l.client.TTL(l.ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get rate limit ttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (l *RedisRateLimiter) Reset(key string) error {
	if err := l.client.Del(l.ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}
