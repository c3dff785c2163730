package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const window = time.Minute

// RedisLimiter is a fixed one-minute window counter shared by every server instance
type RedisLimiter struct {
	client  *redis.Client
	limit   int
	baseKey string
	now     func() time.Time
}

// RedisOption configures a RedisLimiter
type RedisOption func(*RedisLimiter)

// WithClock overrides the time source used to pick the window
func WithClock(now func() time.Time) RedisOption {
	return func(r *RedisLimiter) {
		r.now = now
	}
}

func NewRedisLimiter(redisURL string, limit int, baseKey string, opts ...RedisOption) (*RedisLimiter, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if limit <= 0 {
		limit = 1
	}
	r := &RedisLimiter{
		client:  client,
		limit:   limit,
		baseKey: baseKey,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Allow counts the call in the current window. Redis failures admit the call.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	windowKey := fmt.Sprintf("%s:%s:%d", r.baseKey, fingerprint(key), now.Unix()/int64(window.Seconds()))

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, 2*window)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("RateLimiter: Redis error")
		return Decision{Allowed: true, Limit: r.limit, Remaining: r.limit}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := incr.Val()
	if count > int64(r.limit) {
		retryAfter := now.Truncate(window).Add(window).Sub(now)
		log.Warn().Int64("count", count).Int("limit", r.limit).Msg("Playground rate limit exceeded")
		return Decision{Allowed: false, Limit: r.limit, RetryAfter: retryAfter}, nil
	}
	return Decision{Allowed: true, Limit: r.limit, Remaining: r.limit - int(count)}, nil
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
