// Package ratelimit throttles documentation playground calls per developer API key
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects a call for key. Implementations never block.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Close() error
}

// New returns a Redis backed limiter when redisURL is set, otherwise an in-process one
func New(redisURL string, perMinute int) (Limiter, error) {
	if redisURL == "" {
		return NewLocalLimiter(perMinute), nil
	}
	limiter, err := NewRedisLimiter(redisURL, perMinute, "playground:rate_limit")
	if err != nil {
		return nil, err
	}
	return limiter, nil
}

// fingerprint keeps raw API keys out of memory maps and Redis key names
func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
