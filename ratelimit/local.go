package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleEviction = 10 * time.Minute

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is a per-key token bucket refilled at perMinute tokens per minute
type LocalLimiter struct {
	perMinute int
	lock      sync.Mutex
	entries   map[string]*localEntry
	lastSweep time.Time
}

func NewLocalLimiter(perMinute int) *LocalLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &LocalLimiter{
		perMinute: perMinute,
		entries:   make(map[string]*localEntry),
		lastSweep: time.Now(),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := time.Now()
	id := fingerprint(key)

	l.lock.Lock()
	defer l.lock.Unlock()

	l.sweep(now)

	entry, ok := l.entries[id]
	if !ok {
		entry = &localEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
		}
		l.entries[id] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{Allowed: false, Limit: l.perMinute, RetryAfter: delay}, nil
	}

	remaining := int(math.Floor(entry.limiter.TokensAt(now)))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: l.perMinute, Remaining: remaining}, nil
}

// sweep drops buckets idle long enough to have refilled completely
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleEviction {
		return
	}
	for id, entry := range l.entries {
		if now.Sub(entry.lastSeen) >= idleEviction {
			delete(l.entries, id)
		}
	}
	l.lastSweep = now
}

func (l *LocalLimiter) Close() error {
	return nil
}
