package adapter

import (
	"context"
	"time"
)

// Locker is a best-effort distributed mutex. TryLock returns
// domain.ErrLockHeld when another owner holds key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter counts hits on key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
