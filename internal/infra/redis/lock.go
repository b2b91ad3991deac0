package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"egas-delivery/internal/domain"
	"egas-delivery/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*RedisLocker)(nil)

// RedisLocker is a SET NX lease with a token-checked release.
type RedisLocker struct {
	cli     RedisClient
	unlock  func(ctx context.Context, key, token string) error
	retries int
	backoff time.Duration
}

func NewLocker(c *Client) *RedisLocker {
	l := newLocker(c)
	l.unlock = func(ctx context.Context, key, token string) error {
		return luaUnlock.Run(ctx, c.cli, []string{key}, token).Err()
	}
	return l
}

func newLocker(c RedisClient) *RedisLocker {
	return &RedisLocker{cli: c, retries: 3, backoff: 50 * time.Millisecond}
}

// TryLock returns domain.ErrLockHeld once the retries are exhausted and
// another owner still holds key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	var lastErr error
	for i := 0; i < l.retries; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl)
		if err != nil {
			lastErr = err
		} else if ok {
			return token, nil
		} else {
			lastErr = domain.ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.backoff):
		}
	}
	return "", lastErr
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	if l.unlock != nil {
		return l.unlock(ctx, key, token)
	}
	// fallback without scripting: check then delete
	cur, err := l.cli.Get(ctx, key)
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if cur != token {
		return nil
	}
	return l.cli.Del(ctx, key)
}
