//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"egas-delivery/internal/domain"
)

// fakeClient is an in-memory RedisClient without expiry.
type fakeClient struct {
	mu      sync.Mutex
	data    map[string]string
	counts  map[string]int64
	expires map[string]time.Duration
	failNX  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: map[string]string{}, counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }
func (f *fakeClient) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return nil
}
func (f *fakeClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNX != nil {
		return false, f.failNX
	}
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	f.expires[key] = ttl
	return true, nil
}
func (f *fakeClient) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}
func (f *fakeClient) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}
func (f *fakeClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = expiration
	return nil
}
func (f *fakeClient) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}
func (f *fakeClient) Close() error { return nil }

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("should grant the lock once and report it held afterwards", func(t *testing.T) {
		cli := newFakeClient()
		l := newLocker(cli)
		l.backoff = time.Millisecond

		token, err := l.TryLock(ctx, "billing:cycle", time.Minute)
		if err != nil || token == "" {
			t.Fatalf("expected lock, got token=%q err=%v", token, err)
		}
		if cli.expires["billing:cycle"] != time.Minute {
			t.Errorf("lock must carry a ttl, got %v", cli.expires["billing:cycle"])
		}
		if _, err := l.TryLock(ctx, "billing:cycle", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
			t.Fatalf("expected ErrLockHeld, got %v", err)
		}
	})

	t.Run("should release only with the owner's token", func(t *testing.T) {
		cli := newFakeClient()
		l := newLocker(cli)
		l.backoff = time.Millisecond

		token, err := l.TryLock(ctx, "k", time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		if err := l.Unlock(ctx, "k", "someone-else"); err != nil {
			t.Fatal(err)
		}
		if _, ok := cli.data["k"]; !ok {
			t.Fatal("foreign token must not release the lock")
		}
		if err := l.Unlock(ctx, "k", token); err != nil {
			t.Fatal(err)
		}
		if _, err := l.TryLock(ctx, "k", time.Minute); err != nil {
			t.Errorf("expected lock to be free again, got %v", err)
		}
	})

	t.Run("should surface transport errors", func(t *testing.T) {
		cli := newFakeClient()
		cli.failNX = errors.New("connection refused")
		l := newLocker(cli)
		l.backoff = time.Millisecond

		_, err := l.TryLock(ctx, "k", time.Minute)
		if err == nil || errors.Is(err, domain.ErrLockHeld) {
			t.Errorf("expected transport error, got %v", err)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	cli := newFakeClient()
	rl := NewRateLimiter(cli)

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "rate_limit:login:a@b.co", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("attempt %d: expected allow, got ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := rl.Allow(ctx, "rate_limit:login:a@b.co", 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("fourth attempt inside the window must be refused")
	}
	if cli.expires["rate_limit:login:a@b.co"] != time.Minute {
		t.Error("window expiry must be set on the first hit")
	}
}
