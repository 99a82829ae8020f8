package warden

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker enforces the "only one Warden invocation at a time" shared-resource
// policy. Acquire blocks (bounded by ctx) until the lock is held, and
// returns a release function.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalLock is an in-process mutex — sufficient when only one krecikd
// binary touches the history directory. Its Acquire ignores ctx and blocks
// until the mutex is free.
type LocalLock struct {
	mu sync.Mutex
}

func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

func (l *LocalLock) Acquire(_ context.Context) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

// RedisLock is a SETNX-based advisory lock with a TTL, used when multiple
// krecikd replicas share one history directory (e.g. an NFS mount) so they
// don't race the Warden concurrently.
type RedisLock struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
	Retry  time.Duration
}

// NewRedisLock returns a RedisLock polling every retry interval (default
// 200ms) until acquired or ctx is done.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLock{Client: client, Key: key, TTL: ttl, Retry: 200 * time.Millisecond}
}

func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	token := fmt.Sprintf("%d", time.Now().UnixNano())
	for {
		ok, err := l.Client.SetNX(ctx, l.Key, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire redis warden lock: %w", err)
		}
		if ok {
			release := func() {
				// Best-effort: only clear if we still own it (TTL expiry is
				// the real safety net against a crashed holder).
				if cur, err := l.Client.Get(context.Background(), l.Key).Result(); err == nil && cur == token {
					l.Client.Del(context.Background(), l.Key)
				}
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.Retry):
		}
	}
}

// fileExists reports whether path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
