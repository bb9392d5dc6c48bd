// Package lock hands out short-lived per-key leases backed by Redis, with an
// in-process fallback when Redis is not configured or unreachable.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tradeidea/internal/autogen"
)

const keyPrefix = "tradeidea:lease:"

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLeaseLost is returned by Release when the lease expired or was taken over.
var ErrLeaseLost = errors.New("lease no longer held")

type redisLocker struct {
	client *redis.Client
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (autogen.Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{client: l.client, key: keyPrefix + key, token: token}, true, nil
}

type redisLease struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}

type memoryEntry struct {
	token   string
	expires time.Time
}

type memoryLocker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (l *memoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (autogen.Lease, bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok && e.expires.After(now) {
		return nil, false, nil
	}
	for k, e := range l.entries {
		if !e.expires.After(now) {
			delete(l.entries, k)
		}
	}

	token := uuid.NewString()
	l.entries[key] = memoryEntry{token: token, expires: now.Add(ttl)}
	return &memoryLease{locker: l, key: key, token: token}, true, nil
}

type memoryLease struct {
	locker *memoryLocker
	key    string
	token  string
}

func (l *memoryLease) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	e, ok := l.locker.entries[l.key]
	if !ok || e.token != l.token {
		return ErrLeaseLost
	}
	delete(l.locker.entries, l.key)
	return nil
}

// NewLocker builds a Redis locker and falls back to in-memory on failure.
// The returned error only reports why the fallback was used.
func NewLocker(addr, pass string, db int) (autogen.Locker, error) {
	if addr == "" {
		return newMemoryLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return newMemoryLocker(), err
	}

	return &redisLocker{client: client}, nil
}
