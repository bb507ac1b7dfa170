package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Locker grants exclusive access to a key. The returned unlock func is safe to
// call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process per-key lock. Waiters on the same key are
// served in arrival order; idle keys hold no memory.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[string]*keyState
}

type keyState struct {
	waiters []chan struct{}
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*keyState)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	ks, held := m.keys[key]
	if !held {
		m.keys[key] = &keyState{}
		m.mu.Unlock()
		return m.unlocker(key), nil
	}

	ready := make(chan struct{})
	ks.waiters = append(ks.waiters, ready)
	m.mu.Unlock()

	select {
	case <-ready:
		return m.unlocker(key), nil
	case <-ctx.Done():
	}

	m.mu.Lock()
	select {
	case <-ready:
		// handed over while giving up: pass it on
		m.mu.Unlock()
		m.release(key)
		return nil, ctx.Err()
	default:
	}
	for i, w := range ks.waiters {
		if w == ready {
			ks.waiters = append(ks.waiters[:i], ks.waiters[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	return nil, ctx.Err()
}

// Held reports whether key is currently locked
func (m *KeyedMutex) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok
}

func (m *KeyedMutex) unlocker(key string) func() {
	var once sync.Once
	return func() { once.Do(func() { m.release(key) }) }
}

// release hands the key to the oldest waiter, or frees it
func (m *KeyedMutex) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ks, ok := m.keys[key]
	if !ok {
		return
	}
	if len(ks.waiters) == 0 {
		delete(m.keys, key)
		return
	}
	next := ks.waiters[0]
	ks.waiters = ks.waiters[1:]
	close(next)
}

// releaseScript deletes the lock only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a cross-process lock on SET NX PX with an owner token
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisLocker creates a lock whose keys expire after ttl if the owner dies
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		prefix: "lock:ledger:",
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be done
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			releaseScript.Run(ctx, l.client, []string{lockKey}, token)
		})
	}, nil
}

// Chain acquires every locker in order and releases them in reverse
type Chain []Locker

func (c Chain) Lock(ctx context.Context, key string) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, l := range c {
		unlock, err := l.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}
