// Package cache stores computed standings keyed by roster fingerprint.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a byte-oriented TTL cache.
type Cache interface {
	// Get returns found=false on a miss. Errors are reserved for backend failures.
	Get(ctx context.Context, key string) (val []byte, found bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type entry struct {
	b   []byte
	exp time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily and by
// Set once the entry bound is reached.
type Memory struct {
	mu         sync.Mutex
	m          map[string]entry
	maxEntries int
	now        func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMaxEntries bounds the number of cached entries.
func WithMaxEntries(n int) MemoryOption {
	return func(c *Memory) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *Memory) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemory creates an in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	c := &Memory{m: make(map[string]entry), maxEntries: 256, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		delete(c.m, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.b...), true, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok && len(c.m) >= c.maxEntries {
		c.evictLocked()
	}
	e := entry{b: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = c.now().Add(ttl)
	}
	c.m[key] = e
	return nil
}

// evictLocked drops expired entries, or every entry when none has expired.
// Standings keys change with every roster write, so old entries are dead weight.
func (c *Memory) evictLocked() {
	now := c.now()
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
	if len(c.m) >= c.maxEntries {
		c.m = make(map[string]entry)
	}
}

// Redis is a Cache on a Redis server.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Redis{client: client, timeout: timeout}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	r := NewRedis(client, 0)
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return r, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the client.
func (r *Redis) Close() error { return r.client.Close() }
