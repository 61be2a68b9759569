package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/resilience"
)

const (
	keyPrefix = "wiki:resolve:"
	opTimeout = 250 * time.Millisecond
)

// Backend is the key-value store behind Cache; *redis.Client satisfies it.
type Backend interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Resolver is anything that resolves a query; *Engine is the real one.
type Resolver interface {
	Resolve(ctx context.Context, q string) (Result, error)
}

// Cache memoises Resolve results. Cache failures never fail a resolution:
// a broken or slow backend degrades to resolving against the store.
type Cache struct {
	client  Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache wraps client. A nil breaker gets a default one.
func NewCache(client Backend, ttl time.Duration, breaker *resilience.CircuitBreaker) *Cache {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker("resolve-cache", resilience.CircuitBreakerConfig{})
	}
	return &Cache{
		client:  client,
		ttl:     ttl,
		breaker: breaker,
		logger:  slog.Default().With("component", "resolve-cache"),
	}
}

func (c *Cache) Get(ctx context.Context, q string) (Result, bool) {
	key := buildKey(q)
	var data string
	var found bool
	err := c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, opTimeout, "cache get", func(ctx context.Context) error {
			var err error
			data, found, err = c.client.Lookup(ctx, key)
			return err
		})
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return Result{}, false
	}
	if !found {
		c.misses.Add(1)
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return Result{}, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", q, "key", key)
	return withQuery(result, q), true
}

func (c *Cache) Set(ctx context.Context, q string, result Result) {
	key := buildKey(q)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, opTimeout, "cache set", func(ctx context.Context) error {
			return c.client.Set(ctx, key, data, c.ttl)
		})
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for q, or runs computeFn once per
// key across concurrent callers and caches what it returns.
func (c *Cache) GetOrCompute(ctx context.Context, q string, computeFn func() (Result, error)) (Result, bool, error) {
	if result, ok := c.Get(ctx, q); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(buildKey(q), func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, q, result)
		return result, nil
	})
	if err != nil {
		return Result{}, false, err
	}
	return withQuery(val.(Result), q), false, nil
}

// Invalidate drops every cached resolution. It is called after each save
// and, like Get and Set, gives up after opTimeout or while the breaker is
// open.
func (c *Cache) Invalidate(ctx context.Context) error {
	var deleted int64
	err := c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, opTimeout, "cache invalidate", func(ctx context.Context) error {
			n, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
			if err != nil {
				return err
			}
			deleted = n
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("invalidating resolve cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// ResolveCached resolves q through cache when it is non-nil. The bool
// reports a cache hit.
func ResolveCached(ctx context.Context, r Resolver, cache *Cache, q string) (Result, bool, error) {
	if cache == nil {
		result, err := r.Resolve(ctx, q)
		return result, false, err
	}
	return cache.GetOrCompute(ctx, q, func() (Result, error) {
		return r.Resolve(ctx, q)
	})
}

// buildKey hashes the lowercased query so every casing of a query shares a key.
func buildKey(q string) string {
	hash := sha256.Sum256([]byte(entry.Key(q)))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// withQuery restores the caller's spelling of the query on a result that was
// cached for a differently-cased one.
func withQuery(r Result, q string) Result {
	switch r.Kind {
	case KindPartialMatches, KindNotFound:
		r.Query = strings.TrimSpace(q)
	}
	return r
}
