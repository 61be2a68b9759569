package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/resilience"
)

// memBackend is an in-process stand-in for Redis.
type memBackend struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]string)}
}

func (m *memBackend) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = string(value.([]byte))
	return nil
}

func (m *memBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

// stallingBackend hangs in FlushByPattern until release is closed, ignoring
// its context the way a wedged connection would.
type stallingBackend struct {
	*memBackend
	release chan struct{}
}

func (s *stallingBackend) FlushByPattern(context.Context, string) (int64, error) {
	<-s.release
	return 0, nil
}

// countingResolver counts how often the wrapped engine is consulted.
type countingResolver struct {
	inner Resolver
	calls atomic.Int64
}

func (c *countingResolver) Resolve(ctx context.Context, q string) (Result, error) {
	c.calls.Add(1)
	return c.inner.Resolve(ctx, q)
}

func newCachedFixture(t *testing.T) (*entry.MemoryStore, *countingResolver, *Cache, *memBackend) {
	t.Helper()
	store := entry.NewMemoryStore()
	ctx := context.Background()
	for title, content := range seedEntries {
		store.Save(ctx, title, content)
	}
	backend := newMemBackend()
	return store, &countingResolver{inner: NewEngine(store)}, NewCache(backend, time.Minute, nil), backend
}

func TestResolveCachedHitAndMiss(t *testing.T) {
	_, resolver, cache, _ := newCachedFixture(t)
	ctx := context.Background()

	first, hit, err := ResolveCached(ctx, resolver, cache, "yth")
	if err != nil || hit {
		t.Fatalf("first resolve: hit=%v err=%v", hit, err)
	}
	second, hit, err := ResolveCached(ctx, resolver, cache, "YTH")
	if err != nil || !hit {
		t.Fatalf("second resolve: hit=%v err=%v", hit, err)
	}
	if resolver.calls.Load() != 1 {
		t.Errorf("engine consulted %d times, want 1", resolver.calls.Load())
	}
	if diff := cmp.Diff(PartialMatches("yth", []string{"Python"}), first); diff != "" {
		t.Errorf("first mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(PartialMatches("YTH", []string{"Python"}), second); diff != "" {
		t.Errorf("cached result should carry the caller's query (-want +got):\n%s", diff)
	}
	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses; want 1, 1", hits, misses)
	}
}

func TestResolveCachedInvalidate(t *testing.T) {
	store, resolver, cache, _ := newCachedFixture(t)
	ctx := context.Background()

	if _, _, err := ResolveCached(ctx, resolver, cache, "Python"); err != nil {
		t.Fatal(err)
	}
	store.Save(ctx, "Python", "rewritten")
	if err := cache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	got, hit, err := ResolveCached(ctx, resolver, cache, "python")
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("expected a miss after invalidation")
	}
	if diff := cmp.Diff(ExactMatch("Python", "rewritten"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidateGivesUpOnStalledBackend(t *testing.T) {
	backend := &stallingBackend{memBackend: newMemBackend(), release: make(chan struct{})}
	t.Cleanup(func() { close(backend.release) })
	cache := NewCache(backend, time.Minute, resilience.NewCircuitBreaker("test", resilience.CircuitBreakerConfig{FailureThreshold: 1}))
	ctx := context.Background()

	start := time.Now()
	err := cache.Invalidate(ctx)
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("Invalidate err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Invalidate took %v on a stalled backend", elapsed)
	}

	start = time.Now()
	if err := cache.Invalidate(ctx); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("second Invalidate err = %v, want ErrCircuitOpen", err)
	}
	if elapsed := time.Since(start); elapsed > opTimeout {
		t.Errorf("open breaker still waited %v", elapsed)
	}
}

func TestResolveCachedBackendDown(t *testing.T) {
	_, resolver, _, backend := newCachedFixture(t)
	backend.err = errors.New("connection refused")
	cache := NewCache(backend, time.Minute, resilience.NewCircuitBreaker("test", resilience.CircuitBreakerConfig{FailureThreshold: 1}))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, hit, err := ResolveCached(ctx, resolver, cache, "css")
		if err != nil {
			t.Fatalf("resolve with broken cache: %v", err)
		}
		if hit {
			t.Error("broken cache reported a hit")
		}
		if got.Kind != KindExactMatch || got.Title != "CSS" {
			t.Errorf("got %v, want exact CSS", got)
		}
	}
	if resolver.calls.Load() != 3 {
		t.Errorf("engine consulted %d times, want 3", resolver.calls.Load())
	}
}

func TestResolveCachedWithoutCache(t *testing.T) {
	_, resolver, _, _ := newCachedFixture(t)
	got, hit, err := ResolveCached(context.Background(), resolver, nil, "nope")
	if err != nil || hit {
		t.Fatalf("hit=%v err=%v", hit, err)
	}
	if diff := cmp.Diff(NotFound("nope"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildKeyIgnoresCase(t *testing.T) {
	if buildKey("Python") != buildKey(" python ") {
		t.Error("keys for different casings of a query should match")
	}
	if buildKey("Python") == buildKey("Pythons") {
		t.Error("different queries should not share a key")
	}
	if !strings.HasPrefix(buildKey("x"), keyPrefix) {
		t.Errorf("key %q missing prefix %q", buildKey("x"), keyPrefix)
	}
}
