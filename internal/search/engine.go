// Package search resolves a requested title or free-text query against the
// entry store: an exact title, a list of titles containing the query, or
// nothing. An empty query resolves to the full entry index.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
)

// Engine answers Resolve, ListTitles and RandomTitle over a Store.
type Engine struct {
	store  entry.Store
	logger *slog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces the time-seeded random source used by RandomTitle.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

func NewEngine(store entry.Store, opts ...Option) *Engine {
	seed := uint64(time.Now().UnixNano())
	e := &Engine{
		store:  store,
		logger: slog.Default().With("component", "search-engine"),
		rnd:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve maps q to a Result. The error is non-nil only when the store
// itself fails.
func (e *Engine) Resolve(ctx context.Context, q string) (Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		titles, err := e.store.List(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("listing entries: %w", err)
		}
		return ShowAllEntries(titles), nil
	}

	found, ok, err := e.store.Get(ctx, q)
	if err != nil {
		return Result{}, fmt.Errorf("looking up %q: %w", q, err)
	}
	if ok {
		return ExactMatch(found.Title, found.Content), nil
	}

	titles, err := e.store.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("listing entries: %w", err)
	}
	if candidates := matchTitles(titles, q); len(candidates) > 0 {
		e.logger.Debug("partial matches", "query", q, "count", len(candidates))
		return PartialMatches(q, candidates), nil
	}
	return NotFound(q), nil
}

// ListTitles returns the full entry index in store order.
func (e *Engine) ListTitles(ctx context.Context) ([]string, error) {
	titles, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return titles, nil
}

// RandomTitle picks a title uniformly from the index. An empty store has no
// answer and yields ErrEmptyStore; callers should not offer a random page
// until an entry exists.
func (e *Engine) RandomTitle(ctx context.Context) (string, error) {
	titles, err := e.ListTitles(ctx)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", apperrors.ErrEmptyStore
	}
	e.mu.Lock()
	i := e.rnd.IntN(len(titles))
	e.mu.Unlock()
	return titles[i], nil
}

// matchTitles keeps the titles whose lowercase form contains the lowercase query,
// preserving their order.
func matchTitles(titles []string, q string) []string {
	needle := entry.Key(q)
	var matches []string
	for _, t := range titles {
		if strings.Contains(entry.Key(t), needle) {
			matches = append(matches, t)
		}
	}
	return matches
}
