// Package handler serves the encyclopedia's JSON API: browsing, search,
// create and edit, random entries, plus cache and analytics endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/editor"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/entry"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/markup"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/search"
	apperrors "github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/middleware"
)

// maxBodyBytes caps create and edit request bodies.
const maxBodyBytes = 2 << 20

// Engine is the read side the handler needs; *search.Engine implements it.
type Engine interface {
	search.Resolver
	ListTitles(ctx context.Context) ([]string, error)
	RandomTitle(ctx context.Context) (string, error)
}

type Handler struct {
	engine     Engine
	workflow   *editor.Workflow
	renderer   markup.Renderer
	cache      *search.Cache
	collector  *analytics.Collector
	aggregator *analytics.Aggregator
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option sets one of the optional collaborators.
type Option func(*Handler)

func WithCache(c *search.Cache) Option {
	return func(h *Handler) { h.cache = c }
}

func WithCollector(c *analytics.Collector) Option {
	return func(h *Handler) { h.collector = c }
}

func WithAggregator(a *analytics.Aggregator) Option {
	return func(h *Handler) { h.aggregator = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

func New(engine Engine, workflow *editor.Workflow, renderer markup.Renderer, opts ...Option) *Handler {
	h := &Handler{
		engine:   engine,
		workflow: workflow,
		renderer: renderer,
		logger:   slog.Default().With("component", "wiki-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EntryResponse is an entry ready for display.
type EntryResponse struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	HTML    string `json:"html"`
}

// SearchResponse is a resolution outcome; HTML is set for exact matches.
type SearchResponse struct {
	search.Result
	HTML     string `json:"html,omitempty"`
	CacheHit bool   `json:"cache_hit"`
}

type createRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type editRequest struct {
	Content string `json:"content"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	titles, err := h.engine.ListTitles(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.EntriesStored.Set(float64(len(titles)))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"entries": nonNil(titles),
		"count":   len(titles),
	})
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	e, err := h.workflow.Load(r.Context(), r.PathValue("title"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeEntry(w, r, http.StatusOK, e)
}

// Search resolves ?q=. An empty query lists every entry.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	query := r.URL.Query().Get("q")

	result, cacheHit, err := search.ResolveCached(ctx, h.engine, h.cache, query)
	if err != nil {
		log.Error("resolve failed", "query", query, "error", err)
		h.handleError(w, r, err)
		return
	}
	latency := time.Since(start)

	resp := SearchResponse{Result: result, CacheHit: cacheHit}
	if result.Kind == search.KindExactMatch {
		html, err := h.renderer.Render(result.Content)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		resp.HTML = html
	}

	log.Info("query resolved",
		"query", query,
		"outcome", result.Kind,
		"candidates", len(result.Candidates),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	h.observeResolve(result, cacheHit, latency)
	if h.collector != nil {
		h.collector.Track(analytics.ResolveEvent{
			Type:       analytics.EventResolve,
			Query:      query,
			Outcome:    string(result.Kind),
			Candidates: len(result.Candidates),
			LatencyMs:  latency.Milliseconds(),
			CacheHit:   cacheHit,
			Timestamp:  time.Now().UTC(),
			RequestID:  middleware.GetRequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Create answers 201 with the new entry. A taken title answers 409 with
// the submitted values so the form can be shown again.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	title, err := h.workflow.Create(r.Context(), req.Title, req.Content)
	if errors.Is(err, apperrors.ErrDuplicateTitle) {
		h.writeJSON(w, http.StatusConflict, map[string]any{
			"error":   errorMessage(err),
			"title":   req.Title,
			"content": req.Content,
		})
		return
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.recordSave(editor.ActionCreated)
	h.writeEntry(w, r, http.StatusCreated, entry.Entry{Title: title, Content: editor.Heading(title) + req.Content})
}

// EditForm returns the raw content an edit starts from.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	e, err := h.workflow.Load(r.Context(), r.PathValue("title"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !h.decode(w, r, &req) {
		return
	}
	title, err := h.workflow.Edit(r.Context(), r.PathValue("title"), req.Content)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.recordSave(editor.ActionEdited)
	h.writeEntry(w, r, http.StatusOK, entry.Entry{Title: title, Content: req.Content})
}

func (h *Handler) Random(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	title, err := h.engine.RandomTitle(ctx)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	e, err := h.workflow.Load(ctx, title)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeEntry(w, r, http.StatusOK, e)
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	if h.aggregator == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeEntry(w http.ResponseWriter, r *http.Request, status int, e entry.Entry) {
	html, err := h.renderer.Render(e.Content)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, status, EntryResponse{Title: e.Title, Content: e.Content, HTML: html})
}

func (h *Handler) observeResolve(result search.Result, cacheHit bool, latency time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.ResolveOutcomesTotal.WithLabelValues(string(result.Kind)).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	if h.cache == nil {
		cacheStatus = "disabled"
	}
	h.metrics.ResolveLatency.WithLabelValues(cacheStatus).Observe(latency.Seconds())
	if result.Kind == search.KindPartialMatches {
		h.metrics.PartialMatchCount.Observe(float64(len(result.Candidates)))
	}
}

func (h *Handler) recordSave(action editor.Action) {
	if h.metrics != nil {
		h.metrics.EntriesSavedTotal.WithLabelValues(string(action)).Inc()
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleError maps err onto a status. Validation failures carry their
// fields; expected outcomes are not logged as errors.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *editor.ValidationError
	if errors.As(err, &vErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": vErr.Fields,
		})
		return
	}
	status := apperrors.HTTPStatusCode(err)
	log := logger.FromContext(r.Context())
	if apperrors.IsExpected(err) {
		log.Info("request rejected", "path", r.URL.Path, "status", status, "reason", err)
	} else {
		log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	h.writeError(w, status, errorMessage(err))
}

// errorMessage returns text safe to show a reader; internal causes stay in
// the log.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr.Message
	case errors.Is(err, apperrors.ErrEmptyStore):
		return "the encyclopedia has no entries yet"
	case errors.Is(err, apperrors.ErrTimeout):
		return "request timed out"
	default:
		return "internal server error"
	}
}

func nonNil(titles []string) []string {
	if titles == nil {
		return []string{}
	}
	return titles
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
