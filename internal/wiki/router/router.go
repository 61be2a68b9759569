// Package router wires the wiki routes and the middleware chain
// (RequestID → CORS → Metrics → LimitWrites → Timeout).
package router

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/internal/wiki/handler"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/middleware"
)

type Options struct {
	Checker *health.Checker
	Metrics *metrics.Metrics
	CORS    middleware.CORSConfig
	Timeout time.Duration

	// EditLimiter, if set, rate-limits writes per client.
	EditLimiter *middleware.Limiter
}

// New builds the HTTP handler.
//
// Route table:
//
//	GET    /api/v1/entries               → index of titles
//	POST   /api/v1/entries               → create entry
//	GET    /api/v1/entries/{title}/edit  → raw content for the edit form
//	PUT    /api/v1/entries/{title}       → replace entry content
//	GET    /api/v1/wiki/{title}          → rendered entry
//	GET    /api/v1/search                → resolve ?q=
//	GET    /api/v1/random                → rendered random entry
//	GET    /api/v1/analytics             → usage statistics
//	GET    /api/v1/cache/stats           → resolution cache counters
//	POST   /api/v1/cache/invalidate      → drop cached resolutions
//	GET    /health/live, /health/ready   → probes
func New(h *handler.Handler, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/entries", h.List)
	mux.HandleFunc("POST /api/v1/entries", h.Create)
	mux.HandleFunc("GET /api/v1/entries/{title}/edit", h.EditForm)
	mux.HandleFunc("PUT /api/v1/entries/{title}", h.Edit)
	mux.HandleFunc("GET /api/v1/wiki/{title}", h.View)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/random", h.Random)

	mux.HandleFunc("GET /api/v1/analytics", h.Analytics)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)

	checker := opts.Checker
	if checker == nil {
		checker = health.NewChecker()
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if opts.Timeout > 0 {
		chain = middleware.Timeout(opts.Timeout)(chain)
	}
	if opts.EditLimiter != nil {
		chain = middleware.LimitWrites(opts.EditLimiter)(chain)
	}
	if opts.Metrics != nil {
		chain = middleware.Metrics(opts.Metrics)(chain)
	}
	chain = middleware.CORS(opts.CORS)(chain)
	chain = middleware.RequestID(chain)
	return chain
}
