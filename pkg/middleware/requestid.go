// Package middleware provides the HTTP middleware the wiki server chains in
// front of its routes: request IDs, CORS, Prometheus metrics and timeouts.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses a caller-supplied X-Request-ID or generates one, echoes
// it on the response and stores it in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// GetRequestID returns the id RequestID stored, or "".
func GetRequestID(ctx context.Context) string {
	return logger.RequestID(ctx)
}
