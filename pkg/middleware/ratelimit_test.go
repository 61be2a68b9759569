package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request within the window should be limited")
	}
	if !l.Allow("b") {
		t.Error("keys must not share a bucket")
	}

	now = now.Add(30 * time.Second)
	if !l.Allow("a") {
		t.Error("half a window should refill one token")
	}

	now = now.Add(10 * time.Minute)
	l.prune()
	if len(l.buckets) != 0 {
		t.Errorf("buckets after prune = %d, want 0", len(l.buckets))
	}
}

func TestLimitWritesOnlyLimitsWrites(t *testing.T) {
	h := LimitWrites(NewLimiter(1, time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	serve := func(method string) int {
		req := httptest.NewRequest(method, "/api/v1/entries", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if got := serve(http.MethodPost); got != http.StatusOK {
		t.Errorf("first POST = %d", got)
	}
	if got := serve(http.MethodPut); got != http.StatusTooManyRequests {
		t.Errorf("second write = %d, want 429", got)
	}
	for i := 0; i < 3; i++ {
		if got := serve(http.MethodGet); got != http.StatusOK {
			t.Errorf("GET = %d, reads must not be limited", got)
		}
	}
}
