package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type memRateLimiter struct {
	counts map[string]int64
	err    error
}

func newMemRateLimiter() *memRateLimiter {
	return &memRateLimiter{counts: map[string]int64{}}
}

func (m *memRateLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if m.err != nil {
		return false, 0, m.err
	}
	m.counts[scope]++
	count := m.counts[scope]
	return count <= limit, count, nil
}

func okHandler(calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.WriteHeader(http.StatusOK)
	})
}

func sendFrom(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(`{}`))
	req.Header.Set("X-Forwarded-For", ip)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := newMemRateLimiter()
	var calls int32
	policy := NewRateLimitPolicy("sales", time.Minute, 2)
	handler := RateLimit(policy, store, nil)(okHandler(&calls))

	for i := 0; i < 2; i++ {
		if resp := sendFrom(handler, "10.0.0.1"); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.Code)
		}
	}

	resp := sendFrom(handler, "10.0.0.1")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "RATE_LIMITED") {
		t.Fatalf("expected RATE_LIMITED envelope, got %s", resp.Body.String())
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", got)
	}
}

func TestRateLimitCountsPerClient(t *testing.T) {
	store := newMemRateLimiter()
	var calls int32
	policy := NewRateLimitPolicy("sales", time.Minute, 1)
	handler := RateLimit(policy, store, nil)(okHandler(&calls))

	if resp := sendFrom(handler, "10.0.0.1"); resp.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", resp.Code)
	}
	if resp := sendFrom(handler, "10.0.0.2"); resp.Code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", resp.Code)
	}
	if resp := sendFrom(handler, "10.0.0.1"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("first client again: expected 429, got %d", resp.Code)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	var calls int32
	policy := NewRateLimitPolicy("sales", 0, 0)
	handler := RateLimit(policy, newMemRateLimiter(), nil)(okHandler(&calls))

	for i := 0; i < 5; i++ {
		if resp := sendFrom(handler, "10.0.0.1"); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.Code)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 5 {
		t.Fatalf("expected all requests through, handler ran %d times", got)
	}
}

func TestRateLimitNilStorePassesThrough(t *testing.T) {
	var calls int32
	policy := NewRateLimitPolicy("sales", time.Minute, 1)
	handler := RateLimit(policy, nil, nil)(okHandler(&calls))

	for i := 0; i < 3; i++ {
		if resp := sendFrom(handler, "10.0.0.1"); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.Code)
		}
	}
}

func TestRateLimitStoreFailureIsDependencyError(t *testing.T) {
	store := newMemRateLimiter()
	store.err = errors.New("redis down")
	var calls int32
	policy := NewRateLimitPolicy("sales", time.Minute, 1)
	handler := RateLimit(policy, store, nil)(okHandler(&calls))

	resp := sendFrom(handler, "10.0.0.1")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on limiter failure, got %d", resp.Code)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("expected handler not to run, ran %d times", got)
	}
}
