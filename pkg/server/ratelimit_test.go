package server

import (
	"net/http"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/config"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	limiter := newRateLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("alice") || !limiter.Allow("alice") {
		t.Fatal("first two requests should be allowed")
	}
	if limiter.Allow("alice") {
		t.Error("third request in window should be denied")
	}
	if !limiter.Allow("bob") {
		t.Error("other actors have their own budget")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("alice") {
		t.Error("new window should reset the budget")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := newTestServerWithConfig(t, func(cfg *config.ServerConfig) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.Requests = 2
		cfg.RateLimit.Window = time.Minute
	}, Options{})

	for i := 0; i < 2; i++ {
		recorder := doRequest(t, srv, http.MethodGet, "/v1/configs/payments", "alice", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, recorder.Code)
		}
	}
	recorder := doRequest(t, srv, http.MethodGet, "/v1/configs/payments", "alice", nil)
	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", recorder.Code)
	}
	if recorder.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429")
	}

	// Health probes are outside the limited surface.
	recorder = doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	if recorder.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", recorder.Code)
	}
}
