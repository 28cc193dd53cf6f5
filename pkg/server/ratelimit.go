package server

import (
	"net/http"
	"sync"
	"time"

	"mercator-hq/vesta/pkg/telemetry/logging"
)

// rateLimiter applies a fixed-window request cap per actor. Windows reset
// wholesale rather than sliding, which keeps the state to one counter per
// actor.
type rateLimiter struct {
	mu       sync.Mutex
	counts   map[string]int
	windowAt time.Time

	limit  int
	window time.Duration
	now    func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		counts: make(map[string]int),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow reports whether actor may make another request in the current
// window.
func (l *rateLimiter) Allow(actor string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.windowAt) >= l.window {
		l.counts = make(map[string]int)
		l.windowAt = now
	}
	if l.counts[actor] >= l.limit {
		return false
	}
	l.counts[actor]++
	return true
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := logging.Actor(r.Context())
		if !s.limiter.Allow(actor) {
			w.Header().Set("Retry-After", s.limiter.window.Round(time.Second).String())
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
