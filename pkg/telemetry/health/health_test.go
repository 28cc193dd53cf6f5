package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_ReadinessAllHealthy(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("storage", func(ctx context.Context) error { return nil })
	c.Register("audit", func(ctx context.Context) error { return nil })

	status := c.Readiness(context.Background())

	if status.Status != StatusReady {
		t.Errorf("expected status %q, got %q", StatusReady, status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("expected 2 check results, got %d", len(status.Checks))
	}
	for name, result := range status.Checks {
		if result.Status != StatusOK {
			t.Errorf("check %q = %q, want %q", name, result.Status, StatusOK)
		}
	}
}

func TestChecker_ReadinessDegraded(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("storage", func(ctx context.Context) error { return nil })
	c.Register("cache", func(ctx context.Context) error { return errors.New("redis unreachable") })

	status := c.Readiness(context.Background())

	if status.Status != StatusDegraded {
		t.Errorf("expected status %q, got %q", StatusDegraded, status.Status)
	}
	if status.Checks["cache"].Message != "redis unreachable" {
		t.Errorf("expected failure message, got %q", status.Checks["cache"].Message)
	}
	if status.Checks["storage"].Status != StatusOK {
		t.Errorf("healthy check reported %q", status.Checks["storage"].Status)
	}
}

func TestChecker_ReadinessNoChecks(t *testing.T) {
	c := NewChecker(time.Second)

	status := c.Readiness(context.Background())
	if status.Status != StatusReady {
		t.Errorf("expected %q with no checks, got %q", StatusReady, status.Status)
	}
}

func TestChecker_ReadinessTimeout(t *testing.T) {
	c := NewChecker(50 * time.Millisecond)
	c.Register("stuck", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(time.Second)
		return ctx.Err()
	})

	start := time.Now()
	status := c.Readiness(context.Background())
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("readiness blocked on stuck check for %v", elapsed)
	}
	if status.Status != StatusDegraded {
		t.Errorf("expected %q for timed-out check, got %q", StatusDegraded, status.Status)
	}
}

func TestChecker_RegisterReplaces(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("storage", func(ctx context.Context) error { return errors.New("down") })
	c.Register("storage", func(ctx context.Context) error { return nil })

	status := c.Readiness(context.Background())
	if status.Status != StatusReady {
		t.Errorf("replacement check ignored, status %q", status.Status)
	}
	if len(c.Names()) != 1 {
		t.Errorf("expected 1 registered check, got %v", c.Names())
	}
}

func TestLivenessHandler(t *testing.T) {
	c := NewChecker(time.Second)
	// Liveness must not depend on check outcomes.
	c.Register("storage", func(ctx context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("liveness returned %d, want 200", rec.Code)
	}
	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if status.Status != StatusOK {
		t.Errorf("liveness status %q, want %q", status.Status, StatusOK)
	}
}

func TestReadinessHandler_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		checkErr error
		wantCode int
	}{
		{name: "ready", checkErr: nil, wantCode: http.StatusOK},
		{name: "degraded", checkErr: errors.New("down"), wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(time.Second)
			c.Register("storage", func(ctx context.Context) error { return tt.checkErr })

			rec := httptest.NewRecorder()
			c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("readiness returned %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestReadinessHandler_HeadOmitsBody(t *testing.T) {
	c := NewChecker(time.Second)
	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodHead, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("HEAD readiness returned %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response carried a body: %q", rec.Body.String())
	}
}
