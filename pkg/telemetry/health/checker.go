package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Overall and per-check status values.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// CheckResult is the outcome of one component probe.
type CheckResult struct {
	Status string `json:"status"`

	// Message carries the failure cause for failed checks.
	Message string `json:"message,omitempty"`

	// Elapsed is how long the probe took.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// Status aggregates the outcome of a probe run.
type Status struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker runs registered component probes. Safe for concurrent use.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewChecker creates a Checker with the given per-check timeout (5s when
// zero).
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// Register adds or replaces the probe for a named component.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns the registered component names.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	return names
}

// Liveness reports that the process is running. It never touches
// collaborators: a storage outage must not make an orchestrator restart the
// process.
func (c *Checker) Liveness() Status {
	return Status{Status: StatusOK, Timestamp: time.Now()}
}

// Readiness runs every registered probe concurrently and aggregates the
// results. Any failed probe degrades the overall status. No registered
// probes means ready.
func (c *Checker) Readiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			result := c.run(ctx, check)
			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	overall := StatusReady
	for _, result := range results {
		if result.Status == StatusFailed {
			overall = StatusDegraded
			break
		}
	}

	return Status{Status: overall, Checks: results, Timestamp: time.Now()}
}

// run executes one probe under the checker's timeout. A probe that ignores
// its context cannot stall readiness past the timeout.
func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- check(checkCtx)
	}()

	select {
	case err := <-errCh:
		elapsed := time.Since(start)
		if err != nil {
			return CheckResult{Status: StatusFailed, Message: err.Error(), Elapsed: elapsed}
		}
		return CheckResult{Status: StatusOK, Elapsed: elapsed}
	case <-checkCtx.Done():
		return CheckResult{Status: StatusFailed, Message: "check timed out", Elapsed: time.Since(start)}
	}
}
