// Package health provides liveness and readiness checks for Vesta.
//
// A Checker holds named check functions for the collaborators a deployment
// actually configured: a storage probe, the audit sink, the L2 cache tier.
// Liveness only confirms the process is running; Readiness runs every
// registered check concurrently with a per-check timeout and reports ready
// or degraded.
//
// The REST server mounts the probes at /healthz and /readyz:
//
//	checker := health.NewChecker(5 * time.Second)
//	checker.Register("storage", storageCheck)
//	mux.Handle("GET /healthz", checker.LivenessHandler())
//	mux.Handle("GET /readyz", checker.ReadinessHandler())
//
// A degraded readiness answers 503 so an orchestrator stops routing traffic,
// while liveness stays 200 to avoid restart loops on a dependency outage.
package health
