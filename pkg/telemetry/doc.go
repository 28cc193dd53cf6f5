// Package telemetry groups the observability packages of Vesta.
//
// The subpackages are independent and individually optional:
//
//   - logging: the configurable slog root logger with secret redaction
//   - metrics: Prometheus collection for store, cache, and audit activity
//   - health: liveness and readiness checks served by the REST layer
//
// Components receive their telemetry handles (a *slog.Logger, a
// *metrics.Collector) through constructors; nothing in Vesta reaches for a
// package-level telemetry singleton, so independent deployments can coexist
// in one process.
package telemetry
