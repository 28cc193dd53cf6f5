// Package server exposes the configuration manager over REST.
//
// The server is a thin adapter: every endpoint resolves the actor identity,
// parses the request, and calls one of the manager's operations. No
// authorization, caching, encryption, or audit logic lives here — those are
// the manager's pipeline.
//
// # Endpoints
//
//	GET    /v1/configs/{namespace}                        list current entries
//	GET    /v1/configs/{namespace}/{key}                  get (query: environment)
//	PUT    /v1/configs/{namespace}/{key}                  set
//	DELETE /v1/configs/{namespace}/{key}                  delete (tombstone)
//	GET    /v1/configs/{namespace}/{key}/history          version history
//	POST   /v1/configs/{namespace}/{key}/rollback/{version}  rollback
//	GET    /v1/audit/events                               audit query (Admin/Auditor)
//	GET    /healthz, /readyz                              probes
//	GET    /metrics                                       Prometheus exposition
//
// # Actor identity
//
// In "jwt" mode requests carry "Authorization: Bearer <token>" where the
// token is HS256-signed and its subject claim names the actor. In "header"
// mode, for development, the X-Actor header is trusted as-is.
//
// # Error mapping
//
// NotFound maps to 404, PermissionDenied to 403, ValidationError to 400,
// VersionConflict to 409, and everything else to a generic 500. Error bodies
// never carry secret values, stack context, or role-table internals.
package server
