// Package manager orchestrates configuration operations across storage,
// cache, encryption, authorization, and audit.
//
// # Pipeline
//
// Every operation runs the same pipeline: authorize the actor, serve from
// cache or storage, record the outcome in the audit trail. Reads try the L1
// then L2 cache tier before storage and promote what they find; writes go
// straight to storage and invalidate both tiers before acknowledging, so a
// read issued after a write never returns the overwritten value.
//
// # Basic Usage
//
//	backend, err := storage.NewSQLiteBackend(ctx, storage.SQLiteConfig{Path: "vesta.db"})
//	if err != nil {
//		return err
//	}
//
//	mgr, err := manager.NewBuilder(backend).
//		WithCache(cacheManager).
//		WithEnforcer(enforcer).
//		WithAudit(auditLogger).
//		WithCrypto(engine).
//		WithMetrics(collector).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	entry, err := mgr.Set(ctx, "payments", "timeout-ms", store.EnvProduction,
//		[]byte("2500"), manager.SetOptions{Description: "raise gateway timeout"}, "alice")
//
// # Optional Collaborators
//
// Only the backend is required. Omitting a collaborator disables its
// concern: no enforcer means no authorization checks, no cache means every
// read hits storage, no audit logger means no trail, no crypto engine means
// secret operations fail. Deployments compose exactly what they need and
// pay for nothing else.
//
// # Environment Fallback
//
// Get resolves the requested environment first and falls back to Base when
// that environment holds no live value. A tombstone counts as absent, so
// deleting a production override re-exposes the Base value on the next
// read. List and History never fall back; they report exactly the
// environment asked for.
//
// # Secrets
//
// Values written with SetOptions.Secret are sealed into an encryption
// envelope before they reach storage, and the envelope is what every cache
// tier holds. Reading a secret requires the read_secret action on top of
// read; only after both checks pass is the envelope opened. List and
// History return secret entries still sealed unless the actor holds
// read_secret.
package manager
