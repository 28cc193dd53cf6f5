// Package cache provides the two-tier read cache in front of the storage
// backend: a bounded in-process L1 with short TTLs, and an optional shared
// L2 tier (Redis or a local file directory) with longer TTLs.
//
// Reads check L1, then L2 (promoting hits back into L1), then report a miss
// so the caller can load from storage. Writes invalidate both tiers
// synchronously before the caller acknowledges, keeping a completed write
// immediately visible to subsequent reads.
//
// Cache failures never surface to callers: a broken tier logs, counts in
// stats, and reads fall through to storage. The one exception worth noting
// is invalidation — a failed invalidation is logged loudly, but since the
// tier that failed is also unable to serve the stale entry, the write still
// acknowledges.
package cache
