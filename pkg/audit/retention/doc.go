// Package retention enforces retention policy on the audit trail.
//
// # Retention Policy
//
// The pruner removes events from the old end of the trail:
//
//   - Configurable retention period (days)
//   - Configurable max event count
//   - Scheduled pruning (cron expression)
//   - Optional archiving before deletion
//
// Because pruning always trims the oldest events, the surviving range still
// verifies gap-free.
//
// # Basic Usage
//
//	pruner := retention.NewPruner(sink, &retention.Config{
//	    RetentionDays:       365,
//	    PruneSchedule:       "0 3 * * *", // daily at 3 AM
//	    ArchiveBeforeDelete: true,
//	    ArchivePath:         "data/audit-archives/",
//	})
//
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
//
// # Manual Pruning
//
// Pruning can also be triggered directly, for example from a CLI command:
//
//	deleted, err := pruner.Prune(ctx)
//
// # Archiving
//
// With archiving enabled, events are written to a JSON lines file in the
// archive directory before deletion. A failed archive aborts the delete, so
// events are never lost to a full or unwritable archive disk. Archive files
// use the same line format as the file sink and can be inspected with the
// same tooling.
//
// # Scheduling
//
// The scheduler accepts standard five-field cron expressions:
//
//   - "0 3 * * *": daily at 3 AM (default)
//   - "0 0 * * 0": weekly on Sunday at midnight
//   - "0 */6 * * *": every 6 hours
//
// An empty PruneSchedule disables scheduled pruning; Start returns
// immediately without error.
package retention
