package retention

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mercator-hq/vesta/pkg/audit"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain audit events.
	// 0 means keep events forever (no age-based pruning).
	RetentionDays int

	// MaxEvents is the maximum number of events to keep.
	// 0 means unlimited.
	MaxEvents int64

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string

	// ArchiveBeforeDelete writes events to a JSON lines archive before
	// deleting them. A failed archive aborts the delete.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory for archive files.
	ArchivePath string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays:       365,
		MaxEvents:           0,
		PruneSchedule:       "0 3 * * *",
		ArchiveBeforeDelete: false,
		ArchivePath:         "data/audit-archives/",
	}
}

// Pruner enforces the retention policy on an audit sink.
type Pruner struct {
	sink      audit.Sink
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner for sink.
func NewPruner(sink audit.Sink, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		sink:   sink,
		config: config,
		logger: slog.Default().With("component", "audit.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune deletes audit events older than the retention period or exceeding
// the max event count.
//
// Pruning happens in two phases:
//  1. Age-based: delete events older than RetentionDays
//  2. Count-based: if total events > MaxEvents, delete oldest
//
// Both phases can run together. Returns the total number of events deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Info("pruned audit events by age",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}

	if p.config.MaxEvents > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
		p.logger.Info("pruned audit events by count",
			"deleted_count", deleted,
			"max_events", p.config.MaxEvents,
		)
	}

	if totalDeleted == 0 {
		p.logger.Debug("no audit events pruned",
			"retention_days", p.config.RetentionDays,
			"max_events", p.config.MaxEvents,
		)
	} else {
		p.logger.Info("audit pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.RetentionDays,
			"max_events", p.config.MaxEvents,
		)
	}

	return totalDeleted, nil
}

// pruneByAge deletes events older than the retention period.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)

	p.logger.Debug("pruning by age",
		"cutoff_time", cutoff,
		"retention_days", p.config.RetentionDays,
	)

	query := &audit.Query{End: &cutoff}

	if p.config.ArchiveBeforeDelete {
		events, err := p.sink.Query(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("query events for archiving: %w", err)
		}
		name := fmt.Sprintf("audit-%s.jsonl", time.Now().Format("2006-01-02"))
		if err := p.archiveEvents(events, name); err != nil {
			return 0, err
		}
	}

	deleted, err := p.sink.Delete(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("delete events older than %v: %w", cutoff, err)
	}
	return deleted, nil
}

// pruneByCount deletes the oldest events when the total exceeds MaxEvents.
// The cutoff is a sequence number, so the delete is exact even when
// timestamps collide.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.sink.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}

	if count <= p.config.MaxEvents {
		p.logger.Debug("event count within limit",
			"current", count,
			"max", p.config.MaxEvents,
		)
		return 0, nil
	}

	toDelete := count - p.config.MaxEvents
	p.logger.Info("event count exceeds limit, pruning oldest",
		"current_count", count,
		"max_events", p.config.MaxEvents,
		"to_delete", toDelete,
	)

	// Sinks return newest first, so the oldest events sit at the tail.
	all, err := p.sink.Query(ctx, &audit.Query{})
	if err != nil {
		return 0, fmt.Errorf("query events: %w", err)
	}

	actualToDelete := len(all) - int(p.config.MaxEvents)
	if actualToDelete <= 0 {
		p.logger.Debug("event count within limit after query")
		return 0, nil
	}
	if actualToDelete > len(all) {
		actualToDelete = len(all)
	}

	victims := all[len(all)-actualToDelete:]
	maxSequence := victims[0].Sequence

	if p.config.ArchiveBeforeDelete {
		name := fmt.Sprintf("audit-count-%s.jsonl", time.Now().Format("2006-01-02-150405"))
		if err := p.archiveEvents(victims, name); err != nil {
			return 0, err
		}
	}

	deleted, err := p.sink.Delete(ctx, &audit.Query{MaxSequence: maxSequence})
	if err != nil {
		return 0, fmt.Errorf("delete events up to sequence %d: %w", maxSequence, err)
	}
	return deleted, nil
}

// archiveEvents writes events to a JSON lines file in the archive directory,
// one event per line, oldest first. No events means no file.
func (p *Pruner) archiveEvents(events []*audit.Event, name string) error {
	if len(events) == 0 {
		p.logger.Debug("no events to archive")
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o700); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	archiveFile := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(archiveFile)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	for i := len(events) - 1; i >= 0; i-- {
		data, err := json.Marshal(events[i])
		if err != nil {
			return fmt.Errorf("marshal event for archive: %w", err)
		}
		data = append(data, '\n')
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("write archive: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}

	p.logger.Info("audit events archived",
		"archive_file", archiveFile,
		"event_count", len(events),
	)
	return nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
