package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"mercator-hq/vesta/pkg/audit"
	"mercator-hq/vesta/pkg/store"
)

// SQLiteSinkConfig configures the SQLite sink.
type SQLiteSinkConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteSink stores audit events in SQLite using the pure-Go modernc driver,
// so the audit trail needs no cgo even when the config store itself runs on
// a different backend.
type SQLiteSink struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error

	storeStmt   *sql.Stmt
	lastSeqStmt *sql.Stmt
}

const sqliteSinkSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	sequence INTEGER PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL,
	actor TEXT NOT NULL,
	namespace TEXT NOT NULL DEFAULT '',
	key TEXT NOT NULL DEFAULT '',
	environment TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL DEFAULT 0,
	timestamp INTEGER NOT NULL,
	success INTEGER NOT NULL,
	reason TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_audit_events_actor ON audit_events(actor);
CREATE INDEX IF NOT EXISTS idx_audit_events_namespace ON audit_events(namespace);
CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
`

// NewSQLiteSink opens (or creates) the database at config.Path.
func NewSQLiteSink(config *SQLiteSinkConfig) (*SQLiteSink, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("sqlite sink: path is required")
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		config.Path, config.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: open: %w", err)
	}

	// SQLite supports a single writer; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(sqliteSinkSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite sink: create schema: %w", err)
	}

	s := &SQLiteSink{db: db}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) prepareStatements() error {
	var err error

	s.storeStmt, err = s.db.Prepare(`
		INSERT INTO audit_events (sequence, id, type, actor, namespace, key, environment, version, timestamp, success, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite sink: prepare store: %w", err)
	}

	s.lastSeqStmt, err = s.db.Prepare(`SELECT COALESCE(MAX(sequence), 0) FROM audit_events`)
	if err != nil {
		return fmt.Errorf("sqlite sink: prepare last sequence: %w", err)
	}
	return nil
}

// Store persists one event.
func (s *SQLiteSink) Store(ctx context.Context, event *audit.Event) error {
	_, err := s.storeStmt.ExecContext(ctx,
		event.Sequence, event.ID, string(event.Type), event.Actor,
		event.Namespace, event.Key, string(event.Environment), event.Version,
		event.Timestamp.UnixNano(), boolToInt(event.Success), event.Reason,
	)
	if err != nil {
		return fmt.Errorf("sqlite sink: store: %w", err)
	}
	return nil
}

// buildWhere translates a Query into a WHERE clause and its arguments.
func buildWhere(q *audit.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q.Actor != "" {
		conditions = append(conditions, "actor = ?")
		args = append(args, q.Actor)
	}
	if q.Namespace != "" {
		conditions = append(conditions, "namespace = ?")
		args = append(args, q.Namespace)
	}
	if len(q.Types) > 0 {
		placeholders := make([]string, len(q.Types))
		for i, t := range q.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conditions = append(conditions, fmt.Sprintf("type IN (%s)", strings.Join(placeholders, ", ")))
	}
	if q.Start != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, q.Start.UnixNano())
	}
	if q.End != nil {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, q.End.UnixNano())
	}
	if q.MaxSequence > 0 {
		conditions = append(conditions, "sequence <= ?")
		args = append(args, q.MaxSequence)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Query returns matching events, newest first.
func (s *SQLiteSink) Query(ctx context.Context, q *audit.Query) ([]*audit.Event, error) {
	where, args := buildWhere(q)
	query := `SELECT sequence, id, type, actor, namespace, key, environment, version, timestamp, success, reason
		FROM audit_events` + where + ` ORDER BY sequence DESC`
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: query: %w", err)
	}
	defer rows.Close()

	var events []*audit.Event
	for rows.Next() {
		var event audit.Event
		var eventType, environment string
		var timestamp int64
		var success int
		err := rows.Scan(
			&event.Sequence, &event.ID, &eventType, &event.Actor,
			&event.Namespace, &event.Key, &environment, &event.Version,
			&timestamp, &success, &event.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite sink: scan: %w", err)
		}
		event.Type = audit.EventType(eventType)
		event.Environment = store.Environment(environment)
		event.Timestamp = time.Unix(0, timestamp).UTC()
		event.Success = success != 0
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite sink: query: %w", err)
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *SQLiteSink) Count(ctx context.Context, q *audit.Query) (int64, error) {
	where, args := buildWhere(q)

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite sink: count: %w", err)
	}
	return count, nil
}

// Delete removes matching events.
func (s *SQLiteSink) Delete(ctx context.Context, q *audit.Query) (int64, error) {
	where, args := buildWhere(q)

	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_events`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite sink: delete: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite sink: delete: %w", err)
	}
	return removed, nil
}

// LastSequence returns the highest stored sequence number.
func (s *SQLiteSink) LastSequence(ctx context.Context) (uint64, error) {
	var last uint64
	if err := s.lastSeqStmt.QueryRowContext(ctx).Scan(&last); err != nil {
		return 0, fmt.Errorf("sqlite sink: last sequence: %w", err)
	}
	return last, nil
}

// Close closes the prepared statements and the database.
func (s *SQLiteSink) Close() error {
	s.closeOnce.Do(func() {
		if s.storeStmt != nil {
			s.storeStmt.Close()
		}
		if s.lastSeqStmt != nil {
			s.lastSeqStmt.Close()
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
