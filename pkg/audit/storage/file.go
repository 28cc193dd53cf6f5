package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mercator-hq/vesta/pkg/audit"
)

// FileSinkConfig contains configuration for the file sink.
type FileSinkConfig struct {
	// Path is the JSON lines file to append to.
	Path string

	// SyncOnWrite fsyncs after every event. Slower, but an OS crash cannot
	// lose acknowledged events. Default: false
	SyncOnWrite bool
}

// FileSink appends events to a JSON lines file, one event per line. Queries
// scan the whole file, so this sink suits low-volume single-node
// deployments; use the SQLite sink where query load matters.
type FileSink struct {
	config *FileSinkConfig
	mu     sync.Mutex
	file   *os.File
}

// NewFileSink opens (or creates) the file at config.Path for appending.
func NewFileSink(config *FileSinkConfig) (*FileSink, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("file sink: path is required")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0o700); err != nil {
		return nil, fmt.Errorf("file sink: create directory: %w", err)
	}

	file, err := os.OpenFile(config.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("file sink: open: %w", err)
	}

	return &FileSink{config: config, file: file}, nil
}

// Store appends one event as a JSON line.
func (s *FileSink) Store(ctx context.Context, event *audit.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("file sink: marshal: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("file sink: write: %w", err)
	}
	if s.config.SyncOnWrite {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("file sink: sync: %w", err)
		}
	}
	return nil
}

// Query returns matching events, newest first.
func (s *FileSink) Query(ctx context.Context, q *audit.Query) ([]*audit.Event, error) {
	events, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var results []*audit.Event
	for _, event := range events {
		if q.Matches(event) {
			results = append(results, event)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Sequence > results[j].Sequence
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// Count returns the number of matching events.
func (s *FileSink) Count(ctx context.Context, q *audit.Query) (int64, error) {
	events, err := s.readAll()
	if err != nil {
		return 0, err
	}

	var count int64
	for _, event := range events {
		if q.Matches(event) {
			count++
		}
	}
	return count, nil
}

// Delete rewrites the file without the matching events. The rewrite goes to
// a temp file renamed into place so a crash mid-delete cannot truncate the
// trail.
func (s *FileSink) Delete(ctx context.Context, q *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.readAllLocked()
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.config.Path), ".audit-*")
	if err != nil {
		return 0, fmt.Errorf("file sink: delete: %w", err)
	}
	tmpName := tmp.Name()

	writer := bufio.NewWriter(tmp)
	var removed int64
	for _, event := range events {
		if q.Matches(event) {
			removed++
			continue
		}
		data, err := json.Marshal(event)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return 0, fmt.Errorf("file sink: delete marshal: %w", err)
		}
		data = append(data, '\n')
		if _, err := writer.Write(data); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return 0, fmt.Errorf("file sink: delete write: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("file sink: delete flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, fmt.Errorf("file sink: delete sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("file sink: delete close: %w", err)
	}

	// Swap the new file in, then reopen the append handle on it.
	s.file.Close()
	if err := os.Rename(tmpName, s.config.Path); err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("file sink: delete rename: %w", err)
	}
	file, err := os.OpenFile(s.config.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return removed, fmt.Errorf("file sink: reopen after delete: %w", err)
	}
	s.file = file

	return removed, nil
}

// LastSequence returns the highest stored sequence number.
func (s *FileSink) LastSequence(ctx context.Context) (uint64, error) {
	events, err := s.readAll()
	if err != nil {
		return 0, err
	}

	var last uint64
	for _, event := range events {
		if event.Sequence > last {
			last = event.Sequence
		}
	}
	return last, nil
}

// Close syncs and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("file sink: close sync: %w", err)
	}
	return s.file.Close()
}

func (s *FileSink) readAll() ([]*audit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAllLocked()
}

// readAllLocked scans the whole file. Undecodable lines are skipped rather
// than failing the query; the sequence verifier will surface the hole.
func (s *FileSink) readAllLocked() ([]*audit.Event, error) {
	file, err := os.Open(s.config.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("file sink: read: %w", err)
	}
	defer file.Close()

	var events []*audit.Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event audit.Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("file sink: scan: %w", err)
	}
	return events, nil
}
