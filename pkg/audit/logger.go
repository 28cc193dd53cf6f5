package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"mercator-hq/vesta/pkg/telemetry/metrics"
)

// ErrBufferFull reports that an event was dropped because the async buffer
// was at capacity.
var ErrBufferFull = errors.New("audit: buffer full")

// AlarmFunc is called when an event could not be made durable: a permanent
// sink write failure or a full buffer. It runs on the worker goroutine (or
// the caller's, for buffer-full drops) and must not block.
type AlarmFunc func(event *Event, err error)

// Config contains configuration for the audit logger.
type Config struct {
	// BufferSize is the capacity of the async event channel. A full buffer
	// drops the event and raises an alarm rather than blocking the caller.
	// Default: 1024
	BufferSize int

	// WriteTimeout bounds each sink write attempt. Default: 5 seconds
	WriteTimeout time.Duration

	// MaxRetries is how many times a failed write is retried before the
	// failure escalates. Default: 3
	MaxRetries int

	// RetryBackoff is the initial delay between retries; it doubles per
	// attempt. Default: 100ms
	RetryBackoff time.Duration

	// Alarm, when set, receives events the logger could not make durable.
	Alarm AlarmFunc

	// Metrics records written, dropped, and failed event counts plus buffer
	// depth. Optional; nil disables recording.
	Metrics *metrics.Collector
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferSize:   1024,
		WriteTimeout: 5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// Logger assigns sequence numbers and writes events to a sink from a single
// background worker. Record never blocks and never returns an error; loss is
// surfaced through alarms and counters instead of the caller path.
type Logger struct {
	sink      Sink
	config    *Config
	logger    *slog.Logger
	eventChan chan *Event
	wg        sync.WaitGroup
	done      chan struct{}

	// sequence is owned by the worker goroutine: the last committed number.
	sequence uint64

	written  atomic.Uint64
	dropped  atomic.Uint64
	failures atomic.Uint64
}

// NewLogger creates a logger writing to sink and resumes sequence numbering
// after the sink's last committed event.
func NewLogger(sink Sink, config *Config) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
	defer cancel()
	last, err := sink.LastSequence(ctx)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		sink:      sink,
		config:    config,
		logger:    slog.Default().With("component", "audit.logger"),
		eventChan: make(chan *Event, config.BufferSize),
		done:      make(chan struct{}),
		sequence:  last,
	}

	l.wg.Add(1)
	go l.worker()

	l.logger.Info("audit logger initialized",
		"buffer_size", config.BufferSize,
		"write_timeout", config.WriteTimeout,
		"resume_sequence", last,
	)
	return l, nil
}

// Record enqueues event for asynchronous writing. It fills ID and Timestamp
// when unset and returns immediately. A full buffer drops the event, counts
// it, and raises the alarm.
func (l *Logger) Record(event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case l.eventChan <- event:
		if l.config.Metrics != nil {
			l.config.Metrics.UpdateAuditBufferDepth(len(l.eventChan))
		}
	default:
		l.dropped.Add(1)
		if l.config.Metrics != nil {
			l.config.Metrics.RecordAuditDropped()
		}
		l.logger.Error("audit buffer full, dropping event",
			"event_id", event.ID,
			"type", event.Type,
			"actor", event.Actor,
			"buffer_size", l.config.BufferSize,
		)
		l.escalate(event, ErrBufferFull)
	}
}

// Close drains the buffer, waits for the worker to finish, and closes the
// sink.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.sink.Close()
}

// Written returns the number of events durably committed.
func (l *Logger) Written() uint64 { return l.written.Load() }

// Dropped returns the number of events dropped on a full buffer.
func (l *Logger) Dropped() uint64 { return l.dropped.Load() }

// Failures returns the number of events that exhausted their write retries.
func (l *Logger) Failures() uint64 { return l.failures.Load() }

// worker drains the event channel, assigning sequence numbers as writes
// succeed.
func (l *Logger) worker() {
	defer l.wg.Done()

	for {
		select {
		case event := <-l.eventChan:
			l.writeEvent(event)

		case <-l.done:
			pending := len(l.eventChan)
			if pending > 0 {
				l.logger.Info("draining audit buffer before shutdown", "pending", pending)
			}
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		}
	}
}

// writeEvent writes one event with bounded retries. The sequence number is
// committed only on success, so a permanently failed event leaves no hole:
// the next event takes the same number.
func (l *Logger) writeEvent(event *Event) {
	next := l.sequence + 1
	event.Sequence = next

	backoff := l.config.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= l.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.config.WriteTimeout)
		err := l.sink.Store(ctx, event)
		cancel()
		if err == nil {
			l.sequence = next
			l.written.Add(1)
			if l.config.Metrics != nil {
				l.config.Metrics.RecordAuditWritten(string(event.Type))
				l.config.Metrics.UpdateAuditBufferDepth(len(l.eventChan))
			}
			return
		}
		lastErr = err
		l.logger.Warn("audit write failed",
			"event_id", event.ID,
			"sequence", next,
			"attempt", attempt+1,
			"error", err,
		)
	}

	l.failures.Add(1)
	if l.config.Metrics != nil {
		l.config.Metrics.RecordAuditFailure()
	}
	l.logger.Error("audit write failed permanently, escalating",
		"event_id", event.ID,
		"type", event.Type,
		"actor", event.Actor,
		"error", lastErr,
	)
	l.escalate(event, lastErr)
}

func (l *Logger) escalate(event *Event, err error) {
	if l.config.Alarm != nil {
		l.config.Alarm(event, err)
	}
}
