// Package audit records an immutable trail of configuration operations.
//
// Events are queued on a buffered channel and written by a single background
// worker, so recording never blocks a configuration operation. The worker
// assigns each event a strictly increasing, gap-free sequence number; a
// number is committed only once its event is durably written, so a sink
// outage produces retries and operational alarms, never a silent hole in the
// sequence. VerifySequence inspects a queried event range for the gaps,
// regressions, and duplicates that indicate loss or tampering.
//
// Durable sinks live in the storage subpackage; retention pruning lives in
// the retention subpackage.
package audit
