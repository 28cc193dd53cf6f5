package audit

import "fmt"

// FindingKind classifies a sequence integrity problem.
type FindingKind string

const (
	// FindingGap means one or more sequence numbers are missing.
	FindingGap FindingKind = "gap"

	// FindingRegression means a later event carries a lower sequence number.
	FindingRegression FindingKind = "regression"

	// FindingDuplicate means two events share a sequence number.
	FindingDuplicate FindingKind = "duplicate"
)

// Finding describes one integrity problem in an event range.
type Finding struct {
	Kind FindingKind `json:"kind"`

	// Sequence is the number at which the problem was observed.
	Sequence uint64 `json:"sequence"`

	// Previous is the sequence of the event before the problem.
	Previous uint64 `json:"previous"`

	Detail string `json:"detail"`
}

// VerifySequence checks a range of events, ordered ascending by sequence as
// the caller queried them, for gaps, regressions, and duplicates. Any
// finding indicates event loss, reordering, or tampering and warrants
// investigation. A clean range returns nil.
func VerifySequence(events []*Event) []Finding {
	var findings []Finding

	for i := 1; i < len(events); i++ {
		prev := events[i-1].Sequence
		curr := events[i].Sequence

		switch {
		case curr == prev:
			findings = append(findings, Finding{
				Kind:     FindingDuplicate,
				Sequence: curr,
				Previous: prev,
				Detail:   fmt.Sprintf("sequence %d appears more than once", curr),
			})
		case curr < prev:
			findings = append(findings, Finding{
				Kind:     FindingRegression,
				Sequence: curr,
				Previous: prev,
				Detail:   fmt.Sprintf("sequence %d follows %d", curr, prev),
			})
		case curr > prev+1:
			findings = append(findings, Finding{
				Kind:     FindingGap,
				Sequence: curr,
				Previous: prev,
				Detail:   fmt.Sprintf("%d event(s) missing between %d and %d", curr-prev-1, prev, curr),
			})
		}
	}
	return findings
}
