package audit

import "testing"

func sequenceRange(seqs ...uint64) []*Event {
	events := make([]*Event, 0, len(seqs))
	for _, seq := range seqs {
		events = append(events, &Event{Sequence: seq, Type: EventRead, Actor: "alice"})
	}
	return events
}

// TestVerifySequence_Clean tests that a consecutive range produces no
// findings.
func TestVerifySequence_Clean(t *testing.T) {
	findings := VerifySequence(sequenceRange(1, 2, 3, 4, 5))
	if findings != nil {
		t.Errorf("Expected no findings, got %+v", findings)
	}
}

// TestVerifySequence_Gap tests detection of missing sequence numbers.
func TestVerifySequence_Gap(t *testing.T) {
	findings := VerifySequence(sequenceRange(1, 2, 5))
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d: %+v", len(findings), findings)
	}

	f := findings[0]
	if f.Kind != FindingGap {
		t.Errorf("Kind = %q, want %q", f.Kind, FindingGap)
	}
	if f.Sequence != 5 || f.Previous != 2 {
		t.Errorf("Sequence/Previous = %d/%d, want 5/2", f.Sequence, f.Previous)
	}
}

// TestVerifySequence_Regression tests detection of a sequence going
// backwards.
func TestVerifySequence_Regression(t *testing.T) {
	findings := VerifySequence(sequenceRange(1, 3, 2))
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].Kind != FindingRegression {
		t.Errorf("Kind = %q, want %q", findings[0].Kind, FindingRegression)
	}
}

// TestVerifySequence_Duplicate tests detection of a repeated sequence
// number.
func TestVerifySequence_Duplicate(t *testing.T) {
	findings := VerifySequence(sequenceRange(1, 2, 2, 3))
	if len(findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d: %+v", len(findings), findings)
	}
	if findings[0].Kind != FindingDuplicate {
		t.Errorf("Kind = %q, want %q", findings[0].Kind, FindingDuplicate)
	}
	if findings[0].Sequence != 2 {
		t.Errorf("Sequence = %d, want 2", findings[0].Sequence)
	}
}

// TestVerifySequence_MultipleProblems tests that every problem in a range is
// reported, not only the first.
func TestVerifySequence_MultipleProblems(t *testing.T) {
	findings := VerifySequence(sequenceRange(1, 4, 4, 2))
	if len(findings) != 3 {
		t.Fatalf("Expected 3 findings, got %d: %+v", len(findings), findings)
	}

	wantKinds := []FindingKind{FindingGap, FindingDuplicate, FindingRegression}
	for i, want := range wantKinds {
		if findings[i].Kind != want {
			t.Errorf("Finding %d: kind = %q, want %q", i, findings[i].Kind, want)
		}
	}
}

// TestVerifySequence_ShortRanges tests that empty and single-event ranges
// are trivially clean.
func TestVerifySequence_ShortRanges(t *testing.T) {
	if findings := VerifySequence(nil); findings != nil {
		t.Errorf("Expected no findings for empty range, got %+v", findings)
	}
	if findings := VerifySequence(sequenceRange(7)); findings != nil {
		t.Errorf("Expected no findings for single event, got %+v", findings)
	}
}

// TestVerifySequence_ResumedTrail tests that a trail resuming after restart
// at an arbitrary offset verifies clean as long as it is consecutive.
func TestVerifySequence_ResumedTrail(t *testing.T) {
	findings := VerifySequence(sequenceRange(41, 42, 43))
	if findings != nil {
		t.Errorf("Expected no findings, got %+v", findings)
	}
}
