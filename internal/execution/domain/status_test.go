package domain

import (
	"testing"
	"time"
)

var base = time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)

func seg(kind SegmentKind, startOffset time.Duration, open bool) SegmentView {
	return SegmentView{Kind: kind, StartedAt: base.Add(startOffset), Open: open}
}

func TestDeriveAssignmentStatusApportionedWithoutSegments(t *testing.T) {
	got := DeriveAssignmentStatus(base, nil)
	if got != AssignmentApportioned {
		t.Fatalf("expected apportioned, got %s", got)
	}
}

func TestDeriveAssignmentStatusOpenSegmentsWin(t *testing.T) {
	cases := []struct {
		name string
		kind SegmentKind
		want AssignmentStatus
	}{
		{"open work means working", SegmentWork, AssignmentWorking},
		{"open pause means paused", SegmentPause, AssignmentPaused},
		{"open material stop means stopped", SegmentMaterialStop, AssignmentStopped},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			segments := []SegmentView{
				seg(SegmentWork, 0, false),
				seg(tc.kind, time.Hour, true),
			}
			if got := DeriveAssignmentStatus(base, segments); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDeriveAssignmentStatusFinishedNeedsSegmentAfterAssignment(t *testing.T) {
	// All segments closed and at least one started at or after assignment
	// time: the collaborator finished their stint.
	segments := []SegmentView{seg(SegmentWork, time.Hour, false)}
	if got := DeriveAssignmentStatus(base, segments); got != AssignmentFinished {
		t.Fatalf("expected finished, got %s", got)
	}

	// Only segments older than the assignment: a fresh (re-)assignment whose
	// history belongs to a previous stint.
	stale := []SegmentView{seg(SegmentWork, -2*time.Hour, false)}
	if got := DeriveAssignmentStatus(base, stale); got != AssignmentApportioned {
		t.Fatalf("expected apportioned for stale history, got %s", got)
	}
}

func TestDeriveAssignmentStatusSegmentAtAssignmentInstantCounts(t *testing.T) {
	segments := []SegmentView{seg(SegmentWork, 0, false)}
	if got := DeriveAssignmentStatus(base, segments); got != AssignmentFinished {
		t.Fatalf("expected finished for segment starting exactly at assignment, got %s", got)
	}
}

func TestOverlayStatusPartialProgress(t *testing.T) {
	// One of three collaborators working.
	if got := OverlayStatus(StatusInProgress, 1, 3); got != OverlayInProgressPartial {
		t.Fatalf("expected %s, got %s", OverlayInProgressPartial, got)
	}
}

func TestOverlayStatusAllWorking(t *testing.T) {
	if got := OverlayStatus(StatusOpen, 3, 3); got != OverlayInProgress {
		t.Fatalf("expected %s, got %s", OverlayInProgress, got)
	}
}

func TestOverlayStatusNobodyWorkingPassesThrough(t *testing.T) {
	if got := OverlayStatus(StatusInProgress, 0, 3); got != StatusInProgress {
		t.Fatalf("expected persisted passthrough, got %s", got)
	}
	if got := OverlayStatus(StatusOpen, 0, 0); got != StatusOpen {
		t.Fatalf("expected persisted passthrough for empty order, got %s", got)
	}
}

func TestOverlayStatusOnlyForActiveStatuses(t *testing.T) {
	for _, status := range []string{StatusPaused, StatusFinished, StatusCancelled, StatusAtClient} {
		if got := OverlayStatus(status, 2, 3); got != status {
			t.Fatalf("expected %s untouched by overlay, got %s", status, got)
		}
	}
}

func TestParseSegmentKindRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"work", "pause", "material_stop"} {
		if _, err := ParseSegmentKind(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseSegmentKind("lunch"); err == nil {
		t.Fatal("expected unknown segment kind to be rejected")
	}
}

func TestSegmentHoursClampsNegative(t *testing.T) {
	if got := SegmentHours(base, base.Add(-time.Hour)); got != 0 {
		t.Fatalf("expected clock skew to clamp to zero, got %v", got)
	}
	if got := SegmentHours(base, base.Add(45*time.Minute)); got != 0.75 {
		t.Fatalf("expected 0.75 hours for 45 minutes, got %v", got)
	}
}
