package domain

import "time"

// Persisted order statuses. Only these are ever stored; overlay statuses are
// derived on read and never written back.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusFinished   = "finished"
	StatusCancelled  = "cancelled"
	StatusAtClient   = "at_client"
)

// Overlay statuses shown when some but not all collaborators are working.
const (
	OverlayInProgressPartial = "in_progress_partial"
	OverlayInProgress        = "in_progress"
)

// AssignmentStatus is the derived state of one collaborator on one order.
type AssignmentStatus string

const (
	// AssignmentApportioned means assigned but never started.
	AssignmentApportioned AssignmentStatus = "apportioned"
	// AssignmentWorking means an open work segment exists.
	AssignmentWorking AssignmentStatus = "working"
	// AssignmentPaused means an open pause segment exists.
	AssignmentPaused AssignmentStatus = "paused"
	// AssignmentStopped means an open material stop exists.
	AssignmentStopped AssignmentStatus = "stopped"
	// AssignmentFinished means no open segment remains and at least one
	// segment was started at or after the assignment time.
	AssignmentFinished AssignmentStatus = "finished"
)

// SegmentView is the minimal segment shape status derivation needs.
type SegmentView struct {
	Kind      SegmentKind
	StartedAt time.Time
	Open      bool
}

// DeriveAssignmentStatus computes a collaborator's status on an order from
// their segments. The segments slice must already be scoped to that
// collaborator and order.
func DeriveAssignmentStatus(assignedAt time.Time, segments []SegmentView) AssignmentStatus {
	for _, seg := range segments {
		if !seg.Open {
			continue
		}
		switch seg.Kind {
		case SegmentPause:
			return AssignmentPaused
		case SegmentMaterialStop:
			return AssignmentStopped
		default:
			return AssignmentWorking
		}
	}

	for _, seg := range segments {
		if !seg.StartedAt.Before(assignedAt) {
			return AssignmentFinished
		}
	}

	return AssignmentApportioned
}

// OverlayStatus derives the display status for an order. The overlay only
// applies to persisted open or in_progress orders; every other status passes
// through untouched. working counts collaborators with an open work segment,
// total counts active assignments.
func OverlayStatus(persisted string, working, total int) string {
	if persisted != StatusOpen && persisted != StatusInProgress {
		return persisted
	}
	if total <= 0 || working <= 0 {
		return persisted
	}
	if working < total {
		return OverlayInProgressPartial
	}
	return OverlayInProgress
}

// CanStart reports whether StartOrder is allowed from the given status.
func CanStart(persisted string) bool {
	return persisted == StatusOpen || persisted == StatusPaused
}

// CanFinish reports whether FinishOrder is allowed from the given status.
func CanFinish(persisted string) bool {
	return persisted == StatusInProgress || persisted == StatusPaused
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(persisted string) bool {
	return persisted == StatusFinished || persisted == StatusCancelled
}
