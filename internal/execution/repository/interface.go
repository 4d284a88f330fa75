package repository

import (
	"context"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/domain"

	"github.com/google/uuid"
)

// Segment is a persisted time segment.
type Segment struct {
	ID             uuid.UUID          `json:"id"`
	OrderID        uuid.UUID          `json:"orderId"`
	CollaboratorID uuid.UUID          `json:"collaboratorId"`
	ProductID      *uuid.UUID         `json:"productId,omitempty"`
	Kind           domain.SegmentKind `json:"kind"`
	Reason         *string            `json:"reason,omitempty"`
	StartedAt      time.Time          `json:"startedAt"`
	EndedAt        *time.Time         `json:"endedAt,omitempty"`
	Hours          *float64           `json:"hours,omitempty"`
}

// Open reports whether the segment has not been closed yet.
func (s Segment) Open() bool { return s.EndedAt == nil }

// OpenSegmentParams describes a segment to open.
type OpenSegmentParams struct {
	OrderID        uuid.UUID
	CollaboratorID uuid.UUID
	ProductID      *uuid.UUID
	Kind           domain.SegmentKind
	Reason         *string
	StartedAt      time.Time
}

// Assignment is a collaborator apportioned to an order, optionally scoped to
// one product line.
type Assignment struct {
	ID               uuid.UUID  `json:"id"`
	OrderID          uuid.UUID  `json:"orderId"`
	CollaboratorID   uuid.UUID  `json:"collaboratorId"`
	CollaboratorName string     `json:"collaboratorName,omitempty"`
	ProductID        *uuid.UUID `json:"productId,omitempty"`
	Active           bool       `json:"active"`
	AssignedAt       time.Time  `json:"assignedAt"`
	AdjustedHours    *float64   `json:"adjustedHours,omitempty"`
}

// Debit is one immutable rework ledger entry.
type Debit struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"orderId"`
	CollaboratorID uuid.UUID `json:"collaboratorId"`
	Reason         string    `json:"reason"`
	Hours          float64   `json:"hours"`
	Note           *string   `json:"note,omitempty"`
	DebitedAt      time.Time `json:"debitedAt"`
}

// DebitParams describes a rework debit to record.
type DebitParams struct {
	OrderID        uuid.UUID
	CollaboratorID uuid.UUID
	Reason         string
	Hours          float64
	Note           *string
}

// JustificationParams describes an audit justification row.
type JustificationParams struct {
	OrderID          uuid.UUID
	CollaboratorID   *uuid.UUID
	Kind             string
	Text             string
	ToleranceMinutes *int
}

// OrderRef is execution's narrow view of an order.
type OrderRef struct {
	ID                   uuid.UUID
	Number               string
	Status               string
	TotalCents           int64
	AppliedDiscountCents int64
	StartedAt            *time.Time
}

// ExpiredPause is an open pause segment whose age exceeds the tolerance
// snapshotted on its justification.
type ExpiredPause struct {
	SegmentID        uuid.UUID
	OrderID          uuid.UUID
	CollaboratorID   uuid.UUID
	JustificationID  uuid.UUID
	StartedAt        time.Time
	ToleranceMinutes int
}

// WorkCount is the overlay input for one order.
type WorkCount struct {
	Working int
	Total   int
}

// Repository provides persistence for execution state. Multi-step
// transitions wrap their calls in InTx so a failed step rolls everything
// back.
type Repository interface {
	// InTx runs fn against a transaction-bound repository.
	InTx(ctx context.Context, fn func(Repository) error) error

	// OpenSegment inserts an open segment. A concurrent open on the same
	// (order, collaborator, product scope) yields apperr.Conflict.
	OpenSegment(ctx context.Context, params OpenSegmentParams) (Segment, error)
	// CloseSegment sets ended_at and hours. Missing id yields
	// apperr.NotFound; an already-set ended_at yields apperr.AlreadyClosed.
	CloseSegment(ctx context.Context, id uuid.UUID, at time.Time) (Segment, error)
	// FindOpenSegment locates the open segment for the scope. A
	// product-scoped lookup falls back to the order-scoped row so orders
	// created before product scoping still resolve.
	FindOpenSegment(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (Segment, error)
	ListOpenSegments(ctx context.Context, orderID uuid.UUID) ([]Segment, error)
	ListSegments(ctx context.Context, orderID uuid.UUID) ([]Segment, error)

	InsertDebit(ctx context.Context, params DebitParams) (Debit, error)
	ListDebits(ctx context.Context, orderID uuid.UUID) ([]Debit, error)

	InsertJustification(ctx context.Context, params JustificationParams) (uuid.UUID, error)
	MarkJustificationNotified(ctx context.Context, id uuid.UUID) error
	ListExpiredPauses(ctx context.Context, now time.Time) ([]ExpiredPause, error)

	ListAssignments(ctx context.Context, orderID uuid.UUID) ([]Assignment, error)
	UpsertAssignment(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (Assignment, error)
	// RemoveAssignments deletes all assignment rows for the collaborator on
	// the order, product-scoped included, and returns how many were removed.
	RemoveAssignments(ctx context.Context, orderID, collaboratorID uuid.UUID) (int64, error)
	SetAdjustedHours(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID, hours float64) (*float64, error)

	GetOrder(ctx context.Context, orderID uuid.UUID) (OrderRef, error)
	SetOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error
	// MarkStarted moves the order to in_progress, setting started_at only
	// the first time.
	MarkStarted(ctx context.Context, orderID uuid.UUID, at time.Time) error
	// MarkFinished moves the order to finished and records the discount.
	MarkFinished(ctx context.Context, orderID uuid.UUID, at time.Time, discountKind string, discountValue float64, appliedCents int64) error

	// WorkCounts returns overlay inputs for the given orders.
	WorkCounts(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]WorkCount, error)
}
