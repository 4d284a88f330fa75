// Package transport defines request DTOs for the execution HTTP API.
package transport

// ReasonRequest carries the mandatory justification for pauses and stops.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// FinishOrderRequest carries the operator discount applied at finalization.
type FinishOrderRequest struct {
	DiscountKind string `json:"discountKind" validate:"required,oneof=amount percentage"`
	// DiscountValue is deliberately unbounded here; the domain clamps the
	// applied discount into [0, total] whatever the operator enters.
	DiscountValue float64 `json:"discountValue"`
}

// AssignCollaboratorRequest apportions a collaborator to an order, optionally
// scoped to one product line.
type AssignCollaboratorRequest struct {
	CollaboratorID string  `json:"collaboratorId" validate:"required,uuid"`
	ProductID      *string `json:"productId,omitempty" validate:"omitempty,uuid"`
}

// AdjustHoursRequest overrides the recorded hours for an assignment.
type AdjustHoursRequest struct {
	Hours         float64 `json:"hours" validate:"gte=0"`
	Justification string  `json:"justification" validate:"required,min=3,max=500"`
	ProductID     *string `json:"productId,omitempty" validate:"omitempty,uuid"`
}
