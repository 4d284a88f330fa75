package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ServiceOrder is the order aggregate header.
type ServiceOrder struct {
	ID                   uuid.UUID  `json:"id"`
	Number               string     `json:"number"`
	ClientID             uuid.UUID  `json:"clientId"`
	ClientName           string     `json:"clientName,omitempty"`
	Description          string     `json:"description"`
	SiteTag              *string    `json:"siteTag,omitempty"`
	Status               string     `json:"status"`
	PredictedHours       *float64   `json:"predictedHours,omitempty"`
	TotalCents           int64      `json:"totalCents"`
	DiscountKind         *string    `json:"discountKind,omitempty"`
	DiscountValue        *float64   `json:"discountValue,omitempty"`
	AppliedDiscountCents int64      `json:"appliedDiscountCents"`
	OpenedAt             time.Time  `json:"openedAt"`
	StartedAt            *time.Time `json:"startedAt,omitempty"`
	FinishedAt           *time.Time `json:"finishedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ProductLine is one product row on an order.
type ProductLine struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"orderId"`
	ProductID      uuid.UUID `json:"productId"`
	ProductName    string    `json:"productName,omitempty"`
	Quantity       float64   `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	SubtotalCents  int64     `json:"subtotalCents"`
}

// LineParams describes a product line on create/update. Subtotals are
// recomputed server-side, never trusted from the client.
type LineParams struct {
	ProductID      uuid.UUID
	Quantity       float64
	UnitPriceCents int64
}

// CreateParams contains parameters for creating an order.
type CreateParams struct {
	Number         string
	ClientID       uuid.UUID
	Description    string
	SiteTag        *string
	PredictedHours *float64
	Lines          []LineParams
}

// UpdateParams contains parameters for updating an order header and lines.
// Nil fields are left unchanged; a non-nil Lines replaces all lines.
type UpdateParams struct {
	ID             uuid.UUID
	ClientID       *uuid.UUID
	Description    *string
	SiteTag        *string
	PredictedHours *float64
	Lines          *[]LineParams
}

// ListParams contains filters and pagination for listing orders.
type ListParams struct {
	Status   string
	ClientID *uuid.UUID
	Search   string
	Limit    int
	Offset   int
}

// Repository provides persistence for service orders.
type Repository interface {
	// Insert creates the order with its lines in one transaction.
	// A duplicate number yields apperr.Conflict.
	Insert(ctx context.Context, params CreateParams) (ServiceOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (ServiceOrder, error)
	GetByNumber(ctx context.Context, number string) (ServiceOrder, error)
	ListLines(ctx context.Context, orderID uuid.UUID) ([]ProductLine, error)
	List(ctx context.Context, params ListParams) ([]ServiceOrder, int, error)
	// LatestNumber returns the highest issued number for the prefix, or ""
	// when none exists yet.
	LatestNumber(ctx context.Context, prefix string) (string, error)
	Update(ctx context.Context, params UpdateParams) (ServiceOrder, error)
}
