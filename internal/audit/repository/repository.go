// Package repository persists the append-only audit trail.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one immutable audit row.
type Entry struct {
	ID          uuid.UUID  `json:"id"`
	Action      string     `json:"action"`
	OrderID     *uuid.UUID `json:"orderId,omitempty"`
	OrderNumber string     `json:"orderNumber,omitempty"`
	PerformedBy *uuid.UUID `json:"performedBy,omitempty"`
	Before      []byte     `json:"before,omitempty"`
	After       []byte     `json:"after,omitempty"`
	Detail      *string    `json:"detail,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// InsertParams describes an audit row to append.
type InsertParams struct {
	Action      string
	OrderID     *uuid.UUID
	OrderNumber string
	PerformedBy *uuid.UUID
	Before      []byte
	After       []byte
	Detail      *string
}

// ListParams filters the audit trail.
type ListParams struct {
	OrderID *uuid.UUID
	Action  string
	Limit   int
	Offset  int
}

// Repository provides persistence for the audit trail.
type Repository interface {
	Insert(ctx context.Context, params InsertParams) error
	List(ctx context.Context, params ListParams) ([]Entry, error)
}

// Repo implements Repository with pgx.
type Repo struct {
	db *pgxpool.Pool
}

// New creates a new audit repository.
func New(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Insert appends one row to the audit trail.
func (r *Repo) Insert(ctx context.Context, params InsertParams) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_log (action, order_id, order_number, performed_by, before, after, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		params.Action, params.OrderID, params.OrderNumber, params.PerformedBy,
		params.Before, params.After, params.Detail)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List retrieves audit entries, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Entry, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, action, order_id, order_number, performed_by, before, after, detail, created_at
		FROM audit_log
		WHERE ($1::uuid IS NULL OR order_id = $1)
		  AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, params.OrderID, params.Action, limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.OrderID, &e.OrderNumber,
			&e.PerformedBy, &e.Before, &e.After, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

var _ Repository = (*Repo)(nil)
