package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/domain"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolationCode = "23505"

	segmentNotFoundMessage = "time segment not found"
	orderNotFoundMessage   = "service order not found"
)

const segmentColumns = `id, order_id, collaborator_id, product_id, kind, reason, started_at, ended_at, hours`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same methods
// run inside and outside transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	db   querier
	pool *pgxpool.Pool
}

// New creates a new execution repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{db: pool, pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// InTx runs fn against a transaction-bound copy of the repository. Nested
// calls reuse the surrounding transaction.
func (r *Repo) InTx(ctx context.Context, fn func(Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Repo{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// OpenSegment inserts an open segment. The partial unique index on open
// segments makes the losing side of a concurrent open fail here.
func (r *Repo) OpenSegment(ctx context.Context, params OpenSegmentParams) (Segment, error) {
	query := `
		INSERT INTO time_segments (order_id, collaborator_id, product_id, kind, reason, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + segmentColumns

	seg, err := scanSegment(r.db.QueryRow(ctx, query,
		params.OrderID, params.CollaboratorID, params.ProductID,
		string(params.Kind), params.Reason, params.StartedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Segment{}, apperr.Conflict("an open segment already exists for this collaborator")
		}
		return Segment{}, fmt.Errorf("open segment: %w", err)
	}
	return seg, nil
}

// CloseSegment closes the segment at the given instant, computing its hours.
func (r *Repo) CloseSegment(ctx context.Context, id uuid.UUID, at time.Time) (Segment, error) {
	query := `
		UPDATE time_segments
		SET ended_at = $2,
			hours = GREATEST(EXTRACT(EPOCH FROM ($2::timestamptz - started_at)) / 3600.0, 0)
		WHERE id = $1 AND ended_at IS NULL
		RETURNING ` + segmentColumns

	seg, err := scanSegment(r.db.QueryRow(ctx, query, id, at))
	if err == nil {
		return seg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Segment{}, fmt.Errorf("close segment: %w", err)
	}

	// Distinguish a missing segment from one already closed.
	var endedAt *time.Time
	probe := r.db.QueryRow(ctx, `SELECT ended_at FROM time_segments WHERE id = $1`, id)
	if err := probe.Scan(&endedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Segment{}, apperr.NotFound(segmentNotFoundMessage)
		}
		return Segment{}, fmt.Errorf("probe segment: %w", err)
	}
	return Segment{}, apperr.AlreadyClosed("segment was already closed")
}

// FindOpenSegment locates the open segment for the scope, falling back from
// the product-scoped row to the order-scoped one.
func (r *Repo) FindOpenSegment(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (Segment, error) {
	if productID != nil {
		seg, err := r.findOpenScoped(ctx, orderID, collaboratorID, productID)
		if err == nil {
			return seg, nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return Segment{}, err
		}
	}
	return r.findOpenScoped(ctx, orderID, collaboratorID, nil)
}

func (r *Repo) findOpenScoped(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (Segment, error) {
	var query string
	args := []any{orderID, collaboratorID}
	if productID != nil {
		query = `
			SELECT ` + segmentColumns + `
			FROM time_segments
			WHERE order_id = $1 AND collaborator_id = $2 AND product_id = $3 AND ended_at IS NULL`
		args = append(args, *productID)
	} else {
		query = `
			SELECT ` + segmentColumns + `
			FROM time_segments
			WHERE order_id = $1 AND collaborator_id = $2 AND product_id IS NULL AND ended_at IS NULL`
	}

	seg, err := scanSegment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Segment{}, apperr.NotFound("no open segment for this collaborator")
		}
		return Segment{}, fmt.Errorf("find open segment: %w", err)
	}
	return seg, nil
}

// ListOpenSegments retrieves all open segments on an order.
func (r *Repo) ListOpenSegments(ctx context.Context, orderID uuid.UUID) ([]Segment, error) {
	query := `
		SELECT ` + segmentColumns + `
		FROM time_segments
		WHERE order_id = $1 AND ended_at IS NULL
		ORDER BY started_at ASC`

	return r.querySegments(ctx, query, orderID)
}

// ListSegments retrieves every segment on an order, oldest first.
func (r *Repo) ListSegments(ctx context.Context, orderID uuid.UUID) ([]Segment, error) {
	query := `
		SELECT ` + segmentColumns + `
		FROM time_segments
		WHERE order_id = $1
		ORDER BY started_at ASC`

	return r.querySegments(ctx, query, orderID)
}

func (r *Repo) querySegments(ctx context.Context, query string, args ...any) ([]Segment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return segments, nil
}

// InsertDebit records one rework ledger entry.
func (r *Repo) InsertDebit(ctx context.Context, params DebitParams) (Debit, error) {
	query := `
		INSERT INTO rework_debits (order_id, collaborator_id, reason, hours, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_id, collaborator_id, reason, hours, note, debited_at`

	var d Debit
	err := r.db.QueryRow(ctx, query,
		params.OrderID, params.CollaboratorID, params.Reason, params.Hours, params.Note,
	).Scan(&d.ID, &d.OrderID, &d.CollaboratorID, &d.Reason, &d.Hours, &d.Note, &d.DebitedAt)
	if err != nil {
		return Debit{}, fmt.Errorf("insert rework debit: %w", err)
	}
	return d, nil
}

// ListDebits retrieves an order's rework debits, newest first.
func (r *Repo) ListDebits(ctx context.Context, orderID uuid.UUID) ([]Debit, error) {
	query := `
		SELECT id, order_id, collaborator_id, reason, hours, note, debited_at
		FROM rework_debits
		WHERE order_id = $1
		ORDER BY debited_at DESC`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list rework debits: %w", err)
	}
	defer rows.Close()

	var debits []Debit
	for rows.Next() {
		var d Debit
		if err := rows.Scan(&d.ID, &d.OrderID, &d.CollaboratorID, &d.Reason, &d.Hours, &d.Note, &d.DebitedAt); err != nil {
			return nil, fmt.Errorf("scan rework debit: %w", err)
		}
		debits = append(debits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rework debits: %w", err)
	}
	return debits, nil
}

// InsertJustification records an audit justification row.
func (r *Repo) InsertJustification(ctx context.Context, params JustificationParams) (uuid.UUID, error) {
	query := `
		INSERT INTO justifications (order_id, collaborator_id, kind, text, tolerance_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		params.OrderID, params.CollaboratorID, params.Kind, params.Text, params.ToleranceMinutes,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert justification: %w", err)
	}
	return id, nil
}

// MarkJustificationNotified flags a justification's tolerance as handled so
// the watchdog never fires twice for the same pause.
func (r *Repo) MarkJustificationNotified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE justifications SET exceeded_notified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark justification notified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("justification not found")
	}
	return nil
}

// ListExpiredPauses finds open pause segments older than the tolerance
// snapshotted on their justification.
func (r *Repo) ListExpiredPauses(ctx context.Context, now time.Time) ([]ExpiredPause, error) {
	query := `
		SELECT s.id, s.order_id, s.collaborator_id, j.id, s.started_at, j.tolerance_minutes
		FROM time_segments s
		JOIN LATERAL (
			SELECT id, tolerance_minutes
			FROM justifications j
			WHERE j.order_id = s.order_id
				AND (j.collaborator_id = s.collaborator_id OR j.collaborator_id IS NULL)
				AND j.kind = 'pause'
				AND j.tolerance_minutes IS NOT NULL
				AND NOT j.exceeded_notified
				AND j.created_at <= s.started_at + interval '1 minute'
			ORDER BY j.created_at DESC
			LIMIT 1
		) j ON TRUE
		WHERE s.kind = 'pause'
			AND s.ended_at IS NULL
			AND s.started_at + make_interval(mins => j.tolerance_minutes) <= $1`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired pauses: %w", err)
	}
	defer rows.Close()

	var expired []ExpiredPause
	for rows.Next() {
		var e ExpiredPause
		if err := rows.Scan(&e.SegmentID, &e.OrderID, &e.CollaboratorID,
			&e.JustificationID, &e.StartedAt, &e.ToleranceMinutes); err != nil {
			return nil, fmt.Errorf("scan expired pause: %w", err)
		}
		expired = append(expired, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired pauses: %w", err)
	}
	return expired, nil
}

// ListAssignments retrieves active assignments with collaborator names.
func (r *Repo) ListAssignments(ctx context.Context, orderID uuid.UUID) ([]Assignment, error) {
	query := `
		SELECT oc.id, oc.order_id, oc.collaborator_id, col.name, oc.product_id,
			oc.active, oc.assigned_at, oc.adjusted_hours
		FROM order_collaborators oc
		JOIN collaborators col ON col.id = oc.collaborator_id
		WHERE oc.order_id = $1 AND oc.active
		ORDER BY col.name ASC, oc.assigned_at ASC`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.OrderID, &a.CollaboratorID, &a.CollaboratorName,
			&a.ProductID, &a.Active, &a.AssignedAt, &a.AdjustedHours); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return assignments, nil
}

// UpsertAssignment apportions a collaborator to an order (or product line),
// reactivating a previously removed row.
func (r *Repo) UpsertAssignment(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (Assignment, error) {
	query := `
		INSERT INTO order_collaborators (order_id, collaborator_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, collaborator_id, COALESCE(product_id, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET active = TRUE
		RETURNING id, order_id, collaborator_id, product_id, active, assigned_at, adjusted_hours`

	var a Assignment
	err := r.db.QueryRow(ctx, query, orderID, collaboratorID, productID).Scan(
		&a.ID, &a.OrderID, &a.CollaboratorID, &a.ProductID, &a.Active, &a.AssignedAt, &a.AdjustedHours)
	if err != nil {
		return Assignment{}, fmt.Errorf("upsert assignment: %w", err)
	}
	return a, nil
}

// RemoveAssignments deletes all of a collaborator's assignment rows on the
// order. Segment and debit history is untouched.
func (r *Repo) RemoveAssignments(ctx context.Context, orderID, collaboratorID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM order_collaborators WHERE order_id = $1 AND collaborator_id = $2`,
		orderID, collaboratorID)
	if err != nil {
		return 0, fmt.Errorf("remove assignments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetAdjustedHours overrides the worked hours on an assignment, returning
// the previous override. A product-scoped miss falls back to the
// order-scoped row.
func (r *Repo) SetAdjustedHours(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID, hours float64) (*float64, error) {
	id, previous, err := r.findAssignmentScoped(ctx, orderID, collaboratorID, productID)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(ctx,
		`UPDATE order_collaborators SET adjusted_hours = $2 WHERE id = $1`, id, hours); err != nil {
		return nil, fmt.Errorf("set adjusted hours: %w", err)
	}
	return previous, nil
}

func (r *Repo) findAssignmentScoped(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (uuid.UUID, *float64, error) {
	var (
		id       uuid.UUID
		previous *float64
	)

	if productID != nil {
		err := r.db.QueryRow(ctx, `
			SELECT id, adjusted_hours FROM order_collaborators
			WHERE order_id = $1 AND collaborator_id = $2 AND product_id = $3 AND active`,
			orderID, collaboratorID, *productID).Scan(&id, &previous)
		if err == nil {
			return id, previous, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil, fmt.Errorf("find assignment: %w", err)
		}
	}

	err := r.db.QueryRow(ctx, `
		SELECT id, adjusted_hours FROM order_collaborators
		WHERE order_id = $1 AND collaborator_id = $2 AND product_id IS NULL AND active`,
		orderID, collaboratorID).Scan(&id, &previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil, apperr.NotAssigned("collaborator is not assigned to this order")
		}
		return uuid.Nil, nil, fmt.Errorf("find assignment: %w", err)
	}
	return id, previous, nil
}

// GetOrder retrieves execution's narrow view of an order.
func (r *Repo) GetOrder(ctx context.Context, orderID uuid.UUID) (OrderRef, error) {
	query := `SELECT id, number, status, total_cents, applied_discount_cents, started_at FROM service_orders WHERE id = $1`

	var ref OrderRef
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&ref.ID, &ref.Number, &ref.Status, &ref.TotalCents, &ref.AppliedDiscountCents, &ref.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrderRef{}, apperr.NotFound(orderNotFoundMessage)
		}
		return OrderRef{}, fmt.Errorf("get order: %w", err)
	}
	return ref, nil
}

// SetOrderStatus writes a persisted status.
func (r *Repo) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE service_orders SET status = $2, updated_at = now() WHERE id = $1`,
		orderID, status)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

// MarkStarted moves the order to in_progress. started_at is written once.
func (r *Repo) MarkStarted(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_orders
		SET status = 'in_progress', started_at = COALESCE(started_at, $2), updated_at = now()
		WHERE id = $1`,
		orderID, at)
	if err != nil {
		return fmt.Errorf("mark order started: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

// MarkFinished moves the order to finished, recording the operator discount.
func (r *Repo) MarkFinished(ctx context.Context, orderID uuid.UUID, at time.Time, discountKind string, discountValue float64, appliedCents int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE service_orders
		SET status = 'finished',
			finished_at = $2,
			discount_kind = $3,
			discount_value = $4,
			applied_discount_cents = $5,
			updated_at = now()
		WHERE id = $1`,
		orderID, at, discountKind, discountValue, appliedCents)
	if err != nil {
		return fmt.Errorf("mark order finished: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

// WorkCounts returns, per order, how many active collaborators exist and how
// many of them hold an open work segment.
func (r *Repo) WorkCounts(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]WorkCount, error) {
	query := `
		SELECT oc.order_id,
			COUNT(DISTINCT oc.collaborator_id) AS total,
			COUNT(DISTINCT ts.collaborator_id) AS working
		FROM order_collaborators oc
		LEFT JOIN time_segments ts
			ON ts.order_id = oc.order_id
			AND ts.collaborator_id = oc.collaborator_id
			AND ts.kind = 'work'
			AND ts.ended_at IS NULL
		WHERE oc.order_id = ANY($1) AND oc.active
		GROUP BY oc.order_id`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("work counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]WorkCount, len(orderIDs))
	for rows.Next() {
		var (
			orderID uuid.UUID
			count   WorkCount
		)
		if err := rows.Scan(&orderID, &count.Total, &count.Working); err != nil {
			return nil, fmt.Errorf("scan work count: %w", err)
		}
		counts[orderID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work counts: %w", err)
	}
	return counts, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSegment(row rowScanner) (Segment, error) {
	var (
		seg  Segment
		kind string
	)
	err := row.Scan(&seg.ID, &seg.OrderID, &seg.CollaboratorID, &seg.ProductID,
		&kind, &seg.Reason, &seg.StartedAt, &seg.EndedAt, &seg.Hours)
	if err != nil {
		return Segment{}, err
	}
	seg.Kind = domain.SegmentKind(kind)
	return seg, nil
}
