package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderNotFoundMessage = "service order not found"

const uniqueViolationCode = "23505"

const orderColumns = `
	o.id, o.number, o.client_id, c.name, o.description, o.site_tag, o.status,
	o.predicted_hours, o.total_cents, o.discount_kind, o.discount_value,
	o.applied_discount_cents, o.opened_at, o.started_at, o.finished_at,
	o.created_at, o.updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Insert creates an order with its product lines in a single transaction.
func (r *Repo) Insert(ctx context.Context, params CreateParams) (ServiceOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ServiceOrder{}, fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	total := linesTotal(params.Lines)

	var orderID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO service_orders (number, client_id, description, site_tag, predicted_hours, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		params.Number, params.ClientID, params.Description, params.SiteTag,
		params.PredictedHours, total,
	).Scan(&orderID)
	if err != nil {
		if isUniqueViolation(err) {
			return ServiceOrder{}, apperr.Conflict("order number already in use")
		}
		return ServiceOrder{}, fmt.Errorf("insert order: %w", err)
	}

	if err := insertLines(ctx, tx, orderID, params.Lines); err != nil {
		return ServiceOrder{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ServiceOrder{}, fmt.Errorf("commit create order: %w", err)
	}

	return r.GetByID(ctx, orderID)
}

// GetByID retrieves an order with its client name.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (ServiceOrder, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM service_orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ServiceOrder{}, apperr.NotFound(orderNotFoundMessage)
		}
		return ServiceOrder{}, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// GetByNumber retrieves an order by its issued number.
func (r *Repo) GetByNumber(ctx context.Context, number string) (ServiceOrder, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM service_orders o
		JOIN clients c ON c.id = o.client_id
		WHERE o.number = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ServiceOrder{}, apperr.NotFound(orderNotFoundMessage)
		}
		return ServiceOrder{}, fmt.Errorf("get order by number: %w", err)
	}
	return order, nil
}

// ListLines retrieves an order's product lines with product names.
func (r *Repo) ListLines(ctx context.Context, orderID uuid.UUID) ([]ProductLine, error) {
	query := `
		SELECT op.id, op.order_id, op.product_id, p.name, op.quantity, op.unit_price_cents, op.subtotal_cents
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY p.name ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []ProductLine
	for rows.Next() {
		var l ProductLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName,
			&l.Quantity, &l.UnitPriceCents, &l.SubtotalCents); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

// List retrieves orders with filters and pagination.
func (r *Repo) List(ctx context.Context, params ListParams) ([]ServiceOrder, int, error) {
	var statusParam interface{}
	if params.Status != "" {
		statusParam = params.Status
	}
	var clientParam interface{}
	if params.ClientID != nil {
		clientParam = *params.ClientID
	}
	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	args := []interface{}{statusParam, clientParam, searchParam}

	countQuery := `
		SELECT COUNT(*)
		FROM service_orders o
		JOIN clients c ON c.id = o.client_id
		WHERE ($1::text IS NULL OR o.status = $1)
			AND ($2::uuid IS NULL OR o.client_id = $2)
			AND ($3::text IS NULL OR o.number ILIKE $3 OR o.description ILIKE $3 OR c.name ILIKE $3)`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM service_orders o
		JOIN clients c ON c.id = o.client_id
		WHERE ($1::text IS NULL OR o.status = $1)
			AND ($2::uuid IS NULL OR o.client_id = $2)
			AND ($3::text IS NULL OR o.number ILIKE $3 OR o.description ILIKE $3 OR c.name ILIKE $3)
		ORDER BY o.opened_at DESC
		LIMIT $4 OFFSET $5`

	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var results []ServiceOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		results = append(results, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}

	return results, total, nil
}

// LatestNumber returns the highest issued number for the given prefix.
// Length-first ordering keeps OS0100 above OS099 regardless of padding.
func (r *Repo) LatestNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT number
		FROM service_orders
		WHERE number LIKE $1 || '%'
		ORDER BY length(number) DESC, number DESC
		LIMIT 1`

	var number string
	err := r.pool.QueryRow(ctx, query, prefix).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("latest order number: %w", err)
	}
	return number, nil
}

// Update updates an order header and, when lines are provided, replaces the
// product lines wholesale and recomputes the gross total.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (ServiceOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ServiceOrder{}, fmt.Errorf("begin update order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE service_orders SET
			client_id = COALESCE($2, client_id),
			description = COALESCE($3, description),
			site_tag = COALESCE($4, site_tag),
			predicted_hours = COALESCE($5, predicted_hours),
			updated_at = now()
		WHERE id = $1`,
		params.ID, params.ClientID, params.Description, params.SiteTag, params.PredictedHours,
	)
	if err != nil {
		return ServiceOrder{}, fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ServiceOrder{}, apperr.NotFound(orderNotFoundMessage)
	}

	if params.Lines != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM order_products WHERE order_id = $1`, params.ID); err != nil {
			return ServiceOrder{}, fmt.Errorf("clear order lines: %w", err)
		}
		if err := insertLines(ctx, tx, params.ID, *params.Lines); err != nil {
			return ServiceOrder{}, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE service_orders SET total_cents = $2, updated_at = now() WHERE id = $1`,
			params.ID, linesTotal(*params.Lines),
		); err != nil {
			return ServiceOrder{}, fmt.Errorf("update order total: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ServiceOrder{}, fmt.Errorf("commit update order: %w", err)
	}

	return r.GetByID(ctx, params.ID)
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, lines []LineParams) error {
	for _, line := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_products (order_id, product_id, quantity, unit_price_cents, subtotal_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			orderID, line.ProductID, line.Quantity, line.UnitPriceCents, lineSubtotal(line),
		); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

// lineSubtotal rounds to whole cents; fractional quantities must not
// truncate.
func lineSubtotal(line LineParams) int64 {
	return int64(math.Round(line.Quantity * float64(line.UnitPriceCents)))
}

func linesTotal(lines []LineParams) int64 {
	var total int64
	for _, line := range lines {
		total += lineSubtotal(line)
	}
	return total
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (ServiceOrder, error) {
	var o ServiceOrder
	err := row.Scan(
		&o.ID, &o.Number, &o.ClientID, &o.ClientName, &o.Description, &o.SiteTag, &o.Status,
		&o.PredictedHours, &o.TotalCents, &o.DiscountKind, &o.DiscountValue,
		&o.AppliedDiscountCents, &o.OpenedAt, &o.StartedAt, &o.FinishedAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
