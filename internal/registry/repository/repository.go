package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements Repository with pgx.
type Repo struct {
	db *pgxpool.Pool
}

// New creates a new registry repository.
func New(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// CreateClient inserts a client.
func (r *Repo) CreateClient(ctx context.Context, name string) (Client, error) {
	var c Client
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (name) VALUES ($1)
		RETURNING id, name, active, created_at`,
		name).Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt)
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// UpdateClient edits a client; nil fields are left unchanged.
func (r *Repo) UpdateClient(ctx context.Context, id uuid.UUID, name *string, active *bool) (Client, error) {
	var c Client
	err := r.db.QueryRow(ctx, `
		UPDATE clients
		SET name = COALESCE($2, name), active = COALESCE($3, active)
		WHERE id = $1
		RETURNING id, name, active, created_at`,
		id, name, active).Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found")
		}
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

// GetClient retrieves a client by ID.
func (r *Repo) GetClient(ctx context.Context, id uuid.UUID) (Client, error) {
	var c Client
	err := r.db.QueryRow(ctx, `
		SELECT id, name, active, created_at FROM clients WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound("client not found")
		}
		return Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// ListClients retrieves clients matching the filter, name-ordered.
func (r *Repo) ListClients(ctx context.Context, params ListParams) ([]Client, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, active, created_at
		FROM clients
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR active)
		ORDER BY name`,
		params.Search, params.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var items []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateCollaborator inserts a collaborator.
func (r *Repo) CreateCollaborator(ctx context.Context, name, role string) (Collaborator, error) {
	var c Collaborator
	err := r.db.QueryRow(ctx, `
		INSERT INTO collaborators (name, role) VALUES ($1, $2)
		RETURNING id, name, role, active, created_at`,
		name, role).Scan(&c.ID, &c.Name, &c.Role, &c.Active, &c.CreatedAt)
	if err != nil {
		return Collaborator{}, fmt.Errorf("create collaborator: %w", err)
	}
	return c, nil
}

// UpdateCollaborator edits a collaborator; nil fields are left unchanged.
func (r *Repo) UpdateCollaborator(ctx context.Context, id uuid.UUID, name, role *string, active *bool) (Collaborator, error) {
	var c Collaborator
	err := r.db.QueryRow(ctx, `
		UPDATE collaborators
		SET name = COALESCE($2, name), role = COALESCE($3, role), active = COALESCE($4, active)
		WHERE id = $1
		RETURNING id, name, role, active, created_at`,
		id, name, role, active).Scan(&c.ID, &c.Name, &c.Role, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collaborator{}, apperr.NotFound("collaborator not found")
		}
		return Collaborator{}, fmt.Errorf("update collaborator: %w", err)
	}
	return c, nil
}

// GetCollaborator retrieves a collaborator by ID.
func (r *Repo) GetCollaborator(ctx context.Context, id uuid.UUID) (Collaborator, error) {
	var c Collaborator
	err := r.db.QueryRow(ctx, `
		SELECT id, name, role, active, created_at FROM collaborators WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.Role, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collaborator{}, apperr.NotFound("collaborator not found")
		}
		return Collaborator{}, fmt.Errorf("get collaborator: %w", err)
	}
	return c, nil
}

// ListCollaborators retrieves collaborators matching the filter, name-ordered.
func (r *Repo) ListCollaborators(ctx context.Context, params ListParams) ([]Collaborator, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, role, active, created_at
		FROM collaborators
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR active)
		ORDER BY name`,
		params.Search, params.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer rows.Close()

	var items []Collaborator
	for rows.Next() {
		var c Collaborator
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateProduct inserts a product.
func (r *Repo) CreateProduct(ctx context.Context, name string, unitPriceCents int64) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (name, unit_price_cents) VALUES ($1, $2)
		RETURNING id, name, unit_price_cents, active, created_at`,
		name, unitPriceCents).Scan(&p.ID, &p.Name, &p.UnitPriceCents, &p.Active, &p.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// UpdateProduct edits a product; nil fields are left unchanged.
func (r *Repo) UpdateProduct(ctx context.Context, id uuid.UUID, name *string, unitPriceCents *int64, active *bool) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = COALESCE($2, name),
			unit_price_cents = COALESCE($3, unit_price_cents),
			active = COALESCE($4, active)
		WHERE id = $1
		RETURNING id, name, unit_price_cents, active, created_at`,
		id, name, unitPriceCents, active).Scan(&p.ID, &p.Name, &p.UnitPriceCents, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound("product not found")
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// GetProduct retrieves a product by ID.
func (r *Repo) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, unit_price_cents, active, created_at FROM products WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.UnitPriceCents, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound("product not found")
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListProducts retrieves products matching the filter, name-ordered.
func (r *Repo) ListProducts(ctx context.Context, params ListParams) ([]Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, unit_price_cents, active, created_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND (NOT $2 OR active)
		ORDER BY name`,
		params.Search, params.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPriceCents, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Compile-time check that Repo implements Repository
var _ Repository = (*Repo)(nil)
