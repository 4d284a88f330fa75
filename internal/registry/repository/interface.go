package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Client is a customer orders are billed to.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Collaborator is a shop-floor worker assignable to orders.
type Collaborator struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is a catalog item orders reference in their lines.
type Product struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListParams filters registry listings.
type ListParams struct {
	Search     string
	ActiveOnly bool
}

// Repository provides persistence for the order referents.
type Repository interface {
	CreateClient(ctx context.Context, name string) (Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, name *string, active *bool) (Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (Client, error)
	ListClients(ctx context.Context, params ListParams) ([]Client, error)

	CreateCollaborator(ctx context.Context, name, role string) (Collaborator, error)
	UpdateCollaborator(ctx context.Context, id uuid.UUID, name, role *string, active *bool) (Collaborator, error)
	GetCollaborator(ctx context.Context, id uuid.UUID) (Collaborator, error)
	ListCollaborators(ctx context.Context, params ListParams) ([]Collaborator, error)

	CreateProduct(ctx context.Context, name string, unitPriceCents int64) (Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, name *string, unitPriceCents *int64, active *bool) (Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	ListProducts(ctx context.Context, params ListParams) ([]Product, error)
}
