// Package transport defines request DTOs for the registry HTTP API.
package transport

// CreateClientRequest contains data for registering a client.
type CreateClientRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// UpdateClientRequest edits a client; nil fields are left unchanged.
type UpdateClientRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Active *bool   `json:"active,omitempty"`
}

// CreateCollaboratorRequest contains data for registering a collaborator.
type CreateCollaboratorRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Role string `json:"role" validate:"max=100"`
}

// UpdateCollaboratorRequest edits a collaborator; nil fields are left unchanged.
type UpdateCollaboratorRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Role   *string `json:"role,omitempty" validate:"omitempty,max=100"`
	Active *bool   `json:"active,omitempty"`
}

// CreateProductRequest contains data for registering a product.
type CreateProductRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=200"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"gte=0"`
}

// UpdateProductRequest edits a product; nil fields are left unchanged.
type UpdateProductRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	UnitPriceCents *int64  `json:"unitPriceCents,omitempty" validate:"omitempty,gte=0"`
	Active         *bool   `json:"active,omitempty"`
}
