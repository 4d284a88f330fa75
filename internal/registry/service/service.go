// Package service provides business logic for the order referents: clients,
// collaborators, and products.
package service

import (
	"context"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/registry/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/sanitize"

	"github.com/google/uuid"
)

// Service provides business logic for the registry.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new registry service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// CreateClient registers a client.
func (s *Service) CreateClient(ctx context.Context, name string) (repository.Client, error) {
	client, err := s.repo.CreateClient(ctx, sanitize.Text(name))
	if err != nil {
		return repository.Client{}, err
	}
	s.log.Info("client created", "id", client.ID, "name", client.Name)
	return client, nil
}

// UpdateClient edits a client's name or active flag.
func (s *Service) UpdateClient(ctx context.Context, id uuid.UUID, name *string, active *bool) (repository.Client, error) {
	return s.repo.UpdateClient(ctx, id, sanitize.TextPtr(name), active)
}

// GetClient retrieves a client.
func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (repository.Client, error) {
	return s.repo.GetClient(ctx, id)
}

// ListClients retrieves clients, optionally filtered.
func (s *Service) ListClients(ctx context.Context, params repository.ListParams) ([]repository.Client, error) {
	return s.repo.ListClients(ctx, params)
}

// CreateCollaborator registers a collaborator.
func (s *Service) CreateCollaborator(ctx context.Context, name, role string) (repository.Collaborator, error) {
	collaborator, err := s.repo.CreateCollaborator(ctx, sanitize.Text(name), sanitize.Text(role))
	if err != nil {
		return repository.Collaborator{}, err
	}
	s.log.Info("collaborator created", "id", collaborator.ID, "name", collaborator.Name)
	return collaborator, nil
}

// UpdateCollaborator edits a collaborator's name, role, or active flag.
func (s *Service) UpdateCollaborator(ctx context.Context, id uuid.UUID, name, role *string, active *bool) (repository.Collaborator, error) {
	return s.repo.UpdateCollaborator(ctx, id, sanitize.TextPtr(name), sanitize.TextPtr(role), active)
}

// GetCollaborator retrieves a collaborator.
func (s *Service) GetCollaborator(ctx context.Context, id uuid.UUID) (repository.Collaborator, error) {
	return s.repo.GetCollaborator(ctx, id)
}

// ListCollaborators retrieves collaborators, optionally filtered.
func (s *Service) ListCollaborators(ctx context.Context, params repository.ListParams) ([]repository.Collaborator, error) {
	return s.repo.ListCollaborators(ctx, params)
}

// CreateProduct registers a product.
func (s *Service) CreateProduct(ctx context.Context, name string, unitPriceCents int64) (repository.Product, error) {
	product, err := s.repo.CreateProduct(ctx, sanitize.Text(name), unitPriceCents)
	if err != nil {
		return repository.Product{}, err
	}
	s.log.Info("product created", "id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct edits a product's name, price, or active flag.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, name *string, unitPriceCents *int64, active *bool) (repository.Product, error) {
	return s.repo.UpdateProduct(ctx, id, sanitize.TextPtr(name), unitPriceCents, active)
}

// GetProduct retrieves a product.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (repository.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts retrieves products, optionally filtered.
func (s *Service) ListProducts(ctx context.Context, params repository.ListParams) ([]repository.Product, error) {
	return s.repo.ListProducts(ctx, params)
}
