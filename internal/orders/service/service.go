// Package service implements business logic for the orders module.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/orders/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/sanitize"

	"github.com/google/uuid"
)

// numberIssueAttempts bounds the insert-retry loop when concurrent creates
// race for the same order number.
const numberIssueAttempts = 5

// Settings is the slice of the settings service the orders module needs.
type Settings interface {
	OrderNumberPrefix(ctx context.Context) string
	ExpectedHoursFor(ctx context.Context, day time.Weekday) float64
}

// OverlaySource computes display statuses for orders from execution state.
// Wired from the execution module by the composition root.
type OverlaySource interface {
	OverlayStatuses(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// Service provides order aggregate operations.
type Service struct {
	repo     repository.Repository
	settings Settings
	overlay  OverlaySource
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new orders service.
func New(repo repository.Repository, settings Settings, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, settings: settings, bus: bus, log: log}
}

// SetOverlaySource wires the execution read model used to decorate orders
// with their derived display status.
func (s *Service) SetOverlaySource(src OverlaySource) {
	s.overlay = src
}

// CreateInput describes a new order.
type CreateInput struct {
	ClientID       uuid.UUID
	Description    string
	SiteTag        *string
	PredictedHours *float64
	Lines          []repository.LineParams
	PerformedBy    *uuid.UUID
}

// Create issues the next order number and inserts the order. The number is
// derived from the latest issued one; if a concurrent create wins the race
// the insert conflicts and we retry with the number incremented.
func (s *Service) Create(ctx context.Context, input CreateInput) (repository.ServiceOrder, error) {
	input.Description = sanitize.Text(input.Description)
	if strings.TrimSpace(input.Description) == "" {
		return repository.ServiceOrder{}, apperr.Validation("description is required")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return repository.ServiceOrder{}, apperr.Validation("line quantity must be positive")
		}
		if line.UnitPriceCents < 0 {
			return repository.ServiceOrder{}, apperr.Validation("line unit price cannot be negative")
		}
	}

	predicted := input.PredictedHours
	if predicted == nil {
		hours := s.settings.ExpectedHoursFor(ctx, time.Now().Weekday())
		predicted = &hours
	}

	prefix := s.settings.OrderNumberPrefix(ctx)
	latest, err := s.repo.LatestNumber(ctx, prefix)
	if err != nil {
		return repository.ServiceOrder{}, err
	}
	number := NextNumber(prefix, latest)

	var order repository.ServiceOrder
	for attempt := 0; ; attempt++ {
		order, err = s.repo.Insert(ctx, repository.CreateParams{
			Number:         number,
			ClientID:       input.ClientID,
			Description:    input.Description,
			SiteTag:        input.SiteTag,
			PredictedHours: predicted,
			Lines:          input.Lines,
		})
		if err == nil {
			break
		}
		if !apperr.Is(err, apperr.KindConflict) || attempt >= numberIssueAttempts-1 {
			return repository.ServiceOrder{}, err
		}
		number = IncrementNumber(number)
	}

	s.bus.Publish(ctx, events.OrderCreated{
		BaseEvent:   events.NewBaseEvent(),
		OrderID:     order.ID,
		OrderNumber: order.Number,
		ClientID:    order.ClientID,
		PerformedBy: input.PerformedBy,
	})

	return order, nil
}

// UpdateInput describes header and line changes for an order.
type UpdateInput struct {
	ID             uuid.UUID
	ClientID       *uuid.UUID
	Description    *string
	SiteTag        *string
	PredictedHours *float64
	Lines          *[]repository.LineParams
	PerformedBy    *uuid.UUID
}

// Update edits the order header and optionally replaces all product lines.
// Status is never writable here; execution owns all status transitions.
func (s *Service) Update(ctx context.Context, input UpdateInput) (repository.ServiceOrder, error) {
	input.Description = sanitize.TextPtr(input.Description)
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return repository.ServiceOrder{}, apperr.Validation("description cannot be empty")
	}
	if input.Lines != nil {
		for _, line := range *input.Lines {
			if line.Quantity <= 0 {
				return repository.ServiceOrder{}, apperr.Validation("line quantity must be positive")
			}
			if line.UnitPriceCents < 0 {
				return repository.ServiceOrder{}, apperr.Validation("line unit price cannot be negative")
			}
		}
	}

	order, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:             input.ID,
		ClientID:       input.ClientID,
		Description:    input.Description,
		SiteTag:        input.SiteTag,
		PredictedHours: input.PredictedHours,
		Lines:          input.Lines,
	})
	if err != nil {
		return repository.ServiceOrder{}, err
	}

	s.bus.Publish(ctx, events.OrderUpdated{
		BaseEvent:   events.NewBaseEvent(),
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Detail:      "order updated",
		PerformedBy: input.PerformedBy,
	})

	return order, nil
}

// OrderView is an order decorated with its display status and lines.
type OrderView struct {
	repository.ServiceOrder
	DisplayStatus string                   `json:"displayStatus"`
	Lines         []repository.ProductLine `json:"lines,omitempty"`
}

// Get returns a single order with lines and display status.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (OrderView, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return OrderView{}, err
	}
	lines, err := s.repo.ListLines(ctx, id)
	if err != nil {
		return OrderView{}, err
	}

	view := OrderView{ServiceOrder: order, DisplayStatus: order.Status, Lines: lines}
	s.applyOverlay(ctx, []*OrderView{&view})
	return view, nil
}

// ListResult carries a page of orders plus the total match count.
type ListResult struct {
	Items []OrderView `json:"items"`
	Total int         `json:"total"`
}

// List returns orders matching the filters, each with its display status.
func (s *Service) List(ctx context.Context, params repository.ListParams) (ListResult, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}

	views := make([]OrderView, len(items))
	refs := make([]*OrderView, len(items))
	for i, item := range items {
		views[i] = OrderView{ServiceOrder: item, DisplayStatus: item.Status}
		refs[i] = &views[i]
	}
	s.applyOverlay(ctx, refs)

	return ListResult{Items: views, Total: total}, nil
}

// applyOverlay replaces each view's display status with the derived overlay
// when the execution read model is wired. Overlay failures degrade to the
// persisted status; they never fail a read.
func (s *Service) applyOverlay(ctx context.Context, views []*OrderView) {
	if s.overlay == nil || len(views) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}

	overlays, err := s.overlay.OverlayStatuses(ctx, ids)
	if err != nil {
		s.log.Warn("overlay status lookup failed", "error", err)
		return
	}
	for _, v := range views {
		if status, ok := overlays[v.ID]; ok && status != "" {
			v.DisplayStatus = status
		}
	}
}
