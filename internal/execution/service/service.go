// Package service implements the execution transition controller: every
// order status change, time segment, rework debit, and justification goes
// through here.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/domain"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/sanitize"

	"github.com/google/uuid"
)

// Settings is the slice of the settings service execution needs.
type Settings interface {
	PauseToleranceMinutes(ctx context.Context) int
}

// Service is the execution transition controller.
type Service struct {
	repo     repository.Repository
	settings Settings
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new execution service.
func New(repo repository.Repository, settings Settings, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		bus:      bus,
		log:      log,
		now:      time.Now,
	}
}

// AssignCollaborator apportions a collaborator to an order, optionally to a
// single product line. Re-assigning reactivates a removed row.
func (s *Service) AssignCollaborator(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID, performedBy *uuid.UUID) (repository.Assignment, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return repository.Assignment{}, err
	}
	if domain.IsTerminal(order.Status) {
		return repository.Assignment{}, apperr.Conflict("order is " + order.Status)
	}

	assignment, err := s.repo.UpsertAssignment(ctx, orderID, collaboratorID, productID)
	if err != nil {
		return repository.Assignment{}, err
	}

	s.publishTransition(ctx, "assign_collaborator", order, &collaboratorID, productID, order.Status, order.Status, "", performedBy)
	return assignment, nil
}

// RemoveCollaborator deletes all of a collaborator's assignment rows on the
// order after closing any segment they still hold open. History (segments,
// debits, justifications) is untouched.
func (s *Service) RemoveCollaborator(ctx context.Context, orderID, collaboratorID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	now := s.now()
	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if _, err := s.closeCollaboratorOpens(ctx, tx, orderID, collaboratorID, now, &debits); err != nil {
			return err
		}

		removed, err := tx.RemoveAssignments(ctx, orderID, collaboratorID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return apperr.NotAssigned("collaborator is not assigned to this order")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, "remove_collaborator", order, &collaboratorID, nil, order.Status, order.Status, "", performedBy)
	return nil
}

// AdjustHours overrides the recorded hours for an assignment. The override
// never rewrites segments; reads report both values. A justification is
// mandatory.
func (s *Service) AdjustHours(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID, hours float64, justification string, performedBy *uuid.UUID) error {
	if hours < 0 {
		return apperr.Validation("adjusted hours cannot be negative")
	}
	justification = sanitize.Text(justification)
	if strings.TrimSpace(justification) == "" {
		return apperr.Validation("a justification is required to adjust hours")
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	var previous *float64
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		previous, err = tx.SetAdjustedHours(ctx, orderID, collaboratorID, productID, hours)
		if err != nil {
			return err
		}
		_, err = tx.InsertJustification(ctx, repository.JustificationParams{
			OrderID:        orderID,
			CollaboratorID: &collaboratorID,
			Kind:           "hours_adjustment",
			Text:           justification,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.HoursAdjusted{
		BaseEvent:      events.NewBaseEvent(),
		OrderID:        orderID,
		OrderNumber:    order.Number,
		CollaboratorID: collaboratorID,
		ProductID:      productID,
		PreviousHours:  previous,
		NewHours:       hours,
		Justification:  justification,
		PerformedBy:    performedBy,
	})
	return nil
}

// SendToClient parks an open order at the client's site. The order leaves
// the active set until it is returned to production.
func (s *Service) SendToClient(ctx context.Context, orderID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusOpen {
		return apperr.Conflict("only open orders can be sent to the client")
	}

	if err := s.repo.SetOrderStatus(ctx, orderID, domain.StatusAtClient); err != nil {
		return err
	}
	s.publishTransition(ctx, "send_at_client", order, nil, nil, order.Status, domain.StatusAtClient, "", performedBy)
	return nil
}

// ReturnFromClient brings an at-client order back to production as open.
func (s *Service) ReturnFromClient(ctx context.Context, orderID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusAtClient {
		return apperr.Conflict("order is not at the client")
	}

	if err := s.repo.SetOrderStatus(ctx, orderID, domain.StatusOpen); err != nil {
		return err
	}
	s.publishTransition(ctx, "return_from_client", order, nil, nil, order.Status, domain.StatusOpen, "", performedBy)
	return nil
}

// closeSegmentWithDebit closes one segment and, when it was a material stop,
// records the rework debit for exactly the stopped duration. The debit is
// appended to debits for post-commit event publication.
func (s *Service) closeSegmentWithDebit(ctx context.Context, tx repository.Repository, seg repository.Segment, at time.Time, debits *[]repository.Debit) error {
	closed, err := tx.CloseSegment(ctx, seg.ID, at)
	if err != nil {
		if apperr.Is(err, apperr.KindAlreadyClosed) {
			// Lost a close race; the winner owns the debit.
			return nil
		}
		return err
	}

	if closed.Kind != domain.SegmentMaterialStop {
		return nil
	}

	reason := "material stop"
	if closed.Reason != nil && strings.TrimSpace(*closed.Reason) != "" {
		reason = *closed.Reason
	}
	hours := 0.0
	if closed.Hours != nil {
		hours = *closed.Hours
	}

	debit, err := tx.InsertDebit(ctx, repository.DebitParams{
		OrderID:        closed.OrderID,
		CollaboratorID: closed.CollaboratorID,
		Reason:         reason,
		Hours:          hours,
	})
	if err != nil {
		return err
	}
	*debits = append(*debits, debit)
	return nil
}

// closeCollaboratorOpens closes every open segment the collaborator holds on
// the order. Returns how many were closed.
func (s *Service) closeCollaboratorOpens(ctx context.Context, tx repository.Repository, orderID, collaboratorID uuid.UUID, at time.Time, debits *[]repository.Debit) (int, error) {
	opens, err := tx.ListOpenSegments(ctx, orderID)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, seg := range opens {
		if seg.CollaboratorID != collaboratorID {
			continue
		}
		if err := s.closeSegmentWithDebit(ctx, tx, seg, at, debits); err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

// closeAllOpens closes every open segment on the order.
func (s *Service) closeAllOpens(ctx context.Context, tx repository.Repository, orderID uuid.UUID, at time.Time, debits *[]repository.Debit) error {
	opens, err := tx.ListOpenSegments(ctx, orderID)
	if err != nil {
		return err
	}
	for _, seg := range opens {
		if err := s.closeSegmentWithDebit(ctx, tx, seg, at, debits); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publishDebits(ctx context.Context, order repository.OrderRef, debits []repository.Debit) {
	for _, d := range debits {
		s.bus.Publish(ctx, events.ReworkDebitRecorded{
			BaseEvent:      events.NewBaseEvent(),
			OrderID:        d.OrderID,
			OrderNumber:    order.Number,
			CollaboratorID: d.CollaboratorID,
			Hours:          d.Hours,
			Reason:         d.Reason,
		})
	}
}

func (s *Service) publishTransition(ctx context.Context, action string, order repository.OrderRef, collaboratorID, productID *uuid.UUID, before, after, reason string, performedBy *uuid.UUID) {
	s.log.Transition(action, order.ID.String(), idOrEmpty(collaboratorID))
	s.bus.Publish(ctx, events.TransitionApplied{
		BaseEvent:      events.NewBaseEvent(),
		Action:         action,
		OrderID:        order.ID,
		OrderNumber:    order.Number,
		CollaboratorID: collaboratorID,
		ProductID:      productID,
		BeforeStatus:   before,
		AfterStatus:    after,
		Reason:         reason,
		PerformedBy:    performedBy,
	})
}

func idOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
