package service

import (
	"context"
	"strings"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/domain"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/sanitize"

	"github.com/google/uuid"
)

// StartOrder begins execution: every active assignment gets an open work
// segment and the order moves to in_progress. Stray open segments are closed
// first so the single-open invariant holds whatever state was left behind.
func (s *Service) StartOrder(ctx context.Context, orderID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !domain.CanStart(order.Status) {
		return apperr.Conflict("order cannot be started from status " + order.Status)
	}

	assignments, err := s.repo.ListAssignments(ctx, orderID)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return apperr.Validation("order has no active collaborators")
	}

	now := s.now()
	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := s.closeAllOpens(ctx, tx, orderID, now, &debits); err != nil {
			return err
		}
		for _, a := range assignments {
			if _, err := tx.OpenSegment(ctx, repository.OpenSegmentParams{
				OrderID:        orderID,
				CollaboratorID: a.CollaboratorID,
				ProductID:      a.ProductID,
				Kind:           domain.SegmentWork,
				StartedAt:      now,
			}); err != nil {
				return err
			}
		}
		return tx.MarkStarted(ctx, orderID, now)
	})
	if err != nil {
		return err
	}

	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, "start_order", order, nil, nil, order.Status, domain.StatusInProgress, "", performedBy)
	return nil
}

// PauseOrder pauses every collaborator on the order and persists the paused
// status. The justification is mandatory and carries the tolerance snapshot
// the watchdog later checks against.
func (s *Service) PauseOrder(ctx context.Context, orderID uuid.UUID, reason string, performedBy *uuid.UUID) error {
	return s.suspendOrder(ctx, orderID, domain.SegmentPause, reason, performedBy)
}

// StopOrder opens a material stop for every collaborator on the order. The
// persisted status is untouched; each stop debits the rework ledger when it
// closes.
func (s *Service) StopOrder(ctx context.Context, orderID uuid.UUID, reason string, performedBy *uuid.UUID) error {
	return s.suspendOrder(ctx, orderID, domain.SegmentMaterialStop, reason, performedBy)
}

func (s *Service) suspendOrder(ctx context.Context, orderID uuid.UUID, kind domain.SegmentKind, reason string, performedBy *uuid.UUID) error {
	reason = sanitize.Text(reason)
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("a justification is required")
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusInProgress {
		return apperr.Conflict("order is not in progress")
	}

	assignments, err := s.repo.ListAssignments(ctx, orderID)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return apperr.Validation("order has no active collaborators")
	}

	now := s.now()
	tolerance := s.toleranceFor(ctx, kind)
	afterStatus := order.Status

	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := s.closeAllOpens(ctx, tx, orderID, now, &debits); err != nil {
			return err
		}
		for _, collaboratorID := range uniqueCollaborators(assignments) {
			if _, err := tx.OpenSegment(ctx, repository.OpenSegmentParams{
				OrderID:        orderID,
				CollaboratorID: collaboratorID,
				Kind:           kind,
				Reason:         &reason,
				StartedAt:      now,
			}); err != nil {
				return err
			}
		}
		if _, err := tx.InsertJustification(ctx, repository.JustificationParams{
			OrderID:          orderID,
			Kind:             string(kind),
			Text:             reason,
			ToleranceMinutes: tolerance,
		}); err != nil {
			return err
		}
		if kind == domain.SegmentPause {
			afterStatus = domain.StatusPaused
			return tx.SetOrderStatus(ctx, orderID, domain.StatusPaused)
		}
		return nil
	})
	if err != nil {
		return err
	}

	action := "pause_order"
	if kind == domain.SegmentMaterialStop {
		action = "stop_order"
	}
	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, action, order, nil, nil, order.Status, afterStatus, reason, performedBy)
	return nil
}

// PauseCollaborator pauses one collaborator without touching the persisted
// order status; the overlay surfaces the partial state.
func (s *Service) PauseCollaborator(ctx context.Context, orderID, collaboratorID uuid.UUID, reason string, performedBy *uuid.UUID) error {
	return s.suspendCollaborator(ctx, orderID, collaboratorID, domain.SegmentPause, reason, performedBy)
}

// StopCollaborator opens a material stop for one collaborator.
func (s *Service) StopCollaborator(ctx context.Context, orderID, collaboratorID uuid.UUID, reason string, performedBy *uuid.UUID) error {
	return s.suspendCollaborator(ctx, orderID, collaboratorID, domain.SegmentMaterialStop, reason, performedBy)
}

func (s *Service) suspendCollaborator(ctx context.Context, orderID, collaboratorID uuid.UUID, kind domain.SegmentKind, reason string, performedBy *uuid.UUID) error {
	reason = sanitize.Text(reason)
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("a justification is required")
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusInProgress {
		return apperr.Conflict("order is not in progress")
	}

	if err := s.requireAssigned(ctx, orderID, collaboratorID); err != nil {
		return err
	}

	now := s.now()
	tolerance := s.toleranceFor(ctx, kind)

	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if _, err := s.closeCollaboratorOpens(ctx, tx, orderID, collaboratorID, now, &debits); err != nil {
			return err
		}
		if _, err := tx.OpenSegment(ctx, repository.OpenSegmentParams{
			OrderID:        orderID,
			CollaboratorID: collaboratorID,
			Kind:           kind,
			Reason:         &reason,
			StartedAt:      now,
		}); err != nil {
			return err
		}
		_, err := tx.InsertJustification(ctx, repository.JustificationParams{
			OrderID:          orderID,
			CollaboratorID:   &collaboratorID,
			Kind:             string(kind),
			Text:             reason,
			ToleranceMinutes: tolerance,
		})
		return err
	})
	if err != nil {
		return err
	}

	action := "pause_collaborator"
	if kind == domain.SegmentMaterialStop {
		action = "stop_collaborator"
	}
	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, action, order, &collaboratorID, nil, order.Status, order.Status, reason, performedBy)
	return nil
}

// ResumeOrder closes every open pause or stop on the order, debiting closed
// material stops, and reopens work segments for all active assignments.
func (s *Service) ResumeOrder(ctx context.Context, orderID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusPaused && order.Status != domain.StatusInProgress {
		return apperr.Conflict("order cannot be resumed from status " + order.Status)
	}

	assignments, err := s.repo.ListAssignments(ctx, orderID)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return apperr.Validation("order has no active collaborators")
	}

	now := s.now()
	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := s.closeAllOpens(ctx, tx, orderID, now, &debits); err != nil {
			return err
		}
		for _, a := range assignments {
			if _, err := tx.OpenSegment(ctx, repository.OpenSegmentParams{
				OrderID:        orderID,
				CollaboratorID: a.CollaboratorID,
				ProductID:      a.ProductID,
				Kind:           domain.SegmentWork,
				StartedAt:      now,
			}); err != nil {
				return err
			}
		}
		return tx.MarkStarted(ctx, orderID, now)
	})
	if err != nil {
		return err
	}

	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, "resume_order", order, nil, nil, order.Status, domain.StatusInProgress, "", performedBy)
	return nil
}

// ResumeCollaborator closes one collaborator's open pause or stop and opens
// a fresh work segment. Resuming someone already working is a conflict, so a
// double resume can never produce two open work segments.
func (s *Service) ResumeCollaborator(ctx context.Context, orderID, collaboratorID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if domain.IsTerminal(order.Status) {
		return apperr.Conflict("order is " + order.Status)
	}

	open, err := s.repo.FindOpenSegment(ctx, orderID, collaboratorID, nil)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Conflict("collaborator has no open pause or stop to resume")
		}
		return err
	}
	if open.Kind == domain.SegmentWork {
		return apperr.Conflict("collaborator is already working")
	}

	now := s.now()
	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := s.closeSegmentWithDebit(ctx, tx, open, now, &debits); err != nil {
			return err
		}
		_, err := tx.OpenSegment(ctx, repository.OpenSegmentParams{
			OrderID:        orderID,
			CollaboratorID: collaboratorID,
			ProductID:      open.ProductID,
			Kind:           domain.SegmentWork,
			StartedAt:      now,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, "resume_collaborator", order, &collaboratorID, nil, order.Status, order.Status, "", performedBy)
	return nil
}

// StartCollaboratorOnProduct puts a collaborator to work on a specific
// product line, typically after they finished their previous scope. Any
// stray open segment for the scope is closed first.
func (s *Service) StartCollaboratorOnProduct(ctx context.Context, orderID, collaboratorID, productID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if domain.IsTerminal(order.Status) || order.Status == domain.StatusAtClient {
		return apperr.Conflict("order is " + order.Status)
	}

	if err := s.requireAssigned(ctx, orderID, collaboratorID); err != nil {
		return err
	}

	now := s.now()
	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		open, err := tx.FindOpenSegment(ctx, orderID, collaboratorID, &productID)
		if err == nil {
			if err := s.closeSegmentWithDebit(ctx, tx, open, now, &debits); err != nil {
				return err
			}
		} else if !apperr.Is(err, apperr.KindNotFound) {
			return err
		}

		if _, err := tx.OpenSegment(ctx, repository.OpenSegmentParams{
			OrderID:        orderID,
			CollaboratorID: collaboratorID,
			ProductID:      &productID,
			Kind:           domain.SegmentWork,
			StartedAt:      now,
		}); err != nil {
			return err
		}

		// A restart on a never-started order still moves it forward.
		if order.Status == domain.StatusOpen {
			return tx.MarkStarted(ctx, orderID, now)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, "start_collaborator_product", order, &collaboratorID, &productID, order.Status, order.Status, "", performedBy)
	return nil
}

// FinishCollaborator closes every open segment the collaborator holds on the
// order. Their "finished" state is derived from the absence of open
// segments; the assignment row is kept for history and restarts.
func (s *Service) FinishCollaborator(ctx context.Context, orderID, collaboratorID uuid.UUID, performedBy *uuid.UUID) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.requireAssigned(ctx, orderID, collaboratorID); err != nil {
		return err
	}

	now := s.now()
	var debits []repository.Debit
	var closed int
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		closed, err = s.closeCollaboratorOpens(ctx, tx, orderID, collaboratorID, now, &debits)
		return err
	})
	if err != nil {
		return err
	}
	if closed == 0 {
		return apperr.AlreadyClosed("collaborator has no open segment on this order")
	}

	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, "finish_collaborator", order, &collaboratorID, nil, order.Status, order.Status, "", performedBy)
	return nil
}

// FinishOrder ends execution: all remaining open segments are closed (still
// debiting material stops), the operator discount is clamped and recorded,
// and the order becomes finished. The gross total is never modified.
func (s *Service) FinishOrder(ctx context.Context, orderID uuid.UUID, discountKind string, discountValue float64, performedBy *uuid.UUID) error {
	kind, err := domain.ParseDiscountKind(discountKind)
	if err != nil {
		return err
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !domain.CanFinish(order.Status) {
		return apperr.Conflict("order cannot be finished from status " + order.Status)
	}

	applied := domain.AppliedDiscount(order.TotalCents, kind, discountValue)

	now := s.now()
	var debits []repository.Debit
	err = s.repo.InTx(ctx, func(tx repository.Repository) error {
		if err := s.closeAllOpens(ctx, tx, orderID, now, &debits); err != nil {
			return err
		}
		return tx.MarkFinished(ctx, orderID, now, string(kind), discountValue, applied)
	})
	if err != nil {
		return err
	}

	s.publishDebits(ctx, order, debits)
	s.publishTransition(ctx, "finish_order", order, nil, nil, order.Status, domain.StatusFinished, "", performedBy)
	return nil
}

// requireAssigned checks the collaborator holds at least one active
// assignment on the order.
func (s *Service) requireAssigned(ctx context.Context, orderID, collaboratorID uuid.UUID) error {
	assignments, err := s.repo.ListAssignments(ctx, orderID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if a.CollaboratorID == collaboratorID {
			return nil
		}
	}
	return apperr.NotAssigned("collaborator is not assigned to this order")
}

// uniqueCollaborators collapses assignment rows (order-level plus
// product-level) down to distinct collaborator IDs.
func uniqueCollaborators(assignments []repository.Assignment) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(assignments))
	var ids []uuid.UUID
	for _, a := range assignments {
		if _, ok := seen[a.CollaboratorID]; ok {
			continue
		}
		seen[a.CollaboratorID] = struct{}{}
		ids = append(ids, a.CollaboratorID)
	}
	return ids
}

// toleranceFor snapshots the pause tolerance onto pause justifications.
// Material stops have no tolerance; they end when material arrives.
func (s *Service) toleranceFor(ctx context.Context, kind domain.SegmentKind) *int {
	if kind != domain.SegmentPause {
		return nil
	}
	tolerance := s.settings.PauseToleranceMinutes(ctx)
	return &tolerance
}
