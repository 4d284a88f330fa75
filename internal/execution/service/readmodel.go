package service

import (
	"context"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/domain"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/repository"

	"github.com/google/uuid"
)

// AssignmentView is one collaborator's derived execution state on an order.
type AssignmentView struct {
	repository.Assignment
	Status domain.AssignmentStatus `json:"status"`
	// OpenSegmentHours is the live duration of the open segment, derived at
	// read time and never stored.
	OpenSegmentHours *float64 `json:"openSegmentHours,omitempty"`
	WorkedHours      float64  `json:"workedHours"`
	PausedHours      float64  `json:"pausedHours"`
	StoppedHours     float64  `json:"stoppedHours"`
}

// ExecutionView is the full execution read model for one order.
type ExecutionView struct {
	OrderID              uuid.UUID            `json:"orderId"`
	OrderNumber          string               `json:"orderNumber"`
	Status               string               `json:"status"`
	DisplayStatus        string               `json:"displayStatus"`
	Assignments          []AssignmentView     `json:"assignments"`
	Segments             []repository.Segment `json:"segments"`
	Debits               []repository.Debit   `json:"debits"`
	ReworkHours          float64              `json:"reworkHours"`
	TotalCents           int64                `json:"totalCents"`
	AppliedDiscountCents int64                `json:"appliedDiscountCents"`
	// DiscountedTotalCents is derived on every read; the stored gross total
	// is never rewritten.
	DiscountedTotalCents int64 `json:"discountedTotalCents"`
}

// View assembles the execution read model for an order.
func (s *Service) View(ctx context.Context, orderID uuid.UUID) (ExecutionView, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return ExecutionView{}, err
	}
	assignments, err := s.repo.ListAssignments(ctx, orderID)
	if err != nil {
		return ExecutionView{}, err
	}
	segments, err := s.repo.ListSegments(ctx, orderID)
	if err != nil {
		return ExecutionView{}, err
	}
	debits, err := s.repo.ListDebits(ctx, orderID)
	if err != nil {
		return ExecutionView{}, err
	}

	now := s.now()

	view := ExecutionView{
		OrderID:              order.ID,
		OrderNumber:          order.Number,
		Status:               order.Status,
		DisplayStatus:        order.Status,
		Segments:             segments,
		Debits:               debits,
		TotalCents:           order.TotalCents,
		AppliedDiscountCents: order.AppliedDiscountCents,
		DiscountedTotalCents: order.TotalCents - order.AppliedDiscountCents,
	}
	for _, d := range debits {
		view.ReworkHours += d.Hours
	}

	working := 0
	collaborators := uniqueCollaborators(assignments)
	perCollaborator := make(map[uuid.UUID][]repository.Segment)
	for _, seg := range segments {
		perCollaborator[seg.CollaboratorID] = append(perCollaborator[seg.CollaboratorID], seg)
	}

	for _, a := range assignments {
		av := AssignmentView{Assignment: a}
		segs := perCollaborator[a.CollaboratorID]

		views := make([]domain.SegmentView, len(segs))
		for i, seg := range segs {
			views[i] = domain.SegmentView{Kind: seg.Kind, StartedAt: seg.StartedAt, Open: seg.Open()}
		}
		av.Status = domain.DeriveAssignmentStatus(a.AssignedAt, views)

		for _, seg := range segs {
			hours := 0.0
			if seg.Hours != nil {
				hours = *seg.Hours
			} else if seg.Open() {
				live := domain.SegmentHours(seg.StartedAt, now)
				hours = live
				av.OpenSegmentHours = &live
			}
			switch seg.Kind {
			case domain.SegmentPause:
				av.PausedHours += hours
			case domain.SegmentMaterialStop:
				av.StoppedHours += hours
			default:
				av.WorkedHours += hours
			}
		}

		view.Assignments = append(view.Assignments, av)
	}

	seenWorking := make(map[uuid.UUID]struct{})
	for _, av := range view.Assignments {
		if av.Status == domain.AssignmentWorking {
			if _, ok := seenWorking[av.CollaboratorID]; !ok {
				seenWorking[av.CollaboratorID] = struct{}{}
				working++
			}
		}
	}
	view.DisplayStatus = domain.OverlayStatus(order.Status, working, len(collaborators))

	return view, nil
}

// OverlayStatuses computes display statuses for a batch of orders. Orders
// whose persisted status admits no overlay are simply absent from the map.
// Satisfies the orders module's OverlaySource port.
func (s *Service) OverlayStatuses(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(orderIDs) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	counts, err := s.repo.WorkCounts(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	overlays := make(map[uuid.UUID]string, len(counts))
	for _, id := range orderIDs {
		count, ok := counts[id]
		if !ok {
			continue
		}
		order, err := s.repo.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		overlay := domain.OverlayStatus(order.Status, count.Working, count.Total)
		if overlay != order.Status {
			overlays[id] = overlay
		}
	}
	return overlays, nil
}
