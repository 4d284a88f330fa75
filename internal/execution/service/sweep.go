package service

import (
	"context"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/repository"

	"github.com/google/uuid"
)

// SweepExpiredPauses finds open pauses whose age exceeds the tolerance
// snapshotted on their justification, marks them notified, and resumes the
// affected orders. One failing order does not stop the sweep. Returns how
// many orders were resumed.
func (s *Service) SweepExpiredPauses(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpiredPauses(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	byOrder := make(map[uuid.UUID][]repository.ExpiredPause)
	var orderIDs []uuid.UUID
	for _, p := range expired {
		if _, seen := byOrder[p.OrderID]; !seen {
			orderIDs = append(orderIDs, p.OrderID)
		}
		byOrder[p.OrderID] = append(byOrder[p.OrderID], p)
	}

	resumed := 0
	for _, orderID := range orderIDs {
		if err := s.resumeExpiredOrder(ctx, orderID, byOrder[orderID]); err != nil {
			s.log.Error("pause tolerance sweep failed for order",
				"order_id", orderID.String(), "error", err.Error())
			continue
		}
		resumed++
	}
	return resumed, nil
}

func (s *Service) resumeExpiredOrder(ctx context.Context, orderID uuid.UUID, pauses []repository.ExpiredPause) error {
	for _, p := range pauses {
		if err := s.repo.MarkJustificationNotified(ctx, p.JustificationID); err != nil {
			return err
		}
	}

	if err := s.ResumeOrder(ctx, orderID, nil); err != nil {
		return err
	}

	_, err := s.repo.InsertJustification(ctx, repository.JustificationParams{
		OrderID: orderID,
		Kind:    "auto_resume",
		Text:    "pause tolerance exceeded",
	})
	return err
}
