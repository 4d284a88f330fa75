package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	inserted []repository.InsertParams
}

func (f *fakeRepo) Insert(ctx context.Context, params repository.InsertParams) error {
	f.inserted = append(f.inserted, params)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, params repository.ListParams) ([]repository.Entry, error) {
	return nil, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

func TestTransitionEventsBecomeAuditEntries(t *testing.T) {
	repo := &fakeRepo{}
	bus := events.NewInMemoryBus(logger.New("development"))
	New(repo, logger.New("development")).RegisterHandlers(bus)

	orderID := uuid.New()
	// The watchdog's auto-resume publishes the same event shape as an
	// operator action; both must land in the trail.
	err := bus.PublishSync(context.Background(), events.TransitionApplied{
		BaseEvent:    events.NewBaseEvent(),
		Action:       "resume_order",
		OrderID:      orderID,
		OrderNumber:  "OS0007",
		BeforeStatus: "paused",
		AfterStatus:  "in_progress",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(repo.inserted))
	}
	entry := repo.inserted[0]
	if entry.Action != "resume_order" {
		t.Fatalf("expected action resume_order, got %q", entry.Action)
	}
	if entry.OrderID == nil || *entry.OrderID != orderID {
		t.Fatal("expected the order ID on the entry")
	}
	if entry.OrderNumber != "OS0007" {
		t.Fatalf("expected order number OS0007, got %q", entry.OrderNumber)
	}

	var before map[string]string
	if err := json.Unmarshal(entry.Before, &before); err != nil {
		t.Fatalf("unmarshal before snapshot: %v", err)
	}
	if before["status"] != "paused" {
		t.Fatalf("expected before status paused, got %q", before["status"])
	}
}

func TestDebitEventsAreRecorded(t *testing.T) {
	repo := &fakeRepo{}
	bus := events.NewInMemoryBus(logger.New("development"))
	New(repo, logger.New("development")).RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.ReworkDebitRecorded{
		BaseEvent:      events.NewBaseEvent(),
		OrderID:        uuid.New(),
		OrderNumber:    "OS0008",
		CollaboratorID: uuid.New(),
		Hours:          0.75,
		Reason:         "faltou chapa",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(repo.inserted))
	}
	entry := repo.inserted[0]
	if entry.Detail == nil || *entry.Detail != "faltou chapa" {
		t.Fatal("expected the debit reason as detail")
	}
}
