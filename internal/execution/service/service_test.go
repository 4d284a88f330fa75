package service

import (
	"context"
	"testing"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/domain"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/execution/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository mirroring the store's invariants,
// including the single-open-segment rule the partial unique index enforces.
type fakeRepo struct {
	order          repository.OrderRef
	segments       []*repository.Segment
	assignments    []*repository.Assignment
	debits         []repository.Debit
	justifications []*fakeJustification
	expired        []repository.ExpiredPause
}

type fakeJustification struct {
	ID       uuid.UUID
	Params   repository.JustificationParams
	Notified bool
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(repository.Repository) error) error {
	return fn(f)
}

func scopeKey(productID *uuid.UUID) uuid.UUID {
	if productID == nil {
		return uuid.Nil
	}
	return *productID
}

func (f *fakeRepo) OpenSegment(ctx context.Context, params repository.OpenSegmentParams) (repository.Segment, error) {
	for _, seg := range f.segments {
		if seg.EndedAt == nil &&
			seg.OrderID == params.OrderID &&
			seg.CollaboratorID == params.CollaboratorID &&
			scopeKey(seg.ProductID) == scopeKey(params.ProductID) {
			return repository.Segment{}, apperr.Conflict("an open segment already exists for this collaborator")
		}
	}
	seg := &repository.Segment{
		ID:             uuid.New(),
		OrderID:        params.OrderID,
		CollaboratorID: params.CollaboratorID,
		ProductID:      params.ProductID,
		Kind:           params.Kind,
		Reason:         params.Reason,
		StartedAt:      params.StartedAt,
	}
	f.segments = append(f.segments, seg)
	return *seg, nil
}

func (f *fakeRepo) CloseSegment(ctx context.Context, id uuid.UUID, at time.Time) (repository.Segment, error) {
	for _, seg := range f.segments {
		if seg.ID != id {
			continue
		}
		if seg.EndedAt != nil {
			return repository.Segment{}, apperr.AlreadyClosed("segment was already closed")
		}
		ended := at
		hours := domain.SegmentHours(seg.StartedAt, at)
		seg.EndedAt = &ended
		seg.Hours = &hours
		return *seg, nil
	}
	return repository.Segment{}, apperr.NotFound("time segment not found")
}

func (f *fakeRepo) FindOpenSegment(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (repository.Segment, error) {
	if productID != nil {
		if seg, err := f.findOpen(orderID, collaboratorID, productID); err == nil {
			return seg, nil
		}
	}
	return f.findOpen(orderID, collaboratorID, nil)
}

func (f *fakeRepo) findOpen(orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (repository.Segment, error) {
	for _, seg := range f.segments {
		if seg.EndedAt == nil &&
			seg.OrderID == orderID &&
			seg.CollaboratorID == collaboratorID &&
			scopeKey(seg.ProductID) == scopeKey(productID) {
			return *seg, nil
		}
	}
	return repository.Segment{}, apperr.NotFound("no open segment for this collaborator")
}

func (f *fakeRepo) ListOpenSegments(ctx context.Context, orderID uuid.UUID) ([]repository.Segment, error) {
	var out []repository.Segment
	for _, seg := range f.segments {
		if seg.OrderID == orderID && seg.EndedAt == nil {
			out = append(out, *seg)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListSegments(ctx context.Context, orderID uuid.UUID) ([]repository.Segment, error) {
	var out []repository.Segment
	for _, seg := range f.segments {
		if seg.OrderID == orderID {
			out = append(out, *seg)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertDebit(ctx context.Context, params repository.DebitParams) (repository.Debit, error) {
	debit := repository.Debit{
		ID:             uuid.New(),
		OrderID:        params.OrderID,
		CollaboratorID: params.CollaboratorID,
		Reason:         params.Reason,
		Hours:          params.Hours,
		Note:           params.Note,
		DebitedAt:      time.Now(),
	}
	f.debits = append(f.debits, debit)
	return debit, nil
}

func (f *fakeRepo) ListDebits(ctx context.Context, orderID uuid.UUID) ([]repository.Debit, error) {
	var out []repository.Debit
	for _, d := range f.debits {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertJustification(ctx context.Context, params repository.JustificationParams) (uuid.UUID, error) {
	j := &fakeJustification{ID: uuid.New(), Params: params}
	f.justifications = append(f.justifications, j)
	return j.ID, nil
}

func (f *fakeRepo) MarkJustificationNotified(ctx context.Context, id uuid.UUID) error {
	for _, j := range f.justifications {
		if j.ID == id {
			j.Notified = true
			return nil
		}
	}
	return apperr.NotFound("justification not found")
}

func (f *fakeRepo) ListExpiredPauses(ctx context.Context, now time.Time) ([]repository.ExpiredPause, error) {
	return f.expired, nil
}

func (f *fakeRepo) ListAssignments(ctx context.Context, orderID uuid.UUID) ([]repository.Assignment, error) {
	var out []repository.Assignment
	for _, a := range f.assignments {
		if a.OrderID == orderID && a.Active {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertAssignment(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID) (repository.Assignment, error) {
	for _, a := range f.assignments {
		if a.OrderID == orderID && a.CollaboratorID == collaboratorID && scopeKey(a.ProductID) == scopeKey(productID) {
			a.Active = true
			return *a, nil
		}
	}
	a := &repository.Assignment{
		ID:             uuid.New(),
		OrderID:        orderID,
		CollaboratorID: collaboratorID,
		ProductID:      productID,
		Active:         true,
		AssignedAt:     time.Now(),
	}
	f.assignments = append(f.assignments, a)
	return *a, nil
}

func (f *fakeRepo) RemoveAssignments(ctx context.Context, orderID, collaboratorID uuid.UUID) (int64, error) {
	var kept []*repository.Assignment
	removed := int64(0)
	for _, a := range f.assignments {
		if a.OrderID == orderID && a.CollaboratorID == collaboratorID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	f.assignments = kept
	return removed, nil
}

func (f *fakeRepo) SetAdjustedHours(ctx context.Context, orderID, collaboratorID uuid.UUID, productID *uuid.UUID, hours float64) (*float64, error) {
	for _, a := range f.assignments {
		if a.OrderID == orderID && a.CollaboratorID == collaboratorID && scopeKey(a.ProductID) == scopeKey(productID) {
			previous := a.AdjustedHours
			h := hours
			a.AdjustedHours = &h
			return previous, nil
		}
	}
	return nil, apperr.NotAssigned("collaborator is not assigned to this order")
}

func (f *fakeRepo) GetOrder(ctx context.Context, orderID uuid.UUID) (repository.OrderRef, error) {
	if f.order.ID != orderID {
		return repository.OrderRef{}, apperr.NotFound("service order not found")
	}
	return f.order, nil
}

func (f *fakeRepo) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	if f.order.ID != orderID {
		return apperr.NotFound("service order not found")
	}
	f.order.Status = status
	return nil
}

func (f *fakeRepo) MarkStarted(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	if f.order.ID != orderID {
		return apperr.NotFound("service order not found")
	}
	f.order.Status = domain.StatusInProgress
	if f.order.StartedAt == nil {
		started := at
		f.order.StartedAt = &started
	}
	return nil
}

func (f *fakeRepo) MarkFinished(ctx context.Context, orderID uuid.UUID, at time.Time, discountKind string, discountValue float64, appliedCents int64) error {
	if f.order.ID != orderID {
		return apperr.NotFound("service order not found")
	}
	f.order.Status = domain.StatusFinished
	f.order.AppliedDiscountCents = appliedCents
	return nil
}

func (f *fakeRepo) WorkCounts(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]repository.WorkCount, error) {
	counts := make(map[uuid.UUID]repository.WorkCount)
	for _, id := range orderIDs {
		if f.order.ID != id {
			continue
		}
		total := make(map[uuid.UUID]struct{})
		working := make(map[uuid.UUID]struct{})
		for _, a := range f.assignments {
			if a.OrderID == id && a.Active {
				total[a.CollaboratorID] = struct{}{}
			}
		}
		for _, seg := range f.segments {
			if seg.OrderID == id && seg.EndedAt == nil && seg.Kind == domain.SegmentWork {
				working[seg.CollaboratorID] = struct{}{}
			}
		}
		counts[id] = repository.WorkCount{Working: len(working), Total: len(total)}
	}
	return counts, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

type fakeSettings struct{ tolerance int }

func (f fakeSettings) PauseToleranceMinutes(ctx context.Context) int { return f.tolerance }

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *recordingBus) Subscribe(name string, handler events.Handler) {}

type fixture struct {
	svc   *Service
	repo  *fakeRepo
	bus   *recordingBus
	now   time.Time
	order uuid.UUID
}

func newFixture(t *testing.T, status string) *fixture {
	t.Helper()
	orderID := uuid.New()
	repo := &fakeRepo{
		order: repository.OrderRef{
			ID:         orderID,
			Number:     "OS0001",
			Status:     status,
			TotalCents: 100_000,
		},
	}
	bus := &recordingBus{}
	svc := New(repo, fakeSettings{tolerance: 120}, bus, logger.New("development"))

	fx := &fixture{svc: svc, repo: repo, bus: bus, order: orderID}
	fx.now = time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fx.now }
	return fx
}

func (fx *fixture) assign(t *testing.T, productID *uuid.UUID) uuid.UUID {
	t.Helper()
	collaboratorID := uuid.New()
	if _, err := fx.repo.UpsertAssignment(context.Background(), fx.order, collaboratorID, productID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	return collaboratorID
}

func (fx *fixture) advance(d time.Duration) { fx.now = fx.now.Add(d) }

func (fx *fixture) openSegments(t *testing.T) []repository.Segment {
	t.Helper()
	opens, err := fx.repo.ListOpenSegments(context.Background(), fx.order)
	if err != nil {
		t.Fatalf("list open segments: %v", err)
	}
	return opens
}

func TestStartOrderOpensWorkSegmentsForAllAssignments(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	fx.assign(t, nil)
	fx.assign(t, nil)

	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start order: %v", err)
	}

	opens := fx.openSegments(t)
	if len(opens) != 2 {
		t.Fatalf("expected 2 open work segments, got %d", len(opens))
	}
	for _, seg := range opens {
		if seg.Kind != domain.SegmentWork {
			t.Fatalf("expected work segment, got %s", seg.Kind)
		}
	}
	if fx.repo.order.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", fx.repo.order.Status)
	}
	if fx.repo.order.StartedAt == nil || !fx.repo.order.StartedAt.Equal(fx.now) {
		t.Fatal("expected started_at set to the transition instant")
	}
}

func TestStartOrderRequiresAssignments(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	err := fx.svc.StartOrder(context.Background(), fx.order, nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartOrderRejectsFinished(t *testing.T) {
	fx := newFixture(t, domain.StatusFinished)
	fx.assign(t, nil)
	err := fx.svc.StartOrder(context.Background(), fx.order, nil)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPauseOrderClosesWorkAndPersistsPaused(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	first := fx.assign(t, nil)
	second := fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	fx.advance(30 * time.Minute)
	if err := fx.svc.PauseOrder(context.Background(), fx.order, "aguardando liberação", nil); err != nil {
		t.Fatalf("pause: %v", err)
	}

	opens := fx.openSegments(t)
	if len(opens) != 2 {
		t.Fatalf("expected 2 open pause segments, got %d", len(opens))
	}
	for _, seg := range opens {
		if seg.Kind != domain.SegmentPause {
			t.Fatalf("expected pause segment, got %s", seg.Kind)
		}
		if seg.CollaboratorID != first && seg.CollaboratorID != second {
			t.Fatal("pause segment for unknown collaborator")
		}
	}
	if fx.repo.order.Status != domain.StatusPaused {
		t.Fatalf("expected paused, got %s", fx.repo.order.Status)
	}

	if len(fx.repo.justifications) != 1 {
		t.Fatalf("expected 1 justification, got %d", len(fx.repo.justifications))
	}
	j := fx.repo.justifications[0]
	if j.Params.ToleranceMinutes == nil || *j.Params.ToleranceMinutes != 120 {
		t.Fatal("expected the pause tolerance snapshotted on the justification")
	}
}

func TestPauseOrderRequiresReason(t *testing.T) {
	fx := newFixture(t, domain.StatusInProgress)
	fx.assign(t, nil)
	err := fx.svc.PauseOrder(context.Background(), fx.order, "   ", nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank reason, got %v", err)
	}
}

func TestResumeOrderReopensWorkForEveryone(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	fx.assign(t, nil)
	fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	fx.advance(30 * time.Minute)
	if err := fx.svc.PauseOrder(context.Background(), fx.order, "intervalo", nil); err != nil {
		t.Fatalf("pause: %v", err)
	}
	fx.advance(15 * time.Minute)
	if err := fx.svc.ResumeOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("resume: %v", err)
	}

	opens := fx.openSegments(t)
	if len(opens) != 2 {
		t.Fatalf("expected 2 open segments after resume, got %d", len(opens))
	}
	for _, seg := range opens {
		if seg.Kind != domain.SegmentWork {
			t.Fatalf("expected work segment after resume, got %s", seg.Kind)
		}
	}
	if fx.repo.order.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress after resume, got %s", fx.repo.order.Status)
	}
}

func TestPauseCollaboratorLeavesPersistedStatusAlone(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	paused := fx.assign(t, nil)
	fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	fx.advance(10 * time.Minute)
	if err := fx.svc.PauseCollaborator(context.Background(), fx.order, paused, "troca de turno", nil); err != nil {
		t.Fatalf("pause collaborator: %v", err)
	}

	if fx.repo.order.Status != domain.StatusInProgress {
		t.Fatalf("expected persisted status untouched, got %s", fx.repo.order.Status)
	}

	var pauseCount, workCount int
	for _, seg := range fx.openSegments(t) {
		switch seg.Kind {
		case domain.SegmentPause:
			pauseCount++
			if seg.CollaboratorID != paused {
				t.Fatal("pause opened for the wrong collaborator")
			}
		case domain.SegmentWork:
			workCount++
		}
	}
	if pauseCount != 1 || workCount != 1 {
		t.Fatalf("expected 1 pause and 1 work open, got %d/%d", pauseCount, workCount)
	}
}

func TestSuspendCollaboratorRequiresOrderInProgress(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	collaborator := fx.assign(t, nil)

	if err := fx.svc.PauseCollaborator(context.Background(), fx.order, collaborator, "intervalo", nil); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict pausing on an open order, got %v", err)
	}
	if err := fx.svc.StopCollaborator(context.Background(), fx.order, collaborator, "faltou chapa", nil); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict stopping on an open order, got %v", err)
	}
	if opens := fx.openSegments(t); len(opens) != 0 {
		t.Fatalf("expected no segments opened, got %d", len(opens))
	}
}

func TestResumeCollaboratorIsNotRepeatable(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	collaborator := fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	fx.advance(5 * time.Minute)
	if err := fx.svc.PauseCollaborator(context.Background(), fx.order, collaborator, "banheiro", nil); err != nil {
		t.Fatalf("pause collaborator: %v", err)
	}
	fx.advance(5 * time.Minute)
	if err := fx.svc.ResumeCollaborator(context.Background(), fx.order, collaborator, nil); err != nil {
		t.Fatalf("resume collaborator: %v", err)
	}

	// Resuming again must conflict, never open a second work segment.
	err := fx.svc.ResumeCollaborator(context.Background(), fx.order, collaborator, nil)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on double resume, got %v", err)
	}
	open := 0
	for _, seg := range fx.openSegments(t) {
		if seg.CollaboratorID == collaborator {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("expected exactly 1 open segment after double resume, got %d", open)
	}
}

func TestSingleOpenSegmentInvariantEnforced(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	collaborator := fx.assign(t, nil)

	if _, err := fx.repo.OpenSegment(context.Background(), repository.OpenSegmentParams{
		OrderID: fx.order, CollaboratorID: collaborator, Kind: domain.SegmentWork, StartedAt: fx.now,
	}); err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err := fx.repo.OpenSegment(context.Background(), repository.OpenSegmentParams{
		OrderID: fx.order, CollaboratorID: collaborator, Kind: domain.SegmentPause, StartedAt: fx.now,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for second open on same scope, got %v", err)
	}
}

func TestMaterialStopDebitsExactDuration(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	collaborator := fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	fx.advance(time.Hour)
	if err := fx.svc.StopCollaborator(context.Background(), fx.order, collaborator, "faltou chapa", nil); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// 45 minutes of material stop, then resume.
	fx.advance(45 * time.Minute)
	if err := fx.svc.ResumeCollaborator(context.Background(), fx.order, collaborator, nil); err != nil {
		t.Fatalf("resume: %v", err)
	}

	if len(fx.repo.debits) != 1 {
		t.Fatalf("expected exactly 1 rework debit, got %d", len(fx.repo.debits))
	}
	debit := fx.repo.debits[0]
	if debit.Hours != 0.75 {
		t.Fatalf("expected 0.75h debit, got %v", debit.Hours)
	}
	if debit.Reason != "faltou chapa" {
		t.Fatalf("expected the stop reason on the debit, got %q", debit.Reason)
	}
	if debit.CollaboratorID != collaborator {
		t.Fatal("debit attributed to the wrong collaborator")
	}

	var seen bool
	for _, event := range fx.bus.published {
		if e, ok := event.(events.ReworkDebitRecorded); ok {
			seen = true
			if e.Hours != 0.75 {
				t.Fatalf("expected event with 0.75h, got %v", e.Hours)
			}
		}
	}
	if !seen {
		t.Fatal("expected a ReworkDebitRecorded event")
	}
}

func TestFinishOrderClampsDiscountAndClosesEverything(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	fx.advance(2 * time.Hour)

	// 150% discount must clamp to the full total, never beyond.
	if err := fx.svc.FinishOrder(context.Background(), fx.order, "percentage", 150, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if fx.repo.order.Status != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", fx.repo.order.Status)
	}
	if fx.repo.order.AppliedDiscountCents != 100_000 {
		t.Fatalf("expected discount clamped to 100000, got %d", fx.repo.order.AppliedDiscountCents)
	}
	if opens := fx.openSegments(t); len(opens) != 0 {
		t.Fatalf("expected no open segments after finish, got %d", len(opens))
	}
}

func TestFinishOrderRejectsUnknownDiscountKind(t *testing.T) {
	fx := newFixture(t, domain.StatusInProgress)
	err := fx.svc.FinishOrder(context.Background(), fx.order, "coupon", 10, nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFinishOrderClampsNegativeDiscountToZero(t *testing.T) {
	fx := newFixture(t, domain.StatusInProgress)

	// Negative values reach the domain and clamp to zero applied discount.
	if err := fx.svc.FinishOrder(context.Background(), fx.order, "amount", -500, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if fx.repo.order.AppliedDiscountCents != 0 {
		t.Fatalf("expected 0 applied discount, got %d", fx.repo.order.AppliedDiscountCents)
	}
	if fx.repo.order.Status != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", fx.repo.order.Status)
	}
}

func TestFinishCollaboratorWithNothingOpen(t *testing.T) {
	fx := newFixture(t, domain.StatusInProgress)
	collaborator := fx.assign(t, nil)
	err := fx.svc.FinishCollaborator(context.Background(), fx.order, collaborator, nil)
	if !apperr.Is(err, apperr.KindAlreadyClosed) {
		t.Fatalf("expected already-closed error, got %v", err)
	}
}

func TestRemoveCollaboratorClosesTheirSegments(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	leaving := fx.assign(t, nil)
	staying := fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	fx.advance(20 * time.Minute)
	if err := fx.svc.RemoveCollaborator(context.Background(), fx.order, leaving, nil); err != nil {
		t.Fatalf("remove: %v", err)
	}

	for _, seg := range fx.openSegments(t) {
		if seg.CollaboratorID == leaving {
			t.Fatal("expected the removed collaborator's segment closed")
		}
		if seg.CollaboratorID != staying {
			t.Fatal("unexpected open segment")
		}
	}
	assignments, _ := fx.repo.ListAssignments(context.Background(), fx.order)
	if len(assignments) != 1 || assignments[0].CollaboratorID != staying {
		t.Fatal("expected only the staying collaborator assigned")
	}
}

func TestRemoveCollaboratorNotAssigned(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	err := fx.svc.RemoveCollaborator(context.Background(), fx.order, uuid.New(), nil)
	if !apperr.Is(err, apperr.KindNotAssigned) {
		t.Fatalf("expected not-assigned error, got %v", err)
	}
}

func TestAdjustHoursRecordsPreviousAndRequiresJustification(t *testing.T) {
	fx := newFixture(t, domain.StatusInProgress)
	collaborator := fx.assign(t, nil)

	err := fx.svc.AdjustHours(context.Background(), fx.order, collaborator, nil, 5, "", nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without justification, got %v", err)
	}

	if err := fx.svc.AdjustHours(context.Background(), fx.order, collaborator, nil, 5, "horas lançadas errado", nil); err != nil {
		t.Fatalf("first adjust: %v", err)
	}
	if err := fx.svc.AdjustHours(context.Background(), fx.order, collaborator, nil, 6.5, "correção", nil); err != nil {
		t.Fatalf("second adjust: %v", err)
	}

	var last events.HoursAdjusted
	found := false
	for _, event := range fx.bus.published {
		if e, ok := event.(events.HoursAdjusted); ok {
			last = e
			found = true
		}
	}
	if !found {
		t.Fatal("expected HoursAdjusted events")
	}
	if last.PreviousHours == nil || *last.PreviousHours != 5 {
		t.Fatalf("expected previous hours 5 on the second adjustment, got %v", last.PreviousHours)
	}
	if last.NewHours != 6.5 {
		t.Fatalf("expected new hours 6.5, got %v", last.NewHours)
	}
}

func TestSendToClientRoundTrip(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)

	if err := fx.svc.SendToClient(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if fx.repo.order.Status != domain.StatusAtClient {
		t.Fatalf("expected at_client, got %s", fx.repo.order.Status)
	}

	// Only open orders can go out; at_client cannot be re-sent.
	if err := fx.svc.SendToClient(context.Background(), fx.order, nil); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict re-sending, got %v", err)
	}

	if err := fx.svc.ReturnFromClient(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("return: %v", err)
	}
	if fx.repo.order.Status != domain.StatusOpen {
		t.Fatalf("expected open after return, got %s", fx.repo.order.Status)
	}
}

func TestStartCollaboratorOnProductScopesTheSegment(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	collaborator := fx.assign(t, nil)
	productID := uuid.New()

	if err := fx.svc.StartCollaboratorOnProduct(context.Background(), fx.order, collaborator, productID, nil); err != nil {
		t.Fatalf("start on product: %v", err)
	}

	opens := fx.openSegments(t)
	if len(opens) != 1 {
		t.Fatalf("expected 1 open segment, got %d", len(opens))
	}
	if opens[0].ProductID == nil || *opens[0].ProductID != productID {
		t.Fatal("expected the segment scoped to the product")
	}
	if fx.repo.order.Status != domain.StatusInProgress {
		t.Fatalf("expected the never-started order moved to in_progress, got %s", fx.repo.order.Status)
	}
}

func TestSweepExpiredPausesResumesOrders(t *testing.T) {
	fx := newFixture(t, domain.StatusOpen)
	collaborator := fx.assign(t, nil)
	if err := fx.svc.StartOrder(context.Background(), fx.order, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	fx.advance(10 * time.Minute)
	if err := fx.svc.PauseOrder(context.Background(), fx.order, "almoço", nil); err != nil {
		t.Fatalf("pause: %v", err)
	}

	justification := fx.repo.justifications[len(fx.repo.justifications)-1]
	pause, err := fx.repo.FindOpenSegment(context.Background(), fx.order, collaborator, nil)
	if err != nil {
		t.Fatalf("find pause: %v", err)
	}
	fx.repo.expired = []repository.ExpiredPause{{
		SegmentID:        pause.ID,
		OrderID:          fx.order,
		CollaboratorID:   collaborator,
		JustificationID:  justification.ID,
		StartedAt:        pause.StartedAt,
		ToleranceMinutes: 120,
	}}

	fx.advance(3 * time.Hour)
	resumed, err := fx.svc.SweepExpiredPauses(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if resumed != 1 {
		t.Fatalf("expected 1 order resumed, got %d", resumed)
	}
	if !justification.Notified {
		t.Fatal("expected the justification marked notified")
	}
	if fx.repo.order.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress after sweep, got %s", fx.repo.order.Status)
	}
	opens := fx.openSegments(t)
	if len(opens) != 1 || opens[0].Kind != domain.SegmentWork {
		t.Fatal("expected a fresh open work segment after sweep")
	}
}
