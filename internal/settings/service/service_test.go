package service

import (
	"context"
	"testing"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
)

type fakeRepo struct {
	values map[string]string
}

func (f *fakeRepo) Get(ctx context.Context, key string) (repository.Setting, error) {
	value, ok := f.values[key]
	if !ok {
		return repository.Setting{}, apperr.NotFound("setting not found")
	}
	return repository.Setting{Key: key, Value: value}, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]repository.Setting, error) {
	var out []repository.Setting
	for key, value := range f.values {
		out = append(out, repository.Setting{Key: key, Value: value})
	}
	return out, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, key, value string, description *string) (*string, error) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	var previous *string
	if old, ok := f.values[key]; ok {
		previous = &old
	}
	f.values[key] = value
	return previous, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

type nopBus struct{}

func (nopBus) Publish(ctx context.Context, event events.Event) {}
func (nopBus) PublishSync(ctx context.Context, event events.Event) error { return nil }
func (nopBus) Subscribe(name string, handler events.Handler) {}

func newService(values map[string]string) *Service {
	return New(&fakeRepo{values: values}, nopBus{}, logger.New("development"))
}

func TestTypedGettersFallBackToDefaults(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	if got := svc.OrderNumberPrefix(ctx); got != "OS" {
		t.Fatalf("expected default prefix OS, got %q", got)
	}
	if got := svc.PauseToleranceMinutes(ctx); got != 120 {
		t.Fatalf("expected default tolerance 120, got %d", got)
	}
	if got := svc.PauseTolerance(ctx); got != 2*time.Hour {
		t.Fatalf("expected 2h tolerance, got %v", got)
	}
	if got := svc.ExpectedHoursFor(ctx, time.Wednesday); got != 8 {
		t.Fatalf("expected 8 weekday hours, got %v", got)
	}
	if got := svc.ExpectedHoursFor(ctx, time.Saturday); got != 4 {
		t.Fatalf("expected 4 saturday hours, got %v", got)
	}
	if got := svc.ExpectedHoursFor(ctx, time.Sunday); got != 0 {
		t.Fatalf("expected 0 sunday hours, got %v", got)
	}
}

func TestTypedGettersReadStoredValues(t *testing.T) {
	svc := newService(map[string]string{
		KeyOrderNumberPrefix:     "FAB",
		KeyPauseToleranceMinutes: "90",
		KeyExpectedHoursSaturday: "6.5",
	})
	ctx := context.Background()

	if got := svc.OrderNumberPrefix(ctx); got != "FAB" {
		t.Fatalf("expected FAB, got %q", got)
	}
	if got := svc.PauseToleranceMinutes(ctx); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	if got := svc.ExpectedHoursFor(ctx, time.Saturday); got != 6.5 {
		t.Fatalf("expected 6.5, got %v", got)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	svc := newService(map[string]string{
		KeyPauseToleranceMinutes: "soon",
		KeyExpectedHoursWeekday:  "-3",
	})
	ctx := context.Background()

	if got := svc.PauseToleranceMinutes(ctx); got != 120 {
		t.Fatalf("expected fallback 120 for unparseable value, got %d", got)
	}
	if got := svc.ExpectedHoursFor(ctx, time.Monday); got != 8 {
		t.Fatalf("expected fallback 8 for negative value, got %v", got)
	}
}

func TestUpsertValidatesKnownKeys(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"tolerance not a number", KeyPauseToleranceMinutes, "two hours"},
		{"negative tolerance", KeyPauseToleranceMinutes, "-30"},
		{"hours above a day", KeyExpectedHoursWeekday, "25"},
		{"empty prefix", KeyOrderNumberPrefix, "   "},
		{"blank key", "", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Upsert(ctx, tc.key, tc.value, nil, nil)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if err := svc.Upsert(ctx, KeyPauseToleranceMinutes, "45", nil, nil); err != nil {
		t.Fatalf("expected valid upsert to succeed, got %v", err)
	}
	if got := svc.PauseToleranceMinutes(ctx); got != 45 {
		t.Fatalf("expected 45 after upsert, got %d", got)
	}
}

func TestUnknownKeysPassThrough(t *testing.T) {
	svc := newService(nil)
	if err := svc.Upsert(context.Background(), "company_motto", "medir duas vezes", nil, nil); err != nil {
		t.Fatalf("expected free-form key to be accepted, got %v", err)
	}
}
