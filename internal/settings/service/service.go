// Package service implements business logic for the settings module.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/settings/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/apperr"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"

	"github.com/google/uuid"
)

// Well-known setting keys. Seeded by migrations; always readable through the
// typed getters below, which fall back to defaults when a row is missing.
const (
	KeyOrderNumberPrefix     = "order_number_prefix"
	KeyPauseToleranceMinutes = "pause_tolerance_minutes"
	KeyExpectedHoursWeekday  = "expected_hours_weekday"
	KeyExpectedHoursSaturday = "expected_hours_saturday"
	KeyExpectedHoursSunday   = "expected_hours_sunday"
)

const (
	defaultOrderNumberPrefix     = "OS"
	defaultPauseToleranceMinutes = 120
	defaultHoursWeekday          = 8.0
	defaultHoursSaturday         = 4.0
	defaultHoursSunday           = 0.0
)

// Service provides typed access to business settings.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new settings service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// List returns all settings.
func (s *Service) List(ctx context.Context) ([]repository.Setting, error) {
	return s.repo.List(ctx)
}

// Get returns a single setting by key.
func (s *Service) Get(ctx context.Context, key string) (repository.Setting, error) {
	return s.repo.Get(ctx, key)
}

// Upsert stores a setting and publishes a SettingUpdated event.
func (s *Service) Upsert(ctx context.Context, key, value string, description *string, performedBy *uuid.UUID) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperr.Validation("setting key is required")
	}
	if err := validateKnownKey(key, value); err != nil {
		return err
	}

	previous, err := s.repo.Upsert(ctx, key, value, description)
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.SettingUpdated{
		BaseEvent:   events.NewBaseEvent(),
		Key:         key,
		OldValue:    previous,
		NewValue:    value,
		PerformedBy: performedBy,
	})
	return nil
}

// OrderNumberPrefix returns the prefix used when issuing order numbers.
func (s *Service) OrderNumberPrefix(ctx context.Context) string {
	return s.stringValue(ctx, KeyOrderNumberPrefix, defaultOrderNumberPrefix)
}

// PauseTolerance returns how long a pause may stay open before the
// watchdog steps in.
func (s *Service) PauseTolerance(ctx context.Context) time.Duration {
	minutes := s.intValue(ctx, KeyPauseToleranceMinutes, defaultPauseToleranceMinutes)
	return time.Duration(minutes) * time.Minute
}

// PauseToleranceMinutes returns the raw tolerance in minutes, as snapshotted
// onto justifications.
func (s *Service) PauseToleranceMinutes(ctx context.Context) int {
	return s.intValue(ctx, KeyPauseToleranceMinutes, defaultPauseToleranceMinutes)
}

// ExpectedHoursFor returns the expected working hours for the given date's
// weekday. Used only to pre-fill an order's predicted duration.
func (s *Service) ExpectedHoursFor(ctx context.Context, day time.Weekday) float64 {
	switch day {
	case time.Saturday:
		return s.floatValue(ctx, KeyExpectedHoursSaturday, defaultHoursSaturday)
	case time.Sunday:
		return s.floatValue(ctx, KeyExpectedHoursSunday, defaultHoursSunday)
	default:
		return s.floatValue(ctx, KeyExpectedHoursWeekday, defaultHoursWeekday)
	}
}

func (s *Service) stringValue(ctx context.Context, key, fallback string) string {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			s.log.DatabaseError("get setting "+key, err)
		}
		return fallback
	}
	if strings.TrimSpace(setting.Value) == "" {
		return fallback
	}
	return setting.Value
}

func (s *Service) intValue(ctx context.Context, key string, fallback int) int {
	raw := s.stringValue(ctx, key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func (s *Service) floatValue(ctx context.Context, key string, fallback float64) float64 {
	raw := s.stringValue(ctx, key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func validateKnownKey(key, value string) error {
	switch key {
	case KeyPauseToleranceMinutes:
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err != nil || parsed < 0 {
			return apperr.Validation("pause tolerance must be a non-negative integer of minutes")
		}
	case KeyExpectedHoursWeekday, KeyExpectedHoursSaturday, KeyExpectedHoursSunday:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil || parsed < 0 || parsed > 24 {
			return apperr.Validation("expected hours must be between 0 and 24")
		}
	case KeyOrderNumberPrefix:
		if strings.TrimSpace(value) == "" {
			return apperr.Validation("order number prefix cannot be empty")
		}
	}
	return nil
}
