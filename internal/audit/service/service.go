// Package service turns domain events into immutable audit trail entries.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/audit/repository"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/internal/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
)

// Service records domain events in the audit trail. It only ever consumes
// the bus; audit failures are logged and never surface to the publisher.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new audit service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RegisterHandlers subscribes the audit sink to every auditable event.
func (s *Service) RegisterHandlers(bus events.Bus) {
	for _, name := range []string{
		events.OrderCreated{}.EventName(),
		events.OrderUpdated{}.EventName(),
		events.TransitionApplied{}.EventName(),
		events.ReworkDebitRecorded{}.EventName(),
		events.HoursAdjusted{}.EventName(),
		events.SettingUpdated{}.EventName(),
	} {
		bus.Subscribe(name, events.HandlerFunc(s.handle))
	}
}

// List exposes the audit trail for reads.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Entry, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) handle(ctx context.Context, event events.Event) error {
	params, err := entryFor(event)
	if err != nil {
		return err
	}
	return s.repo.Insert(ctx, params)
}

func entryFor(event events.Event) (repository.InsertParams, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return repository.InsertParams{}, fmt.Errorf("marshal audit payload: %w", err)
	}

	params := repository.InsertParams{
		Action: event.EventName(),
		After:  payload,
	}

	switch e := event.(type) {
	case events.OrderCreated:
		params.OrderID = &e.OrderID
		params.OrderNumber = e.OrderNumber
		params.PerformedBy = e.PerformedBy
	case events.OrderUpdated:
		params.OrderID = &e.OrderID
		params.OrderNumber = e.OrderNumber
		params.PerformedBy = e.PerformedBy
		if e.Detail != "" {
			params.Detail = &e.Detail
		}
	case events.TransitionApplied:
		params.Action = e.Action
		params.OrderID = &e.OrderID
		params.OrderNumber = e.OrderNumber
		params.PerformedBy = e.PerformedBy
		before, err := json.Marshal(map[string]string{"status": e.BeforeStatus})
		if err != nil {
			return repository.InsertParams{}, fmt.Errorf("marshal audit payload: %w", err)
		}
		params.Before = before
		if e.Reason != "" {
			params.Detail = &e.Reason
		}
	case events.ReworkDebitRecorded:
		params.OrderID = &e.OrderID
		params.OrderNumber = e.OrderNumber
		params.Detail = &e.Reason
	case events.HoursAdjusted:
		params.OrderID = &e.OrderID
		params.OrderNumber = e.OrderNumber
		params.PerformedBy = e.PerformedBy
		params.Detail = &e.Justification
	case events.SettingUpdated:
		params.PerformedBy = e.PerformedBy
		params.Detail = &e.Key
	}

	return params, nil
}
