// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Orders Domain Events
// =============================================================================

// OrderCreated is published when a new service order is registered.
type OrderCreated struct {
	BaseEvent
	OrderID     uuid.UUID  `json:"orderId"`
	OrderNumber string     `json:"orderNumber"`
	ClientID    uuid.UUID  `json:"clientId"`
	PerformedBy *uuid.UUID `json:"performedBy,omitempty"`
}

func (e OrderCreated) EventName() string { return "orders.created" }

// OrderUpdated is published when an order's header or product lines change.
type OrderUpdated struct {
	BaseEvent
	OrderID     uuid.UUID  `json:"orderId"`
	OrderNumber string     `json:"orderNumber"`
	Detail      string     `json:"detail,omitempty"`
	PerformedBy *uuid.UUID `json:"performedBy,omitempty"`
}

func (e OrderUpdated) EventName() string { return "orders.updated" }

// =============================================================================
// Execution Domain Events
// =============================================================================

// TransitionApplied is published after every execution transition commits.
// The audit sink consumes it; failures there never affect the transition.
type TransitionApplied struct {
	BaseEvent
	Action         string     `json:"action"`
	OrderID        uuid.UUID  `json:"orderId"`
	OrderNumber    string     `json:"orderNumber"`
	CollaboratorID *uuid.UUID `json:"collaboratorId,omitempty"`
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	BeforeStatus   string     `json:"beforeStatus"`
	AfterStatus    string     `json:"afterStatus"`
	Reason         string     `json:"reason,omitempty"`
	PerformedBy    *uuid.UUID `json:"performedBy,omitempty"`
}

func (e TransitionApplied) EventName() string { return "execution.transition.applied" }

// ReworkDebitRecorded is published when a closed material stop produces a debit.
type ReworkDebitRecorded struct {
	BaseEvent
	OrderID        uuid.UUID `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	CollaboratorID uuid.UUID `json:"collaboratorId"`
	Hours          float64   `json:"hours"`
	Reason         string    `json:"reason"`
}

func (e ReworkDebitRecorded) EventName() string { return "execution.rework.debited" }

// HoursAdjusted is published when an assignment's worked hours are overridden.
type HoursAdjusted struct {
	BaseEvent
	OrderID        uuid.UUID  `json:"orderId"`
	OrderNumber    string     `json:"orderNumber"`
	CollaboratorID uuid.UUID  `json:"collaboratorId"`
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	PreviousHours  *float64   `json:"previousHours,omitempty"`
	NewHours       float64    `json:"newHours"`
	Justification  string     `json:"justification"`
	PerformedBy    *uuid.UUID `json:"performedBy,omitempty"`
}

func (e HoursAdjusted) EventName() string { return "execution.hours.adjusted" }

// =============================================================================
// Settings Domain Events
// =============================================================================

// SettingUpdated is published when a business setting is upserted.
type SettingUpdated struct {
	BaseEvent
	Key         string     `json:"key"`
	OldValue    *string    `json:"oldValue,omitempty"`
	NewValue    string     `json:"newValue"`
	PerformedBy *uuid.UUID `json:"performedBy,omitempty"`
}

func (e SettingUpdated) EventName() string { return "settings.updated" }
