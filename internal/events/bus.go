// Package events re-exports the platform event bus for convenience.
// This allows internal modules to import events from internal/events
// while the implementation lives in platform/events.
package events

import (
	platformevents "github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/events"
	"github.com/Joerbeth-CyberSecurity/MetalmaOS-sub000/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus whose async handler
// failures are logged rather than surfaced to publishers.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(func(eventName string, err error) {
		log.Error("event handler failed", "event", eventName, "error", err)
	})
}
