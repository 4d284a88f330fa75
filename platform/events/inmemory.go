package events

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// InMemoryBus is a process-local Bus implementation. Handlers registered
// via Subscribe run in-process; Publish dispatches asynchronously and
// PublishSync waits for every handler, collecting the first error.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	onError  func(eventName string, err error)
}

// Compile-time interface check.
var _ Bus = (*InMemoryBus)(nil)

// NewInMemoryBus creates an in-memory event bus. onError is invoked for
// handler failures during async Publish; it may be nil.
func NewInMemoryBus(onError func(eventName string, err error)) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		onError:  onError,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers without waiting.
// Handler errors are reported through the onError callback.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, h := range b.snapshot(event.EventName()) {
		go func(h Handler) {
			if err := h.Handle(context.WithoutCancel(ctx), event); err != nil && b.onError != nil {
				b.onError(event.EventName(), err)
			}
		}(h)
	}
}

// PublishSync dispatches the event and waits for all handlers to finish.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range b.snapshot(event.EventName()) {
		h := h
		g.Go(func() error {
			return h.Handle(gctx, event)
		})
	}
	return g.Wait()
}

func (b *InMemoryBus) snapshot(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, len(b.handlers[eventName]))
	copy(out, b.handlers[eventName])
	return out
}
