// In-memory publish/subscribe hub for gateway events.
package bus

import (
	"log/slog"
	"sync"

	"droneops-gateway/internal/event"
)

// Handler consumes one event. Handlers run on their own goroutine per
// delivery and must tolerate concurrent invocations.
type Handler func(event.Event)

// Bus routes events to handlers keyed by event kind or by category.
// Delivery is fire-and-forget and at-most-once: Publish never blocks on
// handler completion, a panicking handler is isolated and logged, and
// handlers registered after a Publish call has dispatched do not see that
// event. Subscriptions last for the life of the process; there is no
// unsubscribe.
type Bus struct {
	log *slog.Logger

	mu         sync.RWMutex
	byKind     map[event.Kind][]Handler
	broadcast  []Handler
	connection []Handler
	all        []Handler
}

// New returns an empty bus.
func New(log *slog.Logger) *Bus {
	return &Bus{
		log:    log,
		byKind: make(map[event.Kind][]Handler),
	}
}

// Subscribe registers a handler for one event kind. Multiple handlers per
// kind are allowed and invoked in no guaranteed order.
func (b *Bus) Subscribe(kind event.Kind, h func(event.Event)) {
	b.mu.Lock()
	b.byKind[kind] = append(b.byKind[kind], h)
	b.mu.Unlock()
}

// SubscribeBroadcast registers a handler for every broadcastable event,
// regardless of kind.
func (b *Bus) SubscribeBroadcast(h func(event.Event)) {
	b.mu.Lock()
	b.broadcast = append(b.broadcast, h)
	b.mu.Unlock()
}

// SubscribeConnection registers a handler for every connection-scoped
// event.
func (b *Bus) SubscribeConnection(h func(event.Event)) {
	b.mu.Lock()
	b.connection = append(b.connection, h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every event published.
func (b *Bus) SubscribeAll(h func(event.Event)) {
	b.mu.Lock()
	b.all = append(b.all, h)
	b.mu.Unlock()
}

// Publish dispatches evt to the handler snapshot taken at call time: the
// handlers registered for its exact kind plus every category the event
// satisfies. Each handler runs on its own goroutine.
func (b *Bus) Publish(evt event.Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byKind[evt.Kind()])+len(b.all)+len(b.broadcast))
	handlers = append(handlers, b.byKind[evt.Kind()]...)
	handlers = append(handlers, b.all...)
	if _, ok := evt.(event.Broadcaster); ok {
		handlers = append(handlers, b.broadcast...)
	}
	if _, ok := evt.(event.ConnectionScoped); ok {
		handlers = append(handlers, b.connection...)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		go b.invoke(h, evt)
	}
}

// invoke runs a single handler inside its own panic boundary.
func (b *Bus) invoke(h Handler, evt event.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				"eventType", evt.Kind(), "panic", r)
		}
	}()
	h(evt)
}
