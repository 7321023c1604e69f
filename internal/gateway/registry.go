// Operator-facing WebSocket gateway: connection registry, message
// processor, and HTTP server.
package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"droneops-gateway/internal/event"
)

// EventSource is the slice of the event bus the registry needs.
type EventSource interface {
	SubscribeBroadcast(func(event.Event))
	SubscribeConnection(func(event.Event))
}

// conn wraps an operator socket with a write lock; gorilla connections do
// not support concurrent writers.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Registry tracks live operator connections and delivers events to them:
// broadcast events to every connection, connection-scoped events to their
// one target. Send failures mark a connection dead; dead connections are
// pruned after the delivery pass completes.
type Registry struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[uuid.UUID]*conn
}

// NewRegistry creates a registry subscribed to the outbound event
// categories.
func NewRegistry(src EventSource, log *slog.Logger) *Registry {
	r := &Registry{
		log:   log,
		conns: make(map[uuid.UUID]*conn),
	}
	src.SubscribeBroadcast(r.handleBroadcast)
	src.SubscribeConnection(r.handleConnectionScoped)
	return r
}

// AddClient registers a newly accepted operator socket and returns its
// connection id.
func (r *Registry) AddClient(ws *websocket.Conn) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.conns[id] = &conn{ws: ws}
	r.mu.Unlock()
	r.log.Info("operator connected", "connectionId", id)
	return id
}

// RemoveClient closes and forgets a connection. Removing an id that is
// already gone is a no-op.
func (r *Registry) RemoveClient(id uuid.UUID) {
	r.mu.Lock()
	c, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	c.ws.Close()
	r.log.Info("operator disconnected", "connectionId", id)
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Registry) handleBroadcast(evt event.Event) {
	data, err := json.Marshal(event.NewEnvelope(evt))
	if err != nil {
		r.log.Warn("serializing event envelope", "eventType", evt.Kind(), "error", err)
		return
	}

	// Snapshot so sends happen outside the registry lock.
	r.mu.Lock()
	targets := make(map[uuid.UUID]*conn, len(r.conns))
	for id, c := range r.conns {
		targets[id] = c
	}
	r.mu.Unlock()

	var dead []uuid.UUID
	for id, c := range targets {
		if err := c.send(data); err != nil {
			r.log.Warn("broadcast send failed", "connectionId", id, "error", err)
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		r.RemoveClient(id)
	}
}

func (r *Registry) handleConnectionScoped(evt event.Event) {
	scoped, ok := evt.(event.ConnectionScoped)
	if !ok {
		return
	}

	r.mu.Lock()
	c, ok := r.conns[scoped.Target()]
	r.mu.Unlock()
	if !ok {
		// Target already gone; drop silently.
		return
	}

	data, err := json.Marshal(event.NewEnvelope(evt))
	if err != nil {
		r.log.Warn("serializing event envelope", "eventType", evt.Kind(), "error", err)
		return
	}
	if err := c.send(data); err != nil {
		r.log.Warn("targeted send failed", "connectionId", scoped.Target(), "error", err)
		r.RemoveClient(scoped.Target())
	}
}
