package store

import (
	"log/slog"
	"sync"

	"droneops-gateway/internal/event"
	"droneops-gateway/internal/policy"
)

// Subscriber is the slice of the event bus the history writer needs.
type Subscriber interface {
	Subscribe(event.Kind, func(event.Event))
}

// HistoryWriter listens on the event bus and persists what matters:
// telemetry samples that pass the delta thresholds, plus every
// lifecycle and command event. Write failures are logged and do not
// stop the stream.
type HistoryWriter struct {
	writer     RowWriter
	thresholds policy.Thresholds
	log        *slog.Logger

	mu   sync.Mutex
	last map[string]*policy.State
}

// NewHistoryWriter creates a history writer subscribed to all persisted
// event kinds.
func NewHistoryWriter(src Subscriber, writer RowWriter, thresholds policy.Thresholds, log *slog.Logger) *HistoryWriter {
	h := &HistoryWriter{
		writer:     writer,
		thresholds: thresholds,
		log:        log,
		last:       make(map[string]*policy.State),
	}
	src.Subscribe(event.KindDroneTelemetryReceived, h.handleTelemetry)
	src.Subscribe(event.KindDroneConnected, h.handleLifecycle)
	src.Subscribe(event.KindDroneDisconnected, h.handleLifecycle)
	src.Subscribe(event.KindCommandReceived, h.handleCommand)
	src.Subscribe(event.KindCommandStatusChanged, h.handleCommandStatus)
	return h
}

func (h *HistoryWriter) handleTelemetry(evt event.Event) {
	e, ok := evt.(event.DroneTelemetryReceived)
	if !ok {
		return
	}

	h.mu.Lock()
	prev := h.last[e.Telemetry.ID]
	persist := h.thresholds.ShouldPersist(e.Telemetry, prev, e.Time)
	if persist {
		h.last[e.Telemetry.ID] = &policy.State{
			LastPersisted:   e.Telemetry,
			LastPersistedAt: e.Time,
		}
	}
	h.mu.Unlock()

	if !persist {
		return
	}
	if err := h.writer.WriteTelemetry(NewTelemetryRow(e.Telemetry, e.Time)); err != nil {
		h.log.Warn("persisting telemetry row", "droneId", e.Telemetry.ID, "error", err)
	}
}

func (h *HistoryWriter) handleLifecycle(evt event.Event) {
	row := EventRow{
		EventType: string(evt.Kind()),
		Timestamp: evt.At(),
	}
	switch e := evt.(type) {
	case event.DroneConnected:
		row.DroneID = e.Telemetry.ID
		row.Detail = e.Telemetry.Model
	case event.DroneDisconnected:
		row.DroneID = e.DroneID
		// The drone may come back with very different telemetry; the
		// next sample after reconnect always persists.
		h.mu.Lock()
		delete(h.last, e.DroneID)
		h.mu.Unlock()
	default:
		return
	}

	if err := h.writer.WriteEvent(row); err != nil {
		h.log.Warn("persisting event row", "eventType", row.EventType, "error", err)
	}
}

func (h *HistoryWriter) handleCommand(evt event.Event) {
	e, ok := evt.(event.CommandReceived)
	if !ok {
		return
	}
	row := EventRow{
		EventType:    string(e.Kind()),
		DroneID:      e.DroneID,
		ConnectionID: e.ConnectionID.String(),
		Detail:       e.Command.Name(),
		Timestamp:    e.Time,
	}
	if err := h.writer.WriteEvent(row); err != nil {
		h.log.Warn("persisting event row", "eventType", row.EventType, "error", err)
	}
}

func (h *HistoryWriter) handleCommandStatus(evt event.Event) {
	e, ok := evt.(event.CommandStatusChanged)
	if !ok {
		return
	}
	row := EventRow{
		EventType:    string(e.Kind()),
		DroneID:      e.Status.DroneID,
		ConnectionID: e.Status.ConnectionID.String(),
		Detail:       e.Status.State,
		Timestamp:    e.Time,
	}
	if err := h.writer.WriteEvent(row); err != nil {
		h.log.Warn("persisting event row", "eventType", row.EventType, "error", err)
	}
}
