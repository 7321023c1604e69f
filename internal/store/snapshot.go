package store

import (
	"sort"
	"sync"

	"droneops-gateway/internal/event"
	"droneops-gateway/internal/telemetry"
)

// SnapshotTracker keeps the latest telemetry per connected drone for the
// status API. Unlike the history writer it is not threshold-gated; every
// sample replaces the previous one.
type SnapshotTracker struct {
	mu     sync.Mutex
	latest map[string]telemetry.Telemetry
}

// NewSnapshotTracker creates a tracker subscribed to telemetry and
// disconnect events.
func NewSnapshotTracker(src Subscriber) *SnapshotTracker {
	t := &SnapshotTracker{latest: make(map[string]telemetry.Telemetry)}
	src.Subscribe(event.KindDroneTelemetryReceived, t.handleTelemetry)
	src.Subscribe(event.KindDroneDisconnected, t.handleDisconnect)
	return t
}

func (t *SnapshotTracker) handleTelemetry(evt event.Event) {
	e, ok := evt.(event.DroneTelemetryReceived)
	if !ok {
		return
	}
	t.mu.Lock()
	t.latest[e.Telemetry.ID] = e.Telemetry
	t.mu.Unlock()
}

func (t *SnapshotTracker) handleDisconnect(evt event.Event) {
	e, ok := evt.(event.DroneDisconnected)
	if !ok {
		return
	}
	t.mu.Lock()
	delete(t.latest, e.DroneID)
	t.mu.Unlock()
}

// Snapshot returns the latest telemetry of every connected drone, sorted
// by drone id for stable output.
func (t *SnapshotTracker) Snapshot() []telemetry.Telemetry {
	t.mu.Lock()
	out := make([]telemetry.Telemetry, 0, len(t.latest))
	for _, tel := range t.latest {
		out = append(out, tel)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
