package session

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"droneops-gateway/internal/event"
	"droneops-gateway/internal/telemetry"
)

// recordingPublisher captures published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(e event.Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) kinds() []event.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind()
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestManager(pub Publisher, timeout time.Duration) *Manager {
	return NewManager(pub, testLogger(), timeout, time.Second)
}

func TestFirstTelemetryPublishesConnectedThenTelemetry(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub, 5*time.Second)

	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})

	kinds := pub.kinds()
	if len(kinds) != 2 || kinds[0] != event.KindDroneConnected || kinds[1] != event.KindDroneTelemetryReceived {
		t.Fatalf("unexpected event order %v", kinds)
	}
}

func TestSubsequentTelemetryOnlyPublishesTelemetry(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub, 5*time.Second)

	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})
	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})
	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})

	connected := 0
	for _, k := range pub.kinds() {
		if k == event.KindDroneConnected {
			connected++
		}
	}
	if connected != 1 {
		t.Fatalf("expected exactly one DroneConnected, got %d", connected)
	}
}

func TestConnectedEventCarriesTriggeringTelemetry(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub, 5*time.Second)

	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01", BatteryLevel: 42})

	evt, ok := pub.events[0].(event.DroneConnected)
	if !ok {
		t.Fatalf("expected DroneConnected, got %T", pub.events[0])
	}
	if evt.Telemetry.BatteryLevel != 42 {
		t.Fatalf("connected event lost its telemetry: %+v", evt.Telemetry)
	}
}

func TestSweepExpiresSilentDroneOnce(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub, 5*time.Second)

	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})

	now := time.Now().UTC()
	m.Sweep(now.Add(6 * time.Second))
	m.Sweep(now.Add(7 * time.Second))

	disconnected := 0
	for _, k := range pub.kinds() {
		if k == event.KindDroneDisconnected {
			disconnected++
		}
	}
	if disconnected != 1 {
		t.Fatalf("expected exactly one DroneDisconnected, got %d", disconnected)
	}
	if len(m.Connected()) != 0 {
		t.Fatalf("session should be removed")
	}
}

func TestSweepKeepsRecentDrone(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub, 5*time.Second)

	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})
	m.Sweep(time.Now().UTC().Add(3 * time.Second))

	for _, k := range pub.kinds() {
		if k == event.KindDroneDisconnected {
			t.Fatalf("recent drone must not be expired")
		}
	}
	if len(m.Connected()) != 1 {
		t.Fatalf("session should survive the sweep")
	}
}

func TestReconnectAfterExpiryPublishesConnectedAgain(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub, 5*time.Second)

	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})
	m.Sweep(time.Now().UTC().Add(10 * time.Second))
	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})

	kinds := pub.kinds()
	want := []event.Kind{
		event.KindDroneConnected,
		event.KindDroneTelemetryReceived,
		event.KindDroneDisconnected,
		event.KindDroneConnected,
		event.KindDroneTelemetryReceived,
	}
	if len(kinds) != len(want) {
		t.Fatalf("unexpected events %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestConnectedSnapshot(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub, 5*time.Second)

	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-01"})
	m.ProcessTelemetry(telemetry.Telemetry{ID: "drone-02"})

	sessions := m.Connected()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	for _, s := range sessions {
		if s.LastSeen.IsZero() {
			t.Fatalf("session %s missing last seen", s.DroneID)
		}
	}
}
