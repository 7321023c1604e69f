package bus

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"droneops-gateway/internal/event"
	"droneops-gateway/internal/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func waitFor(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
		return nil
	}
}

func expectSilence(t *testing.T, ch <-chan event.Event) {
	t.Helper()
	select {
	case evt := <-ch:
		t.Fatalf("unexpected delivery: %v", evt.Kind())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeByKind(t *testing.T) {
	b := New(testLogger())
	got := make(chan event.Event, 1)
	b.Subscribe(event.KindDroneConnected, func(e event.Event) { got <- e })

	b.Publish(event.DroneConnected{Telemetry: telemetry.Telemetry{ID: "drone-01"}, Time: time.Now()})

	evt := waitFor(t, got)
	if evt.Kind() != event.KindDroneConnected {
		t.Fatalf("wrong kind %s", evt.Kind())
	}
}

func TestUnrelatedKindNotDelivered(t *testing.T) {
	b := New(testLogger())
	got := make(chan event.Event, 1)
	b.Subscribe(event.KindDroneDisconnected, func(e event.Event) { got <- e })

	b.Publish(event.DroneConnected{Time: time.Now()})
	expectSilence(t, got)
}

func TestBroadcastCategory(t *testing.T) {
	b := New(testLogger())
	got := make(chan event.Event, 2)
	b.SubscribeBroadcast(func(e event.Event) { got <- e })

	// Telemetry broadcasts; a command does not.
	b.Publish(event.DroneTelemetryReceived{Time: time.Now()})
	if evt := waitFor(t, got); evt.Kind() != event.KindDroneTelemetryReceived {
		t.Fatalf("wrong kind %s", evt.Kind())
	}

	b.Publish(event.CommandReceived{ConnectionID: uuid.New(), Time: time.Now()})
	expectSilence(t, got)
}

func TestConnectionCategory(t *testing.T) {
	b := New(testLogger())
	got := make(chan event.Event, 1)
	b.SubscribeConnection(func(e event.Event) { got <- e })

	b.Publish(event.DroneTelemetryReceived{Time: time.Now()})
	expectSilence(t, got)

	b.Publish(event.CommandStatusChanged{
		Status: event.CommandStatus{ConnectionID: uuid.New(), DroneID: "drone-01", State: "RUNNING"},
		Time:   time.Now(),
	})
	if evt := waitFor(t, got); evt.Kind() != event.KindCommandStatusChanged {
		t.Fatalf("wrong kind %s", evt.Kind())
	}
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	b := New(testLogger())
	got := make(chan event.Event, 3)
	b.SubscribeAll(func(e event.Event) { got <- e })

	b.Publish(event.DroneConnected{Time: time.Now()})
	b.Publish(event.CommandReceived{Time: time.Now()})
	b.Publish(event.DroneDisconnected{Time: time.Now()})

	seen := map[event.Kind]bool{}
	for i := 0; i < 3; i++ {
		seen[waitFor(t, got).Kind()] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct kinds, got %v", seen)
	}
}

func TestMultipleHandlersEachDelivered(t *testing.T) {
	b := New(testLogger())
	first := make(chan event.Event, 1)
	second := make(chan event.Event, 1)
	b.Subscribe(event.KindDroneConnected, func(e event.Event) { first <- e })
	b.Subscribe(event.KindDroneConnected, func(e event.Event) { second <- e })

	b.Publish(event.DroneConnected{Time: time.Now()})
	waitFor(t, first)
	waitFor(t, second)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	b := New(testLogger())
	got := make(chan event.Event, 1)
	b.Subscribe(event.KindDroneConnected, func(event.Event) { panic("boom") })
	b.Subscribe(event.KindDroneConnected, func(e event.Event) { got <- e })

	b.Publish(event.DroneConnected{Time: time.Now()})

	// The healthy handler still runs, and a second publish still works.
	waitFor(t, got)
	b.Publish(event.DroneConnected{Time: time.Now()})
	waitFor(t, got)
}
