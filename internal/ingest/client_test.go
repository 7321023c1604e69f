package ingest

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"droneops-gateway/internal/command"
	"droneops-gateway/internal/event"
	"droneops-gateway/internal/telemetry"
)

type fakeSink struct {
	received []telemetry.Telemetry
}

func (s *fakeSink) ProcessTelemetry(t telemetry.Telemetry) {
	s.received = append(s.received, t)
}

type fakeBus struct {
	handlers map[event.Kind]func(event.Event)
}

func (b *fakeBus) Subscribe(kind event.Kind, h func(event.Event)) {
	if b.handlers == nil {
		b.handlers = make(map[event.Kind]func(event.Event))
	}
	b.handlers[kind] = h
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestNewAppendsBroadcastQuery(t *testing.T) {
	c := New("ws://hub:8083/fleet", &fakeBus{}, &fakeSink{}, testLogger(), 4)
	if c.url != "ws://hub:8083/fleet?dboidsID=0" {
		t.Fatalf("unexpected url %q", c.url)
	}
}

func TestHandleFrameForwardsTelemetry(t *testing.T) {
	sink := &fakeSink{}
	c := New("ws://hub/fleet", &fakeBus{}, sink, testLogger(), 4)

	c.handleFrame([]byte(`{"userId":"drone-01","role":"drone","message":{"id":"drone-01","lat":48.21,"batLvl":73.5}}`))

	if len(sink.received) != 1 {
		t.Fatalf("expected 1 telemetry, got %d", len(sink.received))
	}
	got := sink.received[0]
	if got.ID != "drone-01" || got.Lat != 48.21 || got.BatteryLevel != 73.5 {
		t.Fatalf("telemetry not decoded: %+v", got)
	}
}

func TestHandleFrameDropsUnknownRole(t *testing.T) {
	sink := &fakeSink{}
	c := New("ws://hub/fleet", &fakeBus{}, sink, testLogger(), 4)

	c.handleFrame([]byte(`{"userId":"x","role":"operator","message":{"id":"x"}}`))
	c.handleFrame([]byte(`{"userId":"x","message":{"id":"x"}}`))

	if len(sink.received) != 0 {
		t.Fatalf("unknown roles must not reach the sink")
	}
}

func TestHandleFrameDropsMalformedInput(t *testing.T) {
	sink := &fakeSink{}
	c := New("ws://hub/fleet", &fakeBus{}, sink, testLogger(), 4)

	c.handleFrame([]byte(`not json`))
	c.handleFrame([]byte(`{"userId":"drone-01","role":"drone","message":"not an object"}`))

	if len(sink.received) != 0 {
		t.Fatalf("malformed frames must not reach the sink")
	}
}

func TestEnqueueSubscribesToCommands(t *testing.T) {
	bus := &fakeBus{}
	c := New("ws://hub/fleet", bus, &fakeSink{}, testLogger(), 4)

	handler, ok := bus.handlers[event.KindCommandReceived]
	if !ok {
		t.Fatalf("client not subscribed to CommandReceived")
	}
	handler(event.CommandReceived{
		ConnectionID: uuid.New(),
		DroneID:      "drone-01",
		Command:      command.FlightCommand{Command: "land"},
		Time:         time.Now(),
	})

	select {
	case env := <-c.out:
		if env.UserID != "drone-01" {
			t.Fatalf("envelope addressed to %q", env.UserID)
		}
		var payload struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(env.Message, &payload); err != nil || payload.Command != "land" {
			t.Fatalf("bad outbound payload %s", env.Message)
		}
	default:
		t.Fatalf("command not queued")
	}
}

func TestEnqueueDropsOldestOnOverflow(t *testing.T) {
	bus := &fakeBus{}
	c := New("ws://hub/fleet", bus, &fakeSink{}, testLogger(), 2)
	handler := bus.handlers[event.KindCommandReceived]

	for _, drone := range []string{"drone-01", "drone-02", "drone-03"} {
		handler(event.CommandReceived{
			DroneID: drone,
			Command: command.FlightCommand{Command: "land"},
			Time:    time.Now(),
		})
	}

	// Queue holds 2; the oldest entry was evicted.
	first := <-c.out
	second := <-c.out
	if first.UserID != "drone-02" || second.UserID != "drone-03" {
		t.Fatalf("expected drone-02, drone-03; got %s, %s", first.UserID, second.UserID)
	}
}
