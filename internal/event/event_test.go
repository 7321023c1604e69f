package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"droneops-gateway/internal/telemetry"
)

func TestEnvelopeWireShape(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	evt := DroneTelemetryReceived{
		Telemetry: telemetry.Telemetry{ID: "drone-01", Lat: 48.21, Lng: 16.37},
		Time:      at,
	}

	data, err := json.Marshal(NewEnvelope(evt))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"timeStamp", "eventType", "payload"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("envelope missing %q: %s", key, data)
		}
	}

	var kind string
	json.Unmarshal(decoded["eventType"], &kind)
	if kind != "DroneTelemetryReceived" {
		t.Fatalf("unexpected eventType %q", kind)
	}

	var payload struct {
		ID  string  `json:"id"`
		Lat float64 `json:"lat"`
	}
	if err := json.Unmarshal(decoded["payload"], &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload.ID != "drone-01" || payload.Lat != 48.21 {
		t.Fatalf("payload not the telemetry object: %s", decoded["payload"])
	}
}

func TestDisconnectedPayloadIsDroneID(t *testing.T) {
	evt := DroneDisconnected{DroneID: "drone-02", Time: time.Now()}
	data, err := json.Marshal(NewEnvelope(evt))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var env struct {
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if env.Payload != "drone-02" {
		t.Fatalf("payload = %q, want drone id string", env.Payload)
	}
}

func TestBroadcastMarkers(t *testing.T) {
	broadcast := []Event{
		DroneConnected{},
		DroneTelemetryReceived{},
		DroneDisconnected{},
	}
	for _, evt := range broadcast {
		if _, ok := evt.(Broadcaster); !ok {
			t.Fatalf("%s must broadcast", evt.Kind())
		}
	}

	if _, ok := Event(CommandReceived{}).(Broadcaster); ok {
		t.Fatalf("CommandReceived must not broadcast")
	}
	if _, ok := Event(CommandStatusChanged{}).(Broadcaster); ok {
		t.Fatalf("CommandStatusChanged must not broadcast")
	}
}

func TestCommandStatusTargetsIssuer(t *testing.T) {
	id := uuid.New()
	evt := CommandStatusChanged{Status: CommandStatus{ConnectionID: id, DroneID: "drone-01", State: "RUNNING"}}
	scoped, ok := Event(evt).(ConnectionScoped)
	if !ok {
		t.Fatalf("CommandStatusChanged must be connection scoped")
	}
	if scoped.Target() != id {
		t.Fatalf("target = %v, want issuing connection %v", scoped.Target(), id)
	}
}
