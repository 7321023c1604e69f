// Event types flowing through the in-process bus.
package event

import (
	"time"

	"github.com/google/uuid"

	"droneops-gateway/internal/command"
	"droneops-gateway/internal/telemetry"
)

// Kind tags an event for bus routing and wire serialization. Kinds are
// computed once per event type; no reflection is involved in dispatch.
type Kind string

const (
	KindDroneConnected         Kind = "DroneConnected"
	KindDroneTelemetryReceived Kind = "DroneTelemetryReceived"
	KindDroneDisconnected      Kind = "DroneDisconnected"
	KindCommandReceived        Kind = "CommandReceived"
	KindCommandStatusChanged   Kind = "CommandStatusChanged"
)

// Event is the closed set of things that happen inside the gateway.
// Events are immutable once constructed; ownership transfers to the bus
// at publish time.
type Event interface {
	Kind() Kind
	At() time.Time
	// Payload is the body serialized into the operator-facing envelope.
	Payload() any
}

// Broadcaster marks events fanned out to every operator connection.
type Broadcaster interface {
	Event
	Broadcast()
}

// ConnectionScoped marks events delivered to a single operator connection.
type ConnectionScoped interface {
	Event
	Target() uuid.UUID
}

// DroneConnected fires when telemetry arrives for a drone with no live
// session.
type DroneConnected struct {
	Telemetry telemetry.Telemetry
	Time      time.Time
}

func (DroneConnected) Kind() Kind { return KindDroneConnected }
func (e DroneConnected) At() time.Time { return e.Time }
func (e DroneConnected) Payload() any { return e.Telemetry }
func (DroneConnected) Broadcast() {}

// DroneTelemetryReceived fires for every telemetry report.
type DroneTelemetryReceived struct {
	Telemetry telemetry.Telemetry
	Time      time.Time
}

func (DroneTelemetryReceived) Kind() Kind { return KindDroneTelemetryReceived }
func (e DroneTelemetryReceived) At() time.Time { return e.Time }
func (e DroneTelemetryReceived) Payload() any { return e.Telemetry }
func (DroneTelemetryReceived) Broadcast() {}

// DroneDisconnected fires when the sweep expires a session.
type DroneDisconnected struct {
	DroneID string
	Time    time.Time
}

func (DroneDisconnected) Kind() Kind { return KindDroneDisconnected }
func (e DroneDisconnected) At() time.Time { return e.Time }
func (e DroneDisconnected) Payload() any { return e.DroneID }
func (DroneDisconnected) Broadcast() {}

// CommandReceived fires when an operator command passed validation. It is
// consumed by the ingestion client, which forwards the command to the
// drone named by DroneID.
type CommandReceived struct {
	ConnectionID uuid.UUID
	DroneID      string
	Command      command.Command
	Time         time.Time
}

func (CommandReceived) Kind() Kind { return KindCommandReceived }
func (e CommandReceived) At() time.Time { return e.Time }
func (e CommandReceived) Payload() any { return e.Command }

// CommandStatus reports the state of a previously received command.
type CommandStatus struct {
	ConnectionID uuid.UUID `json:"connectionId"`
	DroneID      string    `json:"droneId"`
	State        string    `json:"state"`
}

// CommandStatusChanged is delivered only to the operator connection that
// issued the command.
type CommandStatusChanged struct {
	Status CommandStatus
	Time   time.Time
}

func (CommandStatusChanged) Kind() Kind { return KindCommandStatusChanged }
func (e CommandStatusChanged) At() time.Time { return e.Time }
func (e CommandStatusChanged) Payload() any { return e.Status }
func (e CommandStatusChanged) Target() uuid.UUID { return e.Status.ConnectionID }
