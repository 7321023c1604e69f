package event

import "time"

// Envelope is the operator-facing wire form of an event.
type Envelope struct {
	TimeStamp time.Time `json:"timeStamp"`
	EventType Kind      `json:"eventType"`
	Payload   any       `json:"payload"`
}

// NewEnvelope wraps an event for transmission to operator clients.
func NewEnvelope(e Event) Envelope {
	return Envelope{
		TimeStamp: e.At(),
		EventType: e.Kind(),
		Payload:   e.Payload(),
	}
}
