package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"droneops-gateway/internal/command"
	"droneops-gateway/internal/event"
)

// clientEnvelope is the wrapper operator clients send commands in.
type clientEnvelope struct {
	UserID  string          `json:"userId"`
	Role    string          `json:"role"`
	Message json.RawMessage `json:"message"`
}

// Publisher is the slice of the event bus the processor needs.
type Publisher interface {
	Publish(event.Event)
}

// frame is one raw text frame tagged with its originating connection.
type frame struct {
	connectionID uuid.UUID
	data         []byte
}

// Processor consumes raw operator frames, validates them against the
// command allow-lists, and publishes CommandReceived events. Invalid
// frames are logged and dropped with no reply to the client.
type Processor struct {
	pub Publisher
	log *slog.Logger
	in  chan frame
}

// NewProcessor creates a processor with a bounded input queue. A full
// queue back-pressures the connection read loops feeding it.
func NewProcessor(pub Publisher, log *slog.Logger, queueSize int) *Processor {
	return &Processor{
		pub: pub,
		log: log,
		in:  make(chan frame, queueSize),
	}
}

// Submit hands a raw frame from a connection's read loop to the
// processor. Blocks when the queue is full.
func (p *Processor) Submit(connectionID uuid.UUID, data []byte) {
	p.in <- frame{connectionID: connectionID, data: data}
}

// Run drains the input queue until ctx is cancelled. Frames from the same
// connection are processed in receive order.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case f := <-p.in:
			p.process(f)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Processor) process(f frame) {
	now := time.Now().UTC()

	var env clientEnvelope
	if err := json.Unmarshal(f.data, &env); err != nil {
		p.log.Warn("invalid client envelope",
			"connectionId", f.connectionID, "error", err)
		return
	}

	cmd, err := command.Parse(env.Role, env.Message)
	if err != nil {
		p.log.Warn("rejected client command",
			"connectionId", f.connectionID, "role", env.Role, "error", err)
		return
	}

	p.log.Info("command received",
		"connectionId", f.connectionID, "droneId", env.UserID, "command", cmd.Name())
	p.pub.Publish(event.CommandReceived{
		ConnectionID: f.connectionID,
		DroneID:      env.UserID,
		Command:      cmd,
		Time:         now,
	})

	// Mission-affecting commands echo their state transition back to the
	// issuing connection only.
	if state, ok := command.MissionState(cmd); ok {
		p.pub.Publish(event.CommandStatusChanged{
			Status: event.CommandStatus{
				ConnectionID: f.connectionID,
				DroneID:      env.UserID,
				State:        string(state),
			},
			Time: now,
		})
	}
}
