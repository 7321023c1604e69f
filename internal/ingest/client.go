// Outbound WebSocket client ingesting telemetry from the fleet hub.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"droneops-gateway/internal/event"
	"droneops-gateway/internal/telemetry"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second

	// roleDrone tags telemetry frames in the hub envelope.
	roleDrone = "drone"
)

// hubEnvelope is the fleet hub's wire wrapper in both directions.
// Inbound, UserID names the reporting drone and Message holds telemetry;
// outbound, UserID addresses the target drone and Message holds a command
// payload.
type hubEnvelope struct {
	UserID  string          `json:"userId"`
	Role    string          `json:"role,omitempty"`
	Message json.RawMessage `json:"message"`
}

// TelemetrySink receives decoded telemetry; satisfied by
// session.Manager.
type TelemetrySink interface {
	ProcessTelemetry(telemetry.Telemetry)
}

// Subscriber is the slice of the event bus the client needs.
type Subscriber interface {
	Subscribe(event.Kind, func(event.Event))
}

// Client maintains exactly one connection to the fleet hub, forwarding
// inbound telemetry to the session manager and draining CommandReceived
// events back out to the drones.
type Client struct {
	url  string
	sink TelemetrySink
	log  *slog.Logger

	// out is bounded; see enqueue for the overflow policy.
	out chan hubEnvelope
}

// New creates a fleet hub client and subscribes it to command events.
// hubURL is the hub's WebSocket endpoint; the broadcast query parameter
// subscribing to all drones is appended here.
func New(hubURL string, sub Subscriber, sink TelemetrySink, log *slog.Logger, queueSize int) *Client {
	c := &Client{
		url:  hubURL + "?dboidsID=0",
		sink: sink,
		log:  log,
		out:  make(chan hubEnvelope, queueSize),
	}
	sub.Subscribe(event.KindCommandReceived, c.enqueue)
	return c
}

// Run dials the hub and serves the connection, reconnecting with
// exponential backoff until ctx is cancelled. Backoff starts at 1s,
// doubles to a 30s cap, and resets on every successful connect.
func (c *Client) Run(ctx context.Context) {
	backoff := initialBackoff

	for ctx.Err() == nil {
		c.log.Info("connecting to fleet hub", "url", c.url)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.log.Warn("fleet hub connect failed", "error", err, "retryIn", backoff)
		} else {
			backoff = initialBackoff
			c.serve(ctx, conn)
			conn.Close()
			if ctx.Err() != nil {
				return
			}
			c.log.Info("fleet hub connection lost", "retryIn", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// serve runs the read loop on the calling goroutine and the write pump on
// a second one; it returns when either side fails or ctx is cancelled.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go c.writePump(ctx, conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn("fleet hub read failed", "error", err)
			}
			return
		}
		c.handleFrame(data)
	}
}

// writePump drains the outbound queue onto the socket. A write failure
// closes the connection, which also unblocks the read loop.
func (c *Client) writePump(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	defer conn.Close()

	for {
		select {
		case env := <-c.out:
			if err := conn.WriteJSON(env); err != nil {
				c.log.Warn("fleet hub write failed", "error", err)
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleFrame decodes one inbound frame. Malformed envelopes and
// telemetry payloads are logged and dropped; the loop never dies on bad
// input.
func (c *Client) handleFrame(data []byte) {
	var env hubEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("invalid fleet hub envelope", "error", err)
		return
	}

	if env.Role != roleDrone {
		c.log.Warn("unknown fleet hub role", "role", env.Role)
		return
	}

	var t telemetry.Telemetry
	if err := json.Unmarshal(env.Message, &t); err != nil {
		c.log.Warn("invalid telemetry payload", "error", err, "droneId", env.UserID)
		return
	}
	c.sink.ProcessTelemetry(t)
}

// enqueue queues a command for transmission to its drone. The queue is
// bounded; when the socket is stalled and the queue is full, the oldest
// pending command is dropped with a warning rather than blocking the bus.
func (c *Client) enqueue(evt event.Event) {
	cmd, ok := evt.(event.CommandReceived)
	if !ok {
		return
	}

	payload, err := json.Marshal(cmd.Command)
	if err != nil {
		c.log.Error("marshaling command payload", "error", err, "droneId", cmd.DroneID)
		return
	}
	env := hubEnvelope{UserID: cmd.DroneID, Message: payload}

	for {
		select {
		case c.out <- env:
			c.log.Info("command queued for drone",
				"droneId", cmd.DroneID, "command", cmd.Command.Name())
			return
		default:
		}
		select {
		case dropped := <-c.out:
			c.log.Warn("command queue full, dropping oldest",
				"droppedDroneId", dropped.UserID)
		default:
		}
	}
}
