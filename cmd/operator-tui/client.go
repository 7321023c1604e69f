package main

import (
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"droneops-gateway/internal/command"
)

// eventMsg is one decoded gateway event pushed into the TUI.
type eventMsg struct {
	TimeStamp time.Time       `json:"timeStamp"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

// disconnectMsg signals that the gateway connection dropped.
type disconnectMsg struct{ err error }

// client is the operator-side WebSocket connection to the gateway.
type client struct {
	conn *websocket.Conn
}

func dial(url string) (*client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return &client{conn: conn}, nil
}

// pump reads gateway events and forwards them into the program.
func (c *client) pump(p *tea.Program) {
	go func() {
		for {
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				p.Send(disconnectMsg{err: err})
				return
			}
			var msg eventMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			p.Send(msg)
		}
	}()
}

// sendCommand wraps a command in the client envelope and ships it.
func (c *client) sendCommand(droneID string, cmd command.Command) error {
	message, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(struct {
		UserID  string          `json:"userId"`
		Role    string          `json:"role"`
		Message json.RawMessage `json:"message"`
	}{UserID: droneID, Role: cmd.Role(), Message: message})
}

func (c *client) close() {
	c.conn.Close()
}
