package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"droneops-gateway/internal/session"
	"droneops-gateway/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts operator WebSocket connections and exposes a small
// status API.
type Server struct {
	registry  *Registry
	processor *Processor
	sessions  *session.Manager
	snapshots *store.SnapshotTracker
	log       *slog.Logger
}

// NewServer wires the HTTP front of the gateway.
func NewServer(reg *Registry, proc *Processor, sessions *session.Manager, snaps *store.SnapshotTracker, log *slog.Logger) *Server {
	return &Server{
		registry:  reg,
		processor: proc,
		sessions:  sessions,
		snapshots: snaps,
		log:       log,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/drones", s.handleDrones)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	return srv.ListenAndServe()
}

// handleWS upgrades the connection, registers it, and runs its receive
// loop. The connection is unregistered exactly once, whether the peer
// closes, errors out, or the server shuts down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := s.registry.AddClient(ws)
	defer s.registry.RemoveClient(id)

	for {
		// ReadMessage reassembles fragmented messages into whole frames.
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage || len(data) == 0 {
			continue
		}
		s.processor.Submit(id, data)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"drones":    len(s.sessions.Connected()),
		"operators": s.registry.Count(),
	})
}

func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.snapshots.Snapshot())
}
