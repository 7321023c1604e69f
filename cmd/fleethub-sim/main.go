// fleethub-sim is a stand-in fleet hub for local development. It serves
// the hub WebSocket endpoint, emits simulated drone telemetry on every
// tick, and applies the commands the gateway forwards back.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"droneops-gateway/internal/logging"
	"droneops-gateway/internal/telemetry"
)

// envelope is the hub's wire wrapper in both directions.
type envelope struct {
	UserID  string          `json:"userId"`
	Role    string          `json:"role,omitempty"`
	Message json.RawMessage `json:"message"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type hub struct {
	log *slog.Logger

	gen    *telemetry.Generator
	mu     sync.Mutex
	drones []*telemetry.SimDrone
	subs   map[uuid.UUID]*websocket.Conn
}

func newHub(droneCount int) *hub {
	h := &hub{
		log:  logging.New(),
		gen:  telemetry.NewGenerator(),
		subs: make(map[uuid.UUID]*websocket.Conn),
	}

	models := []string{"small-fpv", "medium-uav", "large-uav"}
	for i := 0; i < droneCount; i++ {
		home := telemetry.GeoPoint{Lat: 48.21 + float64(i)*0.01, Lng: 16.37 + float64(i)*0.01}
		h.drones = append(h.drones, &telemetry.SimDrone{
			ID:      fmt.Sprintf("drone-%02d", i+1),
			Model:   models[i%len(models)],
			Home:    home,
			Lat:     home.Lat,
			Lng:     home.Lng,
			Battery: 100,
			Flying:  true,
		})
	}
	return h
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.New()
	h.mu.Lock()
	h.subs[id] = ws
	h.mu.Unlock()
	h.log.Info("subscriber connected", "id", id, "dboidsID", r.URL.Query().Get("dboidsID"))

	defer func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		ws.Close()
		h.log.Info("subscriber disconnected", "id", id)
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		h.handleCommand(data)
	}
}

// handleCommand applies a forwarded operator command to the target drone.
func (h *hub) handleCommand(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.log.Warn("invalid command envelope", "error", err)
		return
	}
	var cmd struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(env.Message, &cmd); err != nil {
		h.log.Warn("invalid command payload", "error", err, "droneId", env.UserID)
		return
	}
	h.log.Info("command received", "droneId", env.UserID, "command", cmd.Command)

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.drones {
		if d.ID != env.UserID {
			continue
		}
		switch cmd.Command {
		case "takeoff", "startMission":
			d.Flying = true
		case "land", "stopMission", "startGoHome":
			d.Flying = false
		}
	}
}

// tick advances every drone and broadcasts its telemetry to all
// subscribers.
func (h *hub) tick() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, d := range h.drones {
		t := h.gen.Step(d)
		msg, err := json.Marshal(t)
		if err != nil {
			continue
		}
		data, err := json.Marshal(envelope{UserID: d.ID, Role: "drone", Message: msg})
		if err != nil {
			continue
		}
		for id, ws := range h.subs {
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Warn("broadcast failed", "id", id, "error", err)
			}
		}
	}
}

// handleAddDrone spawns a new drone: POST /drones/add?id=drone-09&model=small-fpv
func (h *hub) handleAddDrone(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	model := r.URL.Query().Get("model")
	if model == "" {
		model = "medium-uav"
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.drones {
		if d.ID == id {
			http.Error(w, "drone exists", http.StatusConflict)
			return
		}
	}
	home := telemetry.GeoPoint{Lat: 48.21, Lng: 16.37}
	h.drones = append(h.drones, &telemetry.SimDrone{
		ID:      id,
		Model:   model,
		Home:    home,
		Lat:     home.Lat,
		Lng:     home.Lng,
		Battery: 100,
		Flying:  true,
	})
	h.log.Info("drone added", "droneId", id, "model", model)
	w.WriteHeader(http.StatusCreated)
}

// handleRemoveDrone silences a drone: POST /drones/remove?id=drone-09.
// The gateway sees the silence and expires its session.
func (h *hub) handleRemoveDrone(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, d := range h.drones {
		if d.ID == id {
			h.drones = append(h.drones[:i], h.drones[i+1:]...)
			h.log.Info("drone removed", "droneId", id)
			return
		}
	}
	http.Error(w, "no such drone", http.StatusNotFound)
}

func (h *hub) handleListDrones(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	ids := make([]string, 0, len(h.drones))
	for _, d := range h.drones {
		ids = append(ids, d.ID)
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ids)
}

func main() {
	addr := flag.String("addr", ":8083", "Listen address")
	drones := flag.Int("drones", 5, "Number of simulated drones")
	tick := flag.Duration("tick", time.Second, "Telemetry tick interval")
	flag.Parse()

	h := newHub(*drones)

	go func() {
		ticker := time.NewTicker(*tick)
		defer ticker.Stop()
		for range ticker.C {
			h.tick()
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/fleet", h.handleWS)
	mux.HandleFunc("/drones", h.handleListDrones)
	mux.HandleFunc("/drones/add", h.handleAddDrone)
	mux.HandleFunc("/drones/remove", h.handleRemoveDrone)

	h.log.Info("fleet hub simulator listening", "addr", *addr, "drones", *drones)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		h.log.Error("server failed", "error", err)
	}
}
