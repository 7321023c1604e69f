// Drone session tracking and disconnect detection.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"droneops-gateway/internal/event"
	"droneops-gateway/internal/telemetry"
)

// Publisher is the slice of the event bus the manager needs.
type Publisher interface {
	Publish(event.Event)
}

// Session is the gateway's belief that a drone is currently connected,
// backed solely by recency of telemetry.
type Session struct {
	DroneID  string    `json:"droneId"`
	LastSeen time.Time `json:"lastSeenAt"`
}

// Manager owns the session table. A drone id's presence in the table is
// authoritative for "currently connected"; no other component mutates
// sessions. The manager itself never fails.
type Manager struct {
	pub     Publisher
	log     *slog.Logger
	timeout time.Duration
	sweep   time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. timeout is how long a drone may
// stay silent before it is considered disconnected; sweepInterval is how
// often Run checks.
func NewManager(pub Publisher, log *slog.Logger, timeout, sweepInterval time.Duration) *Manager {
	return &Manager{
		pub:      pub,
		log:      log,
		timeout:  timeout,
		sweep:    sweepInterval,
		sessions: make(map[string]*Session),
	}
}

// ProcessTelemetry upserts the session for the reporting drone. The first
// report for an untracked drone publishes DroneConnected before the
// DroneTelemetryReceived for the same telemetry; every report publishes
// DroneTelemetryReceived and bumps LastSeen.
//
// Both publishes happen under the table lock so that, per drone, the
// connect event always precedes the first telemetry event even when
// reports arrive concurrently. Publish never blocks, so holding the lock
// across it is cheap.
func (m *Manager) ProcessTelemetry(t telemetry.Telemetry) {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[t.ID]
	if !ok {
		m.sessions[t.ID] = &Session{DroneID: t.ID, LastSeen: now}
		m.log.Info("drone connected", "droneId", t.ID)
		m.pub.Publish(event.DroneConnected{Telemetry: t, Time: now})
	} else {
		s.LastSeen = now
	}

	m.pub.Publish(event.DroneTelemetryReceived{Telemetry: t, Time: now})
}

// Sweep removes every session whose last telemetry is at least the timeout
// old, publishing one DroneDisconnected per removal. Check and removal
// happen under the same lock ProcessTelemetry takes, so a telemetry report
// racing the sweep either refreshes the session before the check or
// arrives after removal and re-creates it with a fresh DroneConnected.
func (m *Manager) Sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.LastSeen.Add(m.timeout).After(now) {
			continue
		}
		delete(m.sessions, id)
		m.log.Info("drone disconnected", "droneId", id, "lastSeenAt", s.LastSeen)
		m.pub.Publish(event.DroneDisconnected{DroneID: id, Time: now})
	}
}

// Run sweeps at the configured interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(time.Now().UTC())
		case <-ctx.Done():
			return
		}
	}
}

// Connected returns a snapshot of the live sessions.
func (m *Manager) Connected() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}
