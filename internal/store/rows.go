// Persistence layer fed by bus events.
package store

import (
	"os"
	"time"

	"droneops-gateway/internal/telemetry"
)

// TelemetryRow is one persisted telemetry record, flattened for
// time-series storage.
type TelemetryRow struct {
	DroneID string  `json:"drone_id"` // TAG
	Model   string  `json:"model"`    // TAG
	HomeLat float64 `json:"home_lat"`
	HomeLng float64 `json:"home_lng"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Alt     float64 `json:"alt"`
	VelX    float64 `json:"vel_x"`
	VelY    float64 `json:"vel_y"`
	VelZ    float64 `json:"vel_z"`
	Battery float64 `json:"battery"`
	BatTemp float64 `json:"bat_temp"`
	Heading float64 `json:"heading"`

	SatCount            int `json:"sat_count"`
	RemainingFlightTime int `json:"rft"`

	IsTraveling       bool `json:"is_traveling"`
	IsFlying          bool `json:"is_flying"`
	Online            bool `json:"online"`
	IsGoingHome       bool `json:"is_going_home"`
	IsHomeLocationSet bool `json:"is_home_location_set"`
	AreMotorsOn       bool `json:"are_motors_on"`
	AreLightsOn       bool `json:"are_lights_on"`

	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// NewTelemetryRow flattens a telemetry report for storage.
func NewTelemetryRow(t telemetry.Telemetry, at time.Time) TelemetryRow {
	return TelemetryRow{
		DroneID:             t.ID,
		Model:               t.Model,
		HomeLat:             t.HomeLocation.Lat,
		HomeLng:             t.HomeLocation.Lng,
		Lat:                 t.Lat,
		Lng:                 t.Lng,
		Alt:                 t.Alt,
		VelX:                t.VelX,
		VelY:                t.VelY,
		VelZ:                t.VelZ,
		Battery:             t.BatteryLevel,
		BatTemp:             t.BatteryTemperature,
		Heading:             t.Heading,
		SatCount:            t.SatelliteCount,
		RemainingFlightTime: t.RemainingFlightTime,
		IsTraveling:         t.IsTraveling,
		IsFlying:            t.IsFlying,
		Online:              t.Online,
		IsGoingHome:         t.IsGoingHome,
		IsHomeLocationSet:   t.IsHomeLocationSet,
		AreMotorsOn:         t.AreMotorsOn,
		AreLightsOn:         t.AreLightsOn,
		Timestamp:           at,
	}
}

// EventRow records a lifecycle or command event for the audit trail.
type EventRow struct {
	EventType    string    `json:"event_type"` // TAG
	DroneID      string    `json:"drone_id"`   // TAG
	ConnectionID string    `json:"connection_id"`
	Detail       string    `json:"detail"`
	Timestamp    time.Time `json:"ts"` // TIME INDEX
}

// TelemetryTableName is the table telemetry history is written to. It
// defaults to "drone_telemetry_history" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TelemetryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "drone_telemetry_history"
}()

// EventTableName is the table event records are written to.
var EventTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_EVENT_TABLE"); env != "" {
		return env
	}
	return "drone_events"
}()

// RowWriter persists rows. Implementations own their retries; callers
// log failures and move on.
type RowWriter interface {
	WriteTelemetry(TelemetryRow) error
	WriteEvent(EventRow) error
}
