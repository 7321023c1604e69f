package store

import (
	"context"
	"fmt"
	"log/slog"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeWriter persists rows to GreptimeDB via the ingester client.
// Boolean flags and counters are stored as DOUBLE so the row builder
// stays on one numeric column type.
type GreptimeWriter struct {
	client greptime.Client
	db     string
	table  string
	events string
	log    *slog.Logger
}

// NewGreptimeWriter connects to GreptimeDB and auto-creates the
// telemetry history and event tables if needed.
func NewGreptimeWriter(endpoint, database string, log *slog.Logger) (*GreptimeWriter, error) {
	ctx := ingesterContext.NewContext(context.Background())
	client, err := greptime.NewClient(ctx, &greptime.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, err
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  drone_id STRING TAG,
  model STRING TAG,
  home_lat DOUBLE,
  home_lng DOUBLE,
  lat DOUBLE,
  lng DOUBLE,
  alt DOUBLE,
  vel_x DOUBLE,
  vel_y DOUBLE,
  vel_z DOUBLE,
  battery DOUBLE,
  bat_temp DOUBLE,
  heading DOUBLE,
  sat_count DOUBLE,
  rft DOUBLE,
  is_traveling DOUBLE,
  is_flying DOUBLE,
  online DOUBLE,
  is_going_home DOUBLE,
  is_home_location_set DOUBLE,
  are_motors_on DOUBLE,
  are_lights_on DOUBLE,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='30d')
`, TelemetryTableName)
	if _, err := client.SQL(ctx, ddl); err != nil {
		return nil, err
	}

	eventDDL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  event_type STRING TAG,
  drone_id STRING TAG,
  connection_id STRING,
  detail STRING,
  ts TIMESTAMP TIME INDEX
) WITH (ttl='90d')
`, EventTableName)
	if _, err := client.SQL(ctx, eventDDL); err != nil {
		return nil, err
	}

	return &GreptimeWriter{
		client: client,
		db:     database,
		table:  TelemetryTableName,
		events: EventTableName,
		log:    log,
	}, nil
}

func boolField(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// WriteTelemetry inserts a single telemetry history row.
func (w *GreptimeWriter) WriteTelemetry(row TelemetryRow) error {
	ctx := ingesterContext.NewContext(context.Background())

	tbl := table.New(w.table)
	tbl.AddTagColumn("drone_id", types.StringType, 0)
	tbl.AddTagColumn("model", types.StringType, 0)
	tbl.AddFieldColumn("home_lat", types.Float64Type)
	tbl.AddFieldColumn("home_lng", types.Float64Type)
	tbl.AddFieldColumn("lat", types.Float64Type)
	tbl.AddFieldColumn("lng", types.Float64Type)
	tbl.AddFieldColumn("alt", types.Float64Type)
	tbl.AddFieldColumn("vel_x", types.Float64Type)
	tbl.AddFieldColumn("vel_y", types.Float64Type)
	tbl.AddFieldColumn("vel_z", types.Float64Type)
	tbl.AddFieldColumn("battery", types.Float64Type)
	tbl.AddFieldColumn("bat_temp", types.Float64Type)
	tbl.AddFieldColumn("heading", types.Float64Type)
	tbl.AddFieldColumn("sat_count", types.Float64Type)
	tbl.AddFieldColumn("rft", types.Float64Type)
	tbl.AddFieldColumn("is_traveling", types.Float64Type)
	tbl.AddFieldColumn("is_flying", types.Float64Type)
	tbl.AddFieldColumn("online", types.Float64Type)
	tbl.AddFieldColumn("is_going_home", types.Float64Type)
	tbl.AddFieldColumn("is_home_location_set", types.Float64Type)
	tbl.AddFieldColumn("are_motors_on", types.Float64Type)
	tbl.AddFieldColumn("are_lights_on", types.Float64Type)
	tbl.SetTimeIndex("ts", types.TimestampType)

	tbl.AppendTagValue("drone_id", row.DroneID)
	tbl.AppendTagValue("model", row.Model)
	tbl.AppendFieldValue("home_lat", row.HomeLat)
	tbl.AppendFieldValue("home_lng", row.HomeLng)
	tbl.AppendFieldValue("lat", row.Lat)
	tbl.AppendFieldValue("lng", row.Lng)
	tbl.AppendFieldValue("alt", row.Alt)
	tbl.AppendFieldValue("vel_x", row.VelX)
	tbl.AppendFieldValue("vel_y", row.VelY)
	tbl.AppendFieldValue("vel_z", row.VelZ)
	tbl.AppendFieldValue("battery", row.Battery)
	tbl.AppendFieldValue("bat_temp", row.BatTemp)
	tbl.AppendFieldValue("heading", row.Heading)
	tbl.AppendFieldValue("sat_count", float64(row.SatCount))
	tbl.AppendFieldValue("rft", float64(row.RemainingFlightTime))
	tbl.AppendFieldValue("is_traveling", boolField(row.IsTraveling))
	tbl.AppendFieldValue("is_flying", boolField(row.IsFlying))
	tbl.AppendFieldValue("online", boolField(row.Online))
	tbl.AppendFieldValue("is_going_home", boolField(row.IsGoingHome))
	tbl.AppendFieldValue("is_home_location_set", boolField(row.IsHomeLocationSet))
	tbl.AppendFieldValue("are_motors_on", boolField(row.AreMotorsOn))
	tbl.AppendFieldValue("are_lights_on", boolField(row.AreLightsOn))
	tbl.AppendTimeIndex(row.Timestamp)

	if err := w.client.Write(ctx, w.db, []*table.Table{tbl}); err != nil {
		w.log.Warn("greptime telemetry write failed", "droneId", row.DroneID, "error", err)
		return err
	}
	return nil
}

// WriteEvent inserts a single event record.
func (w *GreptimeWriter) WriteEvent(row EventRow) error {
	ctx := ingesterContext.NewContext(context.Background())

	tbl := table.New(w.events)
	tbl.AddTagColumn("event_type", types.StringType, 0)
	tbl.AddTagColumn("drone_id", types.StringType, 0)
	tbl.AddFieldColumn("connection_id", types.StringType)
	tbl.AddFieldColumn("detail", types.StringType)
	tbl.SetTimeIndex("ts", types.TimestampType)

	tbl.AppendTagValue("event_type", row.EventType)
	tbl.AppendTagValue("drone_id", row.DroneID)
	tbl.AppendFieldValue("connection_id", row.ConnectionID)
	tbl.AppendFieldValue("detail", row.Detail)
	tbl.AppendTimeIndex(row.Timestamp)

	if err := w.client.Write(ctx, w.db, []*table.Table{tbl}); err != nil {
		w.log.Warn("greptime event write failed", "eventType", row.EventType, "error", err)
		return err
	}
	return nil
}
