// Delta-based telemetry persistence policy.
//
// ShouldPersist is a pure function of two telemetry snapshots plus elapsed
// time; it performs no I/O so the thresholds can be property-tested
// independent of the writer that consults it.
package policy

import (
	"math"
	"time"

	"droneops-gateway/internal/telemetry"
)

// Thresholds configures how much a telemetry sample must differ from the
// last persisted one before it is worth storing again.
type Thresholds struct {
	MinHorizontalMeters     float64
	MinAltitudeMeters       float64
	MinVelocityMetersPerSec float64
	MinHeadingDegrees       float64
	MinBatteryLevelPercent  float64
	MinBatteryTempCelsius   float64
	MaxInterval             time.Duration
}

// Defaults returns the thresholds observed in production.
func Defaults() Thresholds {
	return Thresholds{
		MinHorizontalMeters:     1.5,
		MinAltitudeMeters:       0.5,
		MinVelocityMetersPerSec: 0.3,
		MinHeadingDegrees:       5.0,
		MinBatteryLevelPercent:  1.0,
		MinBatteryTempCelsius:   1.0,
		MaxInterval:             5 * time.Second,
	}
}

// State is the per-drone record of what was last persisted and when.
type State struct {
	LastPersisted   telemetry.Telemetry
	LastPersistedAt time.Time
}

// Remaining-flight-time alert boundaries in seconds. Crossing one downward
// always persists, so the stored history never skips a low-time warning.
var remainingTimeBoundaries = []int{300, 120, 60}

// ShouldPersist reports whether current differs enough from previous to be
// stored. A nil previous (first sample for a drone) always persists.
func (t Thresholds) ShouldPersist(current telemetry.Telemetry, previous *State, now time.Time) bool {
	if previous == nil {
		return true
	}

	last := previous.LastPersisted

	if booleanStateChanged(current, last) {
		return true
	}

	// Movement
	if haversineMeters(current.Lat, current.Lng, last.Lat, last.Lng) >= t.MinHorizontalMeters {
		return true
	}
	if math.Abs(current.Alt-last.Alt) >= t.MinAltitudeMeters {
		return true
	}
	if velocityDelta(current, last) >= t.MinVelocityMetersPerSec {
		return true
	}
	if angularDelta(current.Heading, last.Heading) >= t.MinHeadingDegrees {
		return true
	}

	// Battery
	if math.Abs(current.BatteryLevel-last.BatteryLevel) >= t.MinBatteryLevelPercent {
		return true
	}
	if math.Abs(current.BatteryTemperature-last.BatteryTemperature) >= t.MinBatteryTempCelsius {
		return true
	}

	if current.SatelliteCount != last.SatelliteCount {
		return true
	}

	if crossedRemainingTimeBoundary(current, last) {
		return true
	}

	// Time-based safety net
	return now.Sub(previous.LastPersistedAt) >= t.MaxInterval
}

func booleanStateChanged(a, b telemetry.Telemetry) bool {
	return a.IsTraveling != b.IsTraveling ||
		a.IsFlying != b.IsFlying ||
		a.Online != b.Online ||
		a.IsGoingHome != b.IsGoingHome ||
		a.IsHomeLocationSet != b.IsHomeLocationSet ||
		a.AreMotorsOn != b.AreMotorsOn ||
		a.AreLightsOn != b.AreLightsOn
}

func velocityDelta(a, b telemetry.Telemetry) float64 {
	dx := a.VelX - b.VelX
	dy := a.VelY - b.VelY
	dz := a.VelZ - b.VelZ
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// angularDelta returns the smallest angle between two headings in degrees.
func angularDelta(a, b float64) float64 {
	delta := math.Mod(math.Abs(a-b), 360)
	if delta > 180 {
		return 360 - delta
	}
	return delta
}

func crossedRemainingTimeBoundary(a, b telemetry.Telemetry) bool {
	for _, boundary := range remainingTimeBoundaries {
		if b.RemainingFlightTime > boundary && a.RemainingFlightTime <= boundary {
			return true
		}
	}
	return false
}

// haversineMeters calculates the great-circle distance between two
// lat/lng points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadius = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
