package telemetry

import (
	"math"
	"math/rand"
)

// SimDrone holds runtime state for one simulated drone.
type SimDrone struct {
	ID      string
	Model   string
	Home    GeoPoint
	Lat     float64
	Lng     float64
	Alt     float64
	Heading float64
	Battery float64
	Flying  bool
}

// Generator simulates telemetry for a set of drones. It is used by the
// fleet hub dev server and by tests; the gateway itself never generates
// telemetry.
type Generator struct{}

// NewGenerator returns a telemetry generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Step advances a drone's state by one tick and returns the resulting
// telemetry report.
func (g *Generator) Step(d *SimDrone) Telemetry {
	speed := cruiseSpeed(d.Model)
	velX, velY, velZ := 0.0, 0.0, 0.0

	if d.Flying {
		// Wander: drift the heading a little and move at cruise speed.
		d.Heading = math.Mod(d.Heading+rand.Float64()*30-15+360, 360)
		rad := d.Heading * math.Pi / 180
		velX = speed * math.Cos(rad)
		velY = speed * math.Sin(rad)
		velZ = rand.Float64()*2 - 1

		d.Lat += velX / 111000
		d.Lng += velY / (111000 * math.Cos(d.Lat*math.Pi/180))
		d.Alt = math.Max(0, d.Alt+velZ)

		d.Battery -= batteryDrain(d.Model)
		if d.Battery < 0 {
			d.Battery = 0
		}
	}

	return Telemetry{
		ID:                  d.ID,
		Model:               d.Model,
		HomeLocation:        d.Home,
		Lat:                 d.Lat,
		Lng:                 d.Lng,
		Alt:                 d.Alt,
		VelX:                velX,
		VelY:                velY,
		VelZ:                velZ,
		BatteryLevel:        d.Battery,
		BatteryTemperature:  25 + rand.Float64()*5,
		Heading:             d.Heading,
		SatelliteCount:      8 + rand.Intn(8),
		RemainingFlightTime: int(d.Battery * 18), // ~30min at full charge
		IsTraveling:         d.Flying,
		IsFlying:            d.Flying,
		Online:              true,
		IsHomeLocationSet:   true,
		AreMotorsOn:         d.Flying,
	}
}

// cruiseSpeed returns horizontal speed in m/s per tick based on model.
func cruiseSpeed(model string) float64 {
	switch model {
	case "small-fpv":
		return 15 + rand.Float64()*15
	case "medium-uav":
		return 25 + rand.Float64()*25
	case "large-uav":
		return 20 + rand.Float64()*20
	default:
		return 10 + rand.Float64()*10
	}
}

// batteryDrain returns battery consumption per tick based on model.
func batteryDrain(model string) float64 {
	switch model {
	case "small-fpv":
		return 0.5
	case "medium-uav":
		return 0.3
	case "large-uav":
		return 0.2
	default:
		return 0.4
	}
}
