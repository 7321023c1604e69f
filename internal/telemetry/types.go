// Telemetry wire types shared by the fleet hub and operator sides.
package telemetry

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Telemetry is one state report from a drone, in the fleet hub's wire
// shape. It is a plain value with no cross-references; once decoded it is
// never mutated.
type Telemetry struct {
	ID    string `json:"id"`
	Model string `json:"model"`

	HomeLocation GeoPoint `json:"homeLocation"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Alt          float64  `json:"alt"`

	VelX float64 `json:"velX"`
	VelY float64 `json:"velY"`
	VelZ float64 `json:"velZ"`

	BatteryLevel       float64 `json:"batLvl"`
	BatteryTemperature float64 `json:"batTemperature"`

	Heading             float64 `json:"hdg"`
	SatelliteCount      int     `json:"satCount"`
	RemainingFlightTime int     `json:"rft"`

	IsTraveling       bool `json:"isTraveling"`
	IsFlying          bool `json:"isFlying"`
	Online            bool `json:"online"`
	IsGoingHome       bool `json:"isGoingHome"`
	IsHomeLocationSet bool `json:"isHomeLocationSet"`
	AreMotorsOn       bool `json:"areMotorsOn"`
	AreLightsOn       bool `json:"areLightsOn"`
}
