package model

import "time"

// Tick is one discrete simulation step broadcast by the clock.
type Tick struct {
	Seq       int       `json:"seq"`       // 1-based tick index
	Timestamp time.Time `json:"timestamp"` // simulated time of this step
	Rate      float64   `json:"rate"`      // simulated seconds per step
	Final     bool      `json:"final"`     // last tick of the run
}

// WeatherSample holds the environment conditions for a simulated hour.
type WeatherSample struct {
	Timestamp          time.Time `json:"timestamp"`
	IrradianceWM2      float64   `json:"sun_irradiance"`      // W/m^2
	AmbientTemperature float64   `json:"ambient_temperature"` // °C
	GroundTemperature  float64   `json:"ground_temperature"`  // °C
	WindSpeedMS        float64   `json:"wind_speed"`          // m/s
	AirPressurePa      float64   `json:"air_pressure"`        // Pa
	CloudCoverageOkta  float64   `json:"cloud_coverage"`      // okta
	RainMMH            float64   `json:"rain"`                // mm/hr
}

// Equal reports whether both samples describe the same conditions, ignoring
// the timestamp.
func (w WeatherSample) Equal(o WeatherSample) bool {
	w.Timestamp = time.Time{}
	o.Timestamp = time.Time{}
	return w == o
}
