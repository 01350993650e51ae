package prosumer

import (
	"math"

	"github.com/kilianp07/gridsim/core/model"
)

// Solar panel model constants.
const (
	SolarTempCoefficient   = -0.0036 // per °C above nominal
	SolarNominalTempC      = 25.0
	SolarReferenceWM2      = 1000.0
	sandiaA                = -3.47
	sandiaB                = -0.0594
	sandiaDeltaT           = 3.0
	solarRoundingPrecision = 1e6
)

// Wind turbine model constants.
const (
	WindCutInMS       = 3.0
	WindCutOutMS      = 25.0
	DefaultAirDensity = 1.225 // kg/m^3
	gasConstantDryAir = 287.05
)

// Producer statuses.
const (
	StatusOff        = "off"
	StatusGenerating = "generating"
	StatusHandbrake  = "handbrake"
	StatusIdle       = "idle"
	StatusCharging   = "charging"
)

// CellTemperature estimates the PV cell temperature in °C with the Sandia
// model.
func CellTemperature(ambientC, irradianceWM2, windMS float64) float64 {
	return ambientC + irradianceWM2/1000*(sandiaA+sandiaB*windMS) + sandiaDeltaT
}

// SolarOutput returns the generation of a panel in kW: output scales
// linearly with irradiance up to the reference and drops by 0.36% per
// degree of cell temperature above nominal.
func SolarOutput(maxKW, factor float64, w model.WeatherSample) float64 {
	if maxKW <= 0 || w.IrradianceWM2 <= 0 {
		return 0
	}
	scaling := math.Min(1, w.IrradianceWM2/SolarReferenceWM2)
	cell := CellTemperature(w.AmbientTemperature, w.IrradianceWM2, w.WindSpeedMS)
	efficiency := math.Max(0, 1+SolarTempCoefficient*(cell-SolarNominalTempC))
	kw := maxKW * scaling * efficiency * factor
	return math.Round(math.Max(0, kw)*solarRoundingPrecision) / solarRoundingPrecision
}

// AirDensity derives the density of dry air from pressure and temperature,
// falling back to the standard density when pressure is unknown.
func AirDensity(pressurePa, temperatureC float64) float64 {
	if pressurePa <= 0 {
		return DefaultAirDensity
	}
	return pressurePa / (gasConstantDryAir * (temperatureC + 273.15))
}

// WindOutput returns the generation of a turbine in kW and its status.
func WindOutput(maxKW, factor, rotorAreaM2 float64, w model.WeatherSample) (float64, string) {
	switch {
	case w.WindSpeedMS > WindCutOutMS:
		return 0, StatusHandbrake
	case w.WindSpeedMS < WindCutInMS:
		return 0, StatusIdle
	}
	rho := AirDensity(w.AirPressurePa, w.AmbientTemperature)
	kw := 0.5 * rho * rotorAreaM2 * math.Pow(w.WindSpeedMS, 3) / 1000
	if maxKW > 0 {
		kw = math.Min(kw, maxKW)
	}
	return kw * factor, StatusGenerating
}
