package weather

import (
	"math"
	"time"

	"github.com/kilianp07/gridsim/core/model"
)

const (
	solarConstant   = 1353.0
	standardPressPa = 101325.0
)

// Synthetic derives clear-sky conditions from the sun position at a
// location. Values are deterministic for a given hour.
type Synthetic struct {
	latitude  float64 // radians
	elevation float64 // km
}

// NewSynthetic returns a clear-sky source for a latitude in degrees and an
// elevation in km.
func NewSynthetic(latitudeDeg, elevationKM float64) *Synthetic {
	return &Synthetic{latitude: latitudeDeg * math.Pi / 180, elevation: elevationKM}
}

// Sample implements Source. The sun position is taken at the middle of the
// hour.
func (s *Synthetic) Sample(at time.Time) (model.WeatherSample, error) {
	hour := at.Truncate(time.Hour)
	mid := hour.Add(30 * time.Minute)
	doy := float64(mid.YearDay())

	sample := model.WeatherSample{
		Timestamp:          hour,
		IrradianceWM2:      round(s.irradiance(mid), 2),
		AmbientTemperature: round(ambient(mid, doy), 2),
		WindSpeedMS:        round(wind(mid, doy), 2),
		AirPressurePa:      round(standardPressPa*math.Exp(-s.elevation/8.4), 1),
	}
	sample.GroundTemperature = round(sample.AmbientTemperature*0.6+4, 2)
	return sample, nil
}

// irradiance is the global horizontal irradiance in W/m^2 using the air
// mass attenuation model with a 10% diffuse share.
func (s *Synthetic) irradiance(t time.Time) float64 {
	elev := elevationAngle(s.latitude, t)
	if elev <= 0 {
		return 0
	}
	am := 1 / math.Sin(elev)
	if am > 38 {
		am = 38
	}
	att := math.Pow(0.7, math.Pow(am, 0.678))
	direct := (att*(1-0.14*s.elevation) + 0.14*s.elevation) * solarConstant
	return direct*math.Sin(elev) + direct*0.1
}

func declination(t time.Time) float64 {
	return math.Asin(math.Sin((float64(t.YearDay())-81)*2*math.Pi/365.25) * math.Sin(0.40928))
}

func hourAngle(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	return (h - 12) * 15 * math.Pi / 180
}

func elevationAngle(lat float64, t time.Time) float64 {
	d := declination(t)
	return math.Asin(math.Sin(d)*math.Sin(lat) + math.Cos(d)*math.Cos(lat)*math.Cos(hourAngle(t)))
}

// ambient follows a seasonal mean with a daily swing peaking mid afternoon.
func ambient(t time.Time, doy float64) float64 {
	seasonal := 10 - 7*math.Cos((doy-15)*2*math.Pi/365.25)
	h := float64(t.Hour()) + float64(t.Minute())/60
	return seasonal + 4*math.Cos((h-15)*2*math.Pi/24)
}

func wind(t time.Time, doy float64) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	return 5 + 1.5*math.Cos((doy-30)*2*math.Pi/365.25) + 1.2*math.Sin((h-6)*2*math.Pi/24)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
