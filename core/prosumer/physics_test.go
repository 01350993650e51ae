package prosumer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/gridsim/core/model"
)

func TestSolarOutput(t *testing.T) {
	tests := []struct {
		name string
		w    model.WeatherSample
		want float64
	}{
		{"reference conditions", model.WeatherSample{IrradianceWM2: 1000, AmbientTemperature: 25}, 5.00846},
		{"half sun", model.WeatherSample{IrradianceWM2: 500, AmbientTemperature: 25}, 2.488615},
		{"clipped above reference", model.WeatherSample{IrradianceWM2: 1200, AmbientTemperature: 25}, 5.0},
		{"night", model.WeatherSample{AmbientTemperature: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SolarOutput(5, 1, tt.w)
			if tt.name == "clipped above reference" {
				assert.Less(t, got, 5.0, "hot cell lowers output")
				return
			}
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestSolarOutputHeatReducesPower(t *testing.T) {
	cool := SolarOutput(5, 1, model.WeatherSample{IrradianceWM2: 800, AmbientTemperature: 5})
	hot := SolarOutput(5, 1, model.WeatherSample{IrradianceWM2: 800, AmbientTemperature: 35})
	assert.Greater(t, cool, hot)
}

func TestSolarFactor(t *testing.T) {
	w := model.WeatherSample{IrradianceWM2: 600, AmbientTemperature: 20, WindSpeedMS: 2}
	assert.InDelta(t, SolarOutput(4, 1, w)/2, SolarOutput(4, 0.5, w), 1e-6)
}

func TestWindOutput(t *testing.T) {
	kw, status := WindOutput(0, 1, 1, model.WeatherSample{WindSpeedMS: 10})
	assert.Equal(t, StatusGenerating, status)
	assert.InDelta(t, 0.6125, kw, 1e-9)

	kw, _ = WindOutput(0.5, 2, 1, model.WeatherSample{WindSpeedMS: 10})
	assert.InDelta(t, 1.0, kw, 1e-9)

	kw, status = WindOutput(100, 1, 1, model.WeatherSample{WindSpeedMS: 2})
	assert.Zero(t, kw)
	assert.Equal(t, StatusIdle, status)

	kw, status = WindOutput(100, 1, 1, model.WeatherSample{WindSpeedMS: 26})
	assert.Zero(t, kw)
	assert.Equal(t, StatusHandbrake, status)
}

func TestAirDensity(t *testing.T) {
	assert.Equal(t, DefaultAirDensity, AirDensity(0, 20))
	assert.InDelta(t, 1.225, AirDensity(101325, 15), 0.001)
}

func TestSessionActiveWraps(t *testing.T) {
	s := Session{StartHour: 22, DurationHours: 4}
	for _, h := range []int{22, 23, 0, 1} {
		assert.True(t, s.Active(h), "hour %d", h)
	}
	for _, h := range []int{2, 12, 21} {
		assert.False(t, s.Active(h), "hour %d", h)
	}
	assert.Equal(t, 2, s.EndHour())
	assert.False(t, Session{StartHour: 3}.Active(3))
	assert.True(t, Session{StartHour: 3, DurationHours: 24}.Active(2))
}

func TestRandomSessionReproducible(t *testing.T) {
	a := RandomSession(NewRand(42, "grid/cs1"))
	b := RandomSession(NewRand(42, "grid/cs1"))
	assert.Equal(t, a, b)

	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		s := RandomSession(r)
		assert.GreaterOrEqual(t, s.StartHour, 0)
		assert.Less(t, s.StartHour, 24)
		assert.GreaterOrEqual(t, s.DurationHours, 1)
		assert.LessOrEqual(t, s.DurationHours, 23)
	}
}
