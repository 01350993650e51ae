package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/gridsim/core/model"
)

// Column names of the climate dataset.
const (
	colLocal       = "Local []"
	colIrradiance  = "Irradiance [W/m^2]"
	colAmbient     = "T_ambient [Degrees Celsius]"
	colGround      = "T_ground [Degrees Celsius]"
	colWind        = "Wind [m/s]"
	colCloud       = "Cloud [okta]"
	colPressure    = "Pressure [Pa]"
	colRain        = "Rain [mm/hr]"
	localLayout    = "2006-01-02 15:04:05"
	localYearFixup = "0000-"
)

// ErrNoSample is returned when a dataset has no row for the requested hour.
var ErrNoSample = errors.New("weather: no sample for hour")

type hourKey struct {
	month time.Month
	day   int
	hour  int
}

func keyOf(t time.Time) hourKey { return hourKey{t.Month(), t.Day(), t.Hour()} }

// CSVSource serves an hourly climate dataset keyed by month, day and hour,
// so any simulated year maps onto the same data.
type CSVSource struct {
	rows map[hourKey]model.WeatherSample
}

// LoadCSV reads the dataset at path.
func LoadCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weather data: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a dataset from r.
func ReadCSV(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read weather header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range []string{colLocal, colIrradiance, colAmbient, colWind} {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("weather data: missing column %q", c)
		}
	}

	src := &CSVSource{rows: map[hourKey]model.WeatherSample{}}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("weather data line %d: %w", line, err)
		}
		ts, err := parseLocal(rec[idx[colLocal]])
		if err != nil {
			return nil, fmt.Errorf("weather data line %d: %w", line, err)
		}
		var s model.WeatherSample
		fields := []struct {
			col string
			dst *float64
		}{
			{colIrradiance, &s.IrradianceWM2},
			{colAmbient, &s.AmbientTemperature},
			{colGround, &s.GroundTemperature},
			{colWind, &s.WindSpeedMS},
			{colCloud, &s.CloudCoverageOkta},
			{colPressure, &s.AirPressurePa},
			{colRain, &s.RainMMH},
		}
		for _, f := range fields {
			i, ok := idx[f.col]
			if !ok || i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("weather data line %d column %q: %w", line, f.col, err)
			}
			*f.dst = v
		}
		src.rows[keyOf(ts)] = s
	}
	return src, nil
}

// parseLocal reads timestamps such as "0000-06-01 12:30:00". The year is
// only a placeholder in the dataset.
func parseLocal(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, localYearFixup) {
		v = "2000-" + strings.TrimPrefix(v, localYearFixup)
	}
	return time.Parse(localLayout, v)
}

// Len returns the number of hourly rows.
func (s *CSVSource) Len() int { return len(s.rows) }

// Sample implements Source.
func (s *CSVSource) Sample(at time.Time) (model.WeatherSample, error) {
	row, ok := s.rows[keyOf(at)]
	if !ok {
		return model.WeatherSample{}, fmt.Errorf("%w %s", ErrNoSample, at.Format("01-02 15h"))
	}
	row.Timestamp = at.Truncate(time.Hour)
	return row, nil
}
