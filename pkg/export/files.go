package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/gridsim/core/model"
)

// TimeLayout formats tick timestamps in exported files.
const TimeLayout = "2006-01-02 15:04:05"

// WriteCSV writes one datetimestamp,power_kw row per reading.
func WriteCSV(w io.Writer, history []model.PowerReading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"datetimestamp", "power_kw"}); err != nil {
		return err
	}
	for _, r := range history {
		row := []string{r.Tick.UTC().Format(TimeLayout), strconv.FormatFloat(r.PowerKW, 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Report is the JSON export document.
type Report struct {
	Root     string               `json:"root"`
	Summary  Summary              `json:"summary"`
	Readings []model.PowerReading `json:"readings"`
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// ChartHTML renders the aggregate as a line chart page.
func ChartHTML(title string, history []model.PowerReading) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date & Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Power (kW)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	xAxis := make([]string, 0, len(history))
	yAxis := make([]opts.LineData, 0, len(history))
	for _, r := range history {
		xAxis = append(xAxis, r.Tick.UTC().Format("2006-01-02 15:04"))
		yAxis = append(yAxis, opts.LineData{Value: r.PowerKW})
	}
	line.SetXAxis(xAxis).AddSeries("Grid power", yAxis)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

// Config selects the export files. Empty paths are skipped.
type Config struct {
	CSVPath   string `json:"csv_path"`
	JSONPath  string `json:"json_path"`
	ChartPath string `json:"chart_path"`
}

// Enabled reports whether any export is configured.
func (c Config) Enabled() bool {
	return c.CSVPath != "" || c.JSONPath != "" || c.ChartPath != ""
}

// Validate rejects a chart path that is not an HTML file.
func (c Config) Validate() error {
	if c.ChartPath != "" {
		switch filepath.Ext(c.ChartPath) {
		case ".html", ".htm":
		default:
			return fmt.Errorf("export.chart_path must end in .html")
		}
	}
	return nil
}

// Write exports the root history to every configured file.
func Write(cfg Config, root string, history []model.PowerReading, step time.Duration) error {
	if cfg.CSVPath != "" {
		if err := writeFile(cfg.CSVPath, func(w io.Writer) error { return WriteCSV(w, history) }); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	if cfg.JSONPath != "" {
		rep := Report{Root: root, Summary: Summarize(history, step), Readings: history}
		if err := writeFile(cfg.JSONPath, func(w io.Writer) error { return WriteJSON(w, rep) }); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
	}
	if cfg.ChartPath != "" {
		html, err := ChartHTML(root+" aggregate power", history)
		if err != nil {
			return err
		}
		if err := writeFile(cfg.ChartPath, func(w io.Writer) error {
			_, err := io.WriteString(w, html)
			return err
		}); err != nil {
			return fmt.Errorf("export chart: %w", err)
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
