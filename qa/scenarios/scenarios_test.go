package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("scenarios run in real time")
	}
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	data := `scenario:
  name: tiny
  expected:
    ticks: 2
    max_degraded: 0
simulation_time:
  rate: 3600
  simulation_start_date: "2024-06-01T10:00:00"
  simulation_end_date: "2024-06-01T12:00:00"
network:
  name: grid
  children:
    - asset: {name: pv, type: solarpanel, max_power_kw: 5}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tiny", sc.Name)
	assert.Equal(t, 2, sc.Expected.Ticks)
	require.NotNil(t, sc.Expected.MaxDegraded)
	assert.Equal(t, 0, *sc.Expected.MaxDegraded)
	assert.Nil(t, sc.Expected.MinAverageKW)
	assert.Equal(t, "grid", sc.Config.Network.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
