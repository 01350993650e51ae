package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridsim/core/factory"
)

func TestConfigSinkConfigs(t *testing.T) {
	c := Config{Sinks: []factory.ModuleConfig{
		{Type: "energy"},
		{Type: "energy", Conf: map[string]any{"emission_factor": 10.0, "path": "kpi.db"}},
		{Type: "prometheus"},
	}}
	c.SetDefaults()
	require.NoError(t, c.Validate())

	out := c.SinkConfigs()
	require.Len(t, out, 3)
	assert.Equal(t, 56.0, out[0].Conf["emission_factor"])
	assert.Equal(t, 10.0, out[1].Conf["emission_factor"])
	assert.Equal(t, "kpi.db", out[1].Conf["path"])
	assert.Nil(t, out[2].Conf)
	assert.Nil(t, c.Sinks[0].Conf)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Sinks: []factory.ModuleConfig{{}}}.Validate())
	assert.Error(t, Config{EmissionFactor: -1}.Validate())
}
