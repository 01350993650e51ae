package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/gridsim/config"
)

// Expected bounds the outcome of a scenario. Nil bounds are not checked.
type Expected struct {
	Ticks        int      `yaml:"ticks"`
	MaxDegraded  *int     `yaml:"max_degraded,omitempty"`
	MinAverageKW *float64 `yaml:"min_average_kw,omitempty"`
	MaxAverageKW *float64 `yaml:"max_average_kw,omitempty"`
	// MinLowestKW catches capacity breaches of consuming grids.
	MinLowestKW  *float64 `yaml:"min_lowest_kw,omitempty"`
	MaxHighestKW *float64 `yaml:"max_highest_kw,omitempty"`
}

type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Expected    Expected `yaml:"expected"`

	Config *config.Config `yaml:"-"`
}

// Load reads a scenario file: a regular configuration carrying an extra
// scenario section.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Scenario Scenario `yaml:"scenario"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	sc := doc.Scenario
	sc.Config = cfg
	return &sc, nil
}
