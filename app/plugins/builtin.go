package plugins

import (
	"github.com/kilianp07/gridsim/core/cpo"
	"github.com/kilianp07/gridsim/core/network"
	"github.com/kilianp07/gridsim/core/prosumer"
	// registers the built-in metrics sinks
	_ "github.com/kilianp07/gridsim/infra/metrics"
)

func init() {
	RegisterAgent(network.Type, network.New)
	RegisterAgent(cpo.Type, cpo.New)
	RegisterAgent(prosumer.TypeSolarPanel, prosumer.NewSolarPanel)
	RegisterAgent(prosumer.TypeWindTurbine, prosumer.NewWindTurbine)
	RegisterAgent(prosumer.TypeChargingStation, prosumer.NewChargingStation)
}
