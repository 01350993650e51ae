package plugins

import (
	"sort"

	"github.com/kilianp07/gridsim/core/agent"
)

// Agents maps node types to the constructors registered for them.
var Agents = map[string]agent.Constructor{}

// RegisterAgent adds a constructor for typ, replacing any previous one.
func RegisterAgent(typ string, c agent.Constructor) { Agents[typ] = c }

// AgentTypes lists the registered node types in sorted order.
func AgentTypes() []string {
	out := make([]string, 0, len(Agents))
	for t := range Agents {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NewFactory returns an agent factory holding every registered constructor.
func NewFactory() (*agent.Factory, error) {
	f := agent.NewFactory()
	for _, t := range AgentTypes() {
		if err := f.Register(t, Agents[t]); err != nil {
			return nil, err
		}
	}
	return f, nil
}
