package agent

import (
	"fmt"

	"github.com/kilianp07/gridsim/core/factory"
	"github.com/kilianp07/gridsim/core/topology"
)

// Spec is the input of an agent constructor.
type Spec struct {
	Node   *topology.Node
	Parent string
	Deps   Deps
}

// Constructor builds an agent for a node.
type Constructor = factory.Factory[Spec, Agent]

// Factory maps node types to constructors.
type Factory struct {
	reg *factory.Registry[Spec, Agent]
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{reg: factory.NewRegistry[Spec, Agent]()}
}

// Register adds a constructor for typ.
func (f *Factory) Register(typ string, c Constructor) error {
	return f.reg.Register(typ, c)
}

// Has reports whether typ can be instantiated. Factory satisfies
// topology.TypeSet.
func (f *Factory) Has(typ string) bool { return f.reg.Has(typ) }

// Types lists the registered types.
func (f *Factory) Types() []string { return f.reg.Types() }

// Create instantiates the agent for node.
func (f *Factory) Create(node *topology.Node, parentAddress string, deps Deps) (Agent, error) {
	if !f.reg.Has(node.Type) {
		return nil, &topology.UnknownAssetTypeError{Type: node.Type, Address: node.Address}
	}
	a, err := f.reg.Create(node.Type, Spec{Node: node, Parent: parentAddress, Deps: deps})
	if err != nil {
		return nil, fmt.Errorf("create %s (%s): %w", node.Address, node.Type, err)
	}
	if a.Address() != node.Address {
		a.Close()
		return nil, fmt.Errorf("create %s: constructor bound address %s", node.Address, a.Address())
	}
	return a, nil
}

// Build instantiates one agent per node of tree, in tree order. On failure
// the agents created so far are closed.
func (f *Factory) Build(tree *topology.Tree, deps Deps) ([]Agent, error) {
	deps.Tree = tree
	nodes := tree.Nodes()
	agents := make([]Agent, 0, len(nodes))
	seen := make(map[string]struct{}, len(nodes))
	fail := func(err error) ([]Agent, error) {
		for _, a := range agents {
			a.Close()
		}
		return nil, err
	}
	for _, n := range nodes {
		if _, dup := seen[n.Address]; dup {
			return fail(fmt.Errorf("duplicate address %s", n.Address))
		}
		seen[n.Address] = struct{}{}
		a, err := f.Create(n, n.ParentAddress(), deps)
		if err != nil {
			return fail(err)
		}
		agents = append(agents, a)
	}
	return agents, nil
}
