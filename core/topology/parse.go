package topology

import (
	"fmt"
	"maps"
	"time"

	corelogger "github.com/kilianp07/gridsim/core/logger"
)

// TypeSet reports whether a node type can be instantiated.
type TypeSet interface {
	Has(typ string) bool
}

// KnownTypes is a static TypeSet.
type KnownTypes map[string]struct{}

// NewKnownTypes builds a KnownTypes from names.
func NewKnownTypes(names ...string) KnownTypes {
	k := make(KnownTypes, len(names))
	for _, n := range names {
		k[n] = struct{}{}
	}
	return k
}

// Has implements TypeSet.
func (k KnownTypes) Has(typ string) bool {
	_, ok := k[typ]
	return ok
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse validates doc and builds the addressed tree. types decides which
// node types are instantiable; a nil TypeSet accepts every type.
func Parse(doc Document, types TypeSet) (*Tree, error) {
	win, err := ParseWindow(doc.SimulationTime)
	if err != nil {
		return nil, err
	}
	if doc.Network == nil {
		return nil, configErr("network", "a root network is required")
	}
	p := &parser{types: types}
	root, err := p.network(*doc.Network, nil, "network")
	if err != nil {
		return nil, err
	}
	tree := &Tree{Window: win, Root: root}

	specs := doc.InteractionAssets
	if doc.InteractionAsset != nil {
		specs = append([]AssetSpec{*doc.InteractionAsset}, specs...)
	}
	seen := map[string]bool{root.Name: true}
	for i, spec := range specs {
		path := fmt.Sprintf("interaction_assets[%d]", i)
		n, err := p.asset(spec, nil, path)
		if err != nil {
			return nil, err
		}
		if seen[n.Name] {
			return nil, configErr(path, "name %q collides with another top level node", n.Name)
		}
		seen[n.Name] = true
		n.Interaction = true
		tree.Interaction = append(tree.Interaction, n)
	}

	if err := resolveReferences(tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// ParseWindow validates the simulation_time block.
func ParseWindow(spec SimulationTimeSpec) (Window, error) {
	start, err := parseTime(spec.Start)
	if err != nil {
		return Window{}, &ConfigError{Path: "simulation_time.simulation_start_date", Err: err}
	}
	end, err := parseTime(spec.End)
	if err != nil {
		return Window{}, &ConfigError{Path: "simulation_time.simulation_end_date", Err: err}
	}
	if spec.Rate <= 0 {
		return Window{}, configErr("simulation_time.rate", "rate must be positive, got %v", spec.Rate)
	}
	w := Window{Start: start, End: end, Rate: spec.Rate}
	if w.Step() <= 0 {
		return Window{}, configErr("simulation_time.rate", "rate %v is below the clock resolution", spec.Rate)
	}
	if !end.After(start) {
		return Window{}, configErr("simulation_time", "end %s must be after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return w, nil
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t != nil {
			return *t, nil
		}
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparsable date %q", t)
	}
	if v == nil {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Time{}, fmt.Errorf("unsupported date value %v (%T)", v, v)
}

type parser struct {
	types TypeSet
}

func (p *parser) known(typ string) bool {
	return p.types == nil || p.types.Has(typ)
}

func (p *parser) network(spec NetworkSpec, parent *Node, path string) (*Node, error) {
	if err := validateName(path, spec.Name); err != nil {
		return nil, err
	}
	n := &Node{
		Name:   spec.Name,
		Kind:   KindNetwork,
		Type:   spec.Type,
		Parent: parent,
		Params: map[string]any{},
	}
	if parent != nil {
		n.Address = Join(parent.Address, spec.Name)
	} else {
		n.Address = spec.Name
	}
	if n.Type == "" {
		n.Type = NetworkType
	}
	if !p.known(n.Type) {
		return nil, &ConfigError{Path: n.Address, Err: &UnknownAssetTypeError{Type: n.Type, Address: n.Address}}
	}
	if spec.MaxPowerKW != nil {
		n.Params[ParamMaxPowerKW] = *spec.MaxPowerKW
	}
	thr, err := inheritThreshold(n.Address, spec.LogThreshold, parent)
	if err != nil {
		return nil, err
	}
	n.LogThreshold = thr
	if err := p.children(n, spec.Children); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) children(parent *Node, specs []ChildSpec) error {
	names := make(map[string]bool, len(specs))
	for i, c := range specs {
		path := fmt.Sprintf("%s/children[%d]", parent.Address, i)
		var (
			child *Node
			err   error
		)
		switch {
		case c.Network != nil && c.Asset != nil:
			return configErr(path, "child must be either a network or an asset, not both")
		case c.Network != nil:
			child, err = p.network(*c.Network, parent, path)
		case c.Asset != nil:
			child, err = p.asset(*c.Asset, parent, path)
		default:
			return configErr(path, "child must declare a network or an asset")
		}
		if err != nil {
			return err
		}
		if names[child.Name] {
			return configErr(path, "name %q is already used by a sibling under %s", child.Name, parent.Address)
		}
		names[child.Name] = true
		parent.Children = append(parent.Children, child)
	}
	return nil
}

func (p *parser) asset(spec AssetSpec, parent *Node, path string) (*Node, error) {
	if err := validateName(path, spec.Name); err != nil {
		return nil, err
	}
	addr := spec.Name
	if parent != nil {
		addr = Join(parent.Address, spec.Name)
	}
	if spec.Type == "" {
		return nil, configErr(addr, "asset has no type")
	}
	if !p.known(spec.Type) {
		return nil, &ConfigError{Path: addr, Err: &UnknownAssetTypeError{Type: spec.Type, Address: addr}}
	}
	if len(spec.Children) > 0 {
		return nil, configErr(addr, "asset %q cannot have children", spec.Name)
	}
	params := make(map[string]any, len(spec.Args)+2)
	maps.Copy(params, spec.Args)
	if spec.MaxPowerKW != nil {
		if *spec.MaxPowerKW < 0 {
			return nil, configErr(addr, "max_power_kw must not be negative")
		}
		params[ParamMaxPowerKW] = *spec.MaxPowerKW
	}
	factor := 1.0
	if spec.Factor != nil {
		factor = *spec.Factor
	}
	params[ParamFactor] = factor

	thr, err := inheritThreshold(addr, spec.LogThreshold, parent)
	if err != nil {
		return nil, err
	}
	return &Node{
		Name:         spec.Name,
		Kind:         KindAsset,
		Type:         spec.Type,
		Address:      addr,
		Parent:       parent,
		Params:       params,
		LogThreshold: thr,
	}, nil
}

func inheritThreshold(path, declared string, parent *Node) (string, error) {
	if declared == "" {
		if parent != nil {
			return parent.LogThreshold, nil
		}
		return "", nil
	}
	lvl, err := corelogger.ParseLevel(declared)
	if err != nil {
		return "", &ConfigError{Path: path, Reason: "invalid log_threshold", Err: err}
	}
	return string(lvl), nil
}

// resolveReferences turns "cpo" and "network" parameters into addresses.
func resolveReferences(t *Tree) error {
	interaction := make(map[string]*Node, len(t.Interaction))
	for _, n := range t.Interaction {
		interaction[n.Name] = n
	}
	byAddr := map[string]*Node{}
	byName := map[string][]*Node{}
	t.Root.Walk(func(n *Node) {
		if n.Kind == KindNetwork {
			byAddr[n.Address] = n
			byName[n.Name] = append(byName[n.Name], n)
		}
	})

	for _, n := range t.Nodes() {
		if raw, ok := n.Params[ParamCPO]; ok && n.Kind == KindAsset {
			ref, ok := raw.(string)
			if !ok || ref == "" {
				return configErr(n.Address, "cpo reference must be a name")
			}
			target, ok := interaction[ref]
			if !ok {
				return configErr(n.Address, "cpo %q is not a declared interaction asset", ref)
			}
			n.Params[ParamCPO] = target.Address
		}
		if n.Kind != KindAsset {
			continue
		}
		raw, ok := n.Params[ParamNetwork]
		if !ok && !n.Interaction {
			continue
		}
		var governed *Node
		if !ok {
			governed = t.Root
		} else {
			ref, isStr := raw.(string)
			if !isStr || ref == "" {
				return configErr(n.Address, "network reference must be a name or address")
			}
			if exact, found := byAddr[ref]; found {
				governed = exact
			} else {
				switch cands := byName[ref]; len(cands) {
				case 0:
					return configErr(n.Address, "network %q does not exist", ref)
				case 1:
					governed = cands[0]
				default:
					return configErr(n.Address, "network %q is ambiguous, use its full address", ref)
				}
			}
		}
		n.Params[ParamNetwork] = governed.Address
		if v, ok := governed.Float(ParamMaxPowerKW); ok {
			n.Params[ParamNetworkMaxPowerKW] = v
		}
	}
	return nil
}
