package topology

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes aggregating networks from leaf assets.
type Kind string

const (
	KindNetwork Kind = "network"
	KindAsset   Kind = "asset"
)

// NetworkType is the implicit type of network entries.
const NetworkType = "network"

// Reserved addresses of the service agents. User names may not start with
// an underscore, so these never collide with topology addresses.
const (
	ClockAddress   = "_clock"
	WeatherAddress = "_weather"
)

// Parameter keys set by the parser.
const (
	ParamMaxPowerKW        = "max_power_kw"
	ParamFactor            = "factor"
	ParamCPO               = "cpo"
	ParamNetwork           = "network"
	ParamNetworkMaxPowerKW = "network_max_power_kw"
)

// Node is one validated element of the topology tree.
type Node struct {
	Name         string
	Kind         Kind
	Type         string
	Address      string
	Parent       *Node
	Children     []*Node
	Params       map[string]any
	LogThreshold string
	// Interaction marks top level interaction assets such as a CPO.
	Interaction bool
}

// Join builds a child address.
func Join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// ParentAddress returns the address of the parent node, or "" for roots.
func (n *Node) ParentAddress() string {
	if n.Parent == nil {
		return ""
	}
	return n.Parent.Address
}

// Height is 0 for leaves and 1 + the tallest child otherwise.
func (n *Node) Height() int {
	h := 0
	for _, c := range n.Children {
		if ch := c.Height() + 1; ch > h {
			h = ch
		}
	}
	return h
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// ChildAddresses lists the addresses of direct children in declaration order.
func (n *Node) ChildAddresses() []string {
	out := make([]string, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.Address
	}
	return out
}

// Float returns a numeric parameter.
func (n *Node) Float(key string) (float64, bool) {
	switch v := n.Params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns the node address.
func (n *Node) String() string { return n.Address }

// Window is the simulated time span of a run.
type Window struct {
	Start time.Time
	End   time.Time
	// Rate is the number of simulated seconds covered by one tick.
	Rate float64
}

// Step returns the simulated duration of one tick.
func (w Window) Step() time.Duration {
	return time.Duration(w.Rate * float64(time.Second))
}

// Ticks returns the number of ticks in the window: floor((end-start)/rate).
func (w Window) Ticks() int {
	step := w.Step()
	if step <= 0 || !w.End.After(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start) / step)
}

// At returns the simulated timestamp of tick i.
func (w Window) At(i int) time.Time {
	return w.Start.Add(time.Duration(i) * w.Step())
}

// Tree is the parsed topology.
type Tree struct {
	Window      Window
	Root        *Node
	Interaction []*Node
}

// Nodes returns every node: the network tree in pre-order followed by the
// interaction assets.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	if t.Root != nil {
		t.Root.Walk(func(n *Node) { out = append(out, n) })
	}
	out = append(out, t.Interaction...)
	return out
}

// Lookup finds a node by address.
func (t *Tree) Lookup(address string) (*Node, bool) {
	for _, n := range t.Nodes() {
		if n.Address == address {
			return n, true
		}
	}
	return nil, false
}

// Height returns the height of the network tree.
func (t *Tree) Height() int {
	if t.Root == nil {
		return 0
	}
	return t.Root.Height()
}

// View is a serialisable description of a node used by the CLI.
type View struct {
	Address  string         `yaml:"address" json:"address"`
	Kind     Kind           `yaml:"kind" json:"kind"`
	Type     string         `yaml:"type" json:"type"`
	Params   map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	Children []View         `yaml:"children,omitempty" json:"children,omitempty"`
}

// Describe returns a View of n and its descendants.
func (n *Node) Describe() View {
	v := View{Address: n.Address, Kind: n.Kind, Type: n.Type, Params: n.Params}
	for _, c := range n.Children {
		v.Children = append(v.Children, c.Describe())
	}
	return v
}

func validateName(path, name string) error {
	if name == "" {
		return configErr(path, "name is required")
	}
	if strings.HasPrefix(name, "_") {
		return configErr(path, "name %q must not start with '_'", name)
	}
	if i := strings.IndexAny(name, "/+#*>. \t\n"); i >= 0 {
		return configErr(path, "name %q contains reserved character %q", name, fmt.Sprintf("%c", name[i]))
	}
	return nil
}
