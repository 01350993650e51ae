package topology

// Document is the raw topology section of a configuration file.
type Document struct {
	SimulationTime    SimulationTimeSpec `json:"simulation_time" yaml:"simulation_time"`
	InteractionAsset  *AssetSpec         `json:"interaction_asset" yaml:"interaction_asset,omitempty"`
	InteractionAssets []AssetSpec        `json:"interaction_assets" yaml:"interaction_assets,omitempty"`
	Network           *NetworkSpec       `json:"network" yaml:"network"`
}

// SimulationTimeSpec describes the simulated window. Dates may be strings in
// ISO-8601 form or already decoded time.Time values.
type SimulationTimeSpec struct {
	Rate  float64 `json:"rate" yaml:"rate"`
	Start any     `json:"simulation_start_date" yaml:"simulation_start_date"`
	End   any     `json:"simulation_end_date" yaml:"simulation_end_date"`
}

// NetworkSpec is a network entry. Type defaults to "network".
type NetworkSpec struct {
	Name         string      `json:"name" yaml:"name"`
	Type         string      `json:"type" yaml:"type,omitempty"`
	MaxPowerKW   *float64    `json:"max_power_kw" yaml:"max_power_kw,omitempty"`
	LogThreshold string      `json:"log_threshold" yaml:"log_threshold,omitempty"`
	Children     []ChildSpec `json:"children" yaml:"children,omitempty"`
}

// ChildSpec wraps one child entry; exactly one of Network or Asset is set.
type ChildSpec struct {
	Network *NetworkSpec `json:"network" yaml:"network,omitempty"`
	Asset   *AssetSpec   `json:"asset" yaml:"asset,omitempty"`
}

// AssetSpec is a leaf entry or an interaction asset.
type AssetSpec struct {
	Name         string         `json:"name" yaml:"name"`
	Type         string         `json:"type" yaml:"type"`
	MaxPowerKW   *float64       `json:"max_power_kw" yaml:"max_power_kw,omitempty"`
	Factor       *float64       `json:"factor" yaml:"factor,omitempty"`
	LogThreshold string         `json:"log_threshold" yaml:"log_threshold,omitempty"`
	Args         map[string]any `json:"args" yaml:"args,omitempty"`
	Children     []ChildSpec    `json:"children" yaml:"children,omitempty"`
}
