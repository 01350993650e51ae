package model

import "time"

// PowerReading is reported by an agent to its parent once per tick.
// PowerKW is signed: positive values are generation, negative values are
// consumption.
type PowerReading struct {
	Source  string    `json:"source_address"`
	Tick    time.Time `json:"tick_timestamp"`
	PowerKW float64   `json:"power_kw"`
	Status  string    `json:"status,omitempty"`
}

// DemandRequest is sent by a smart charging station to its CPO for each tick
// it has an active session.
type DemandRequest struct {
	Station      string    `json:"station_address"`
	Tick         time.Time `json:"tick_timestamp"`
	RequestedKW  float64   `json:"requested_power_kw"`
	ArrivalOrder int       `json:"arrival_order"`
}

// AllocationDecision is the CPO's answer to a DemandRequest. GrantedKW never
// exceeds the requested power.
type AllocationDecision struct {
	Station     string    `json:"station_address"`
	Tick        time.Time `json:"tick_timestamp"`
	GrantedKW   float64   `json:"granted_power_kw"`
	RequestedKW float64   `json:"requested_power_kw"`
}

// Throttled reports whether the station received less than it asked for.
func (d AllocationDecision) Throttled() bool { return d.GrantedKW < d.RequestedKW }

// StationRegistration announces a smart charging station to its CPO.
type StationRegistration struct {
	Station    string  `json:"station_address"`
	MaxPowerKW float64 `json:"max_power_kw"`
}
