// Package gridstatus keeps the latest known state of every node of the grid.
package gridstatus

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// LastAllocation mirrors the summary of a CPO admission round.
type LastAllocation struct {
	Tick        time.Time `json:"tick"`
	CapacityKW  float64   `json:"capacity_kw"`
	RequestedKW float64   `json:"requested_kw"`
	GrantedKW   float64   `json:"granted_kw"`
}

// Status captures the current known state of a node.
type Status struct {
	Address   string          `json:"address"`
	Type      string          `json:"type"`
	Aggregate bool            `json:"aggregate"`
	PowerKW   float64         `json:"power_kw"`
	State     string          `json:"state,omitempty"`
	Tick      time.Time       `json:"tick"`
	Readings  int             `json:"readings"`
	Missing   []string        `json:"missing,omitempty"`
	Degraded  int             `json:"degraded_rounds,omitempty"`
	Admission *LastAllocation `json:"last_allocation,omitempty"`
}

// Filter restricts List results. Zero fields match all.
type Filter struct {
	Type string
	// Under keeps nodes at or below this address.
	Under string
	// Aggregates keeps network nodes only.
	Aggregates bool
}

func (f Filter) match(st Status) bool {
	if f.Type != "" && st.Type != f.Type {
		return false
	}
	if f.Under != "" && st.Address != f.Under && !strings.HasPrefix(st.Address, f.Under+"/") {
		return false
	}
	if f.Aggregates && !st.Aggregate {
		return false
	}
	return true
}

// Summary totals the latest state of the grid.
type Summary struct {
	Nodes          int       `json:"nodes"`
	Tick           time.Time `json:"tick"`
	GridKW         float64   `json:"grid_kw"`
	GenerationKW   float64   `json:"generation_kw"`
	ConsumptionKW  float64   `json:"consumption_kw"`
	DegradedRounds int       `json:"degraded_rounds"`
}

type Store interface {
	Set(Status)
	Observe(address, typ string, aggregate bool, tick time.Time, kw float64, state string)
	RecordDegradation(address string, tick time.Time, missing []string)
	RecordAllocation(address string, a LastAllocation)
	Get(address string) (Status, bool)
	List(Filter) []Status
	Summary(root string) Summary
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) Set(st Status) {
	s.mu.Lock()
	s.data[st.Address] = st
	s.mu.Unlock()
}

// Observe records a reading. Readings older than the stored one are ignored.
func (s *MemoryStore) Observe(address, typ string, aggregate bool, tick time.Time, kw float64, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.data[address]
	st.Address = address
	st.Type = typ
	st.Aggregate = aggregate
	st.Readings++
	if tick.Before(st.Tick) {
		s.data[address] = st
		return
	}
	if tick.After(st.Tick) {
		st.Missing = nil
	}
	st.Tick = tick
	st.PowerKW = kw
	st.State = state
	s.data[address] = st
}

func (s *MemoryStore) RecordDegradation(address string, tick time.Time, missing []string) {
	s.mu.Lock()
	st := s.data[address]
	st.Address = address
	st.Degraded++
	if !tick.Before(st.Tick) {
		st.Missing = slices.Clone(missing)
	}
	s.data[address] = st
	s.mu.Unlock()
}

func (s *MemoryStore) RecordAllocation(address string, a LastAllocation) {
	s.mu.Lock()
	st := s.data[address]
	st.Address = address
	st.Admission = &a
	s.data[address] = st
	s.mu.Unlock()
}

func (s *MemoryStore) Get(address string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[address]
	return st, ok
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.match(st) {
			res = append(res, st)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Address < res[j].Address })
	return res
}

// Summary reports the root aggregate alongside generation and consumption
// totals of the leaf nodes.
func (s *MemoryStore) Summary(root string) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{Nodes: len(s.data)}
	for _, st := range s.data {
		sum.DegradedRounds += st.Degraded
		if st.Address == root {
			sum.GridKW = st.PowerKW
			sum.Tick = st.Tick
			continue
		}
		if st.Aggregate {
			continue
		}
		if st.PowerKW > 0 {
			sum.GenerationKW += st.PowerKW
		} else {
			sum.ConsumptionKW -= st.PowerKW
		}
	}
	return sum
}
