// Package readings persists the power readings observed during a run so a
// run can be inspected after the fact.
package readings

import (
	"context"
	"fmt"
	"time"
)

// Record is one reading of one node for one tick.
type Record struct {
	Tick      time.Time `json:"tick"`
	Source    string    `json:"source"`
	NodeType  string    `json:"node_type"`
	PowerKW   float64   `json:"power_kw"`
	Status    string    `json:"status,omitempty"`
	Aggregate bool      `json:"aggregate"`
}

// Query defines filters for retrieving records. Zero fields match all.
type Query struct {
	Start  time.Time
	End    time.Time
	Source string
	// Aggregates restricts results to network readings when true.
	Aggregates bool
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Tick.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Tick.After(q.End) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.Aggregates && !r.Aggregate {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Backends.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Options selects and configures a store.
type Options struct {
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open returns the store described by o. A JSONL store rotates when
// MaxSizeMB is set.
func Open(o Options) (Store, error) {
	switch o.Backend {
	case BackendNone, "":
		return NopStore{}, nil
	case BackendJSONL:
		if o.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(o.Path, o.MaxSizeMB, o.MaxBackups, o.MaxAgeDays)
		}
		return NewJSONLStore(o.Path)
	case BackendSQLite:
		return NewSQLiteStore(o.Path)
	default:
		return nil, fmt.Errorf("unknown reading store backend %s", o.Backend)
	}
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
