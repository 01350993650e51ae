// Package grid exposes the live state of a running simulation over HTTP.
package grid

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/gridsim/core/gridstatus"
	"github.com/kilianp07/gridsim/core/model"
	"github.com/kilianp07/gridsim/core/readings"
	"github.com/kilianp07/gridsim/pkg/export"
)

// Source is the view of a running simulation the API reads from.
type Source interface {
	Root() string
	Step() time.Duration
	History() []model.PowerReading
	Status() gridstatus.Store
}

// SummaryResponse is returned by GET /api/summary.
type SummaryResponse struct {
	Root    string             `json:"root"`
	Live    gridstatus.Summary `json:"live"`
	History export.Summary     `json:"history"`
}

// NewRouter returns the routes of the status API:
//
//	GET /api/nodes[?kind=network|asset&type=&under=]
//	GET /api/nodes/{address}
//	GET /api/summary
//	GET /api/readings[?start=&end=&source=&aggregates=]
func NewRouter(src Source, store readings.Store, token string) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/api/nodes", NewNodesHandler(src.Status())).Methods(http.MethodGet)
	r.Handle("/api/nodes/{address:.+}", NewNodeHandler(src.Status())).Methods(http.MethodGet)
	r.Handle("/api/summary", NewSummaryHandler(src)).Methods(http.MethodGet)
	if store != nil {
		r.Handle("/api/readings", NewReadingsHandler(store, token)).Methods(http.MethodGet)
	}
	return r
}

// NewNodesHandler lists node statuses sorted by address.
func NewNodesHandler(store gridstatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := gridstatus.Filter{Type: q.Get("type"), Under: q.Get("under")}
		kind := q.Get("kind")
		switch kind {
		case "", "asset":
		case "network":
			f.Aggregates = true
		default:
			http.Error(w, "kind must be network or asset", http.StatusBadRequest)
			return
		}
		entries := store.List(f)
		if kind == "asset" {
			assets := entries[:0]
			for _, e := range entries {
				if !e.Aggregate {
					assets = append(assets, e)
				}
			}
			entries = assets
		}
		if entries == nil {
			entries = []gridstatus.Status{}
		}
		writeJSON(w, entries)
	})
}

// NewNodeHandler returns the status of one node.
func NewNodeHandler(store gridstatus.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := store.Get(mux.Vars(r)["address"])
		if !ok {
			http.Error(w, "unknown node", http.StatusNotFound)
			return
		}
		writeJSON(w, st)
	})
}

// NewSummaryHandler totals the live state and the root history.
func NewSummaryHandler(src Source) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		root := src.Root()
		writeJSON(w, SummaryResponse{
			Root:    root,
			Live:    src.Status().Summary(root),
			History: export.Summarize(src.History(), src.Step()),
		})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
