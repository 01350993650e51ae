package grid

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/gridsim/core/readings"
)

// NewReadingsHandler exposes the reading log via GET /api/readings.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewReadingsHandler(store readings.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := readings.Query{Source: r.URL.Query().Get("source")}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := r.URL.Query().Get("aggregates"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				http.Error(w, "aggregates must be a boolean", http.StatusBadRequest)
				return
			}
			q.Aggregates = v
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []readings.Record{}
		}
		writeJSON(w, records)
	})
}
