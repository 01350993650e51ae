package energy

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add inserts or updates the record aggregated by day and node.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.Address] == nil {
		s.data[r.Address] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.Address][d]
	if rec == nil {
		rec = &Record{Address: r.Address, Date: d}
		s.data[r.Address][d] = rec
	}
	rec.GeneratedKWh += r.GeneratedKWh
	rec.ConsumedKWh += r.ConsumedKWh
	return nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(address string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[address] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
