// Package kpi persists daily energy KPIs of grid nodes.
package kpi

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/gridsim/core/metrics/energy"
)

// SQLiteStore persists energy records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS energy_kpi (
        address TEXT,
        day INTEGER,
        generated REAL,
        consumed REAL,
        PRIMARY KEY(address, day)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add inserts or accumulates the record of its node and day.
func (s *SQLiteStore) Add(r energy.Record) error {
	d := energy.Day(r.Date)
	_, err := s.db.Exec(`INSERT INTO energy_kpi (address, day, generated, consumed)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(address, day) DO UPDATE SET
            generated = generated + excluded.generated,
            consumed = consumed + excluded.consumed`,
		r.Address, d.Unix(), r.GeneratedKWh, r.ConsumedKWh)
	return err
}

// Query returns records in the range [start,end].
func (s *SQLiteStore) Query(address string, start, end time.Time) ([]energy.Record, error) {
	start = energy.Day(start)
	end = energy.Day(end)
	rows, err := s.db.Query(`SELECT address, day, generated, consumed
        FROM energy_kpi WHERE address = ? AND day >= ? AND day <= ? ORDER BY day`,
		address, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []energy.Record
	for rows.Next() {
		var addr string
		var ts int64
		var gen, cons float64
		if err := rows.Scan(&addr, &ts, &gen, &cons); err != nil {
			return nil, err
		}
		res = append(res, energy.Record{
			Address:      addr,
			Date:         time.Unix(ts, 0).UTC(),
			GeneratedKWh: gen,
			ConsumedKWh:  cons,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Addresses lists the nodes holding at least one record.
func (s *SQLiteStore) Addresses() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT address FROM energy_kpi ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
