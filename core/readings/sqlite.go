package readings

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS readings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        tick INTEGER,
        source TEXT,
        node_type TEXT,
        power_kw REAL,
        status TEXT,
        aggregate INTEGER
    );
    CREATE INDEX IF NOT EXISTS readings_tick ON readings (tick);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (tick, source, node_type, power_kw, status, aggregate) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Tick.UnixNano(), rec.Source, rec.NodeType, rec.PowerKW, rec.Status, rec.Aggregate)
	return err
}

// Query returns records matching q ordered by tick.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT tick, source, node_type, power_kw, status, aggregate FROM readings WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND tick >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND tick <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Source != "" {
		query += ` AND source = ?`
		args = append(args, q.Source)
	}
	if q.Aggregates {
		query += ` AND aggregate = 1`
	}
	query += ` ORDER BY tick, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var (
			r    Record
			tick int64
		)
		if err := rows.Scan(&tick, &r.Source, &r.NodeType, &r.PowerKW, &r.Status, &r.Aggregate); err != nil {
			return nil, err
		}
		r.Tick = unixNano(tick)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
