package readings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, s Store) {
	t.Helper()
	recs := []Record{
		{Tick: start, Source: "grid/pv1", NodeType: "solarpanel", PowerKW: 3, Status: "generating"},
		{Tick: start, Source: "grid", NodeType: "network", PowerKW: 3, Status: "complete", Aggregate: true},
		{Tick: start.Add(time.Hour), Source: "grid/pv1", NodeType: "solarpanel", PowerKW: 2.5, Status: "generating"},
	}
	for _, r := range recs {
		require.NoError(t, s.Append(context.Background(), r))
	}
}

func checkQueries(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySource, err := s.Query(ctx, Query{Source: "grid/pv1"})
	require.NoError(t, err)
	require.Len(t, bySource, 2)
	assert.InDelta(t, 2.5, bySource[1].PowerKW, 1e-9)
	assert.True(t, bySource[1].Tick.Equal(start.Add(time.Hour)))

	agg, err := s.Query(ctx, Query{Aggregates: true})
	require.NoError(t, err)
	require.Len(t, agg, 1)
	assert.Equal(t, "grid", agg[0].Source)
	assert.Equal(t, "complete", agg[0].Status)

	late, err := s.Query(ctx, Query{Start: start.Add(time.Minute)})
	require.NoError(t, err)
	assert.Len(t, late, 1)

	early, err := s.Query(ctx, Query{End: start})
	require.NoError(t, err)
	assert.Len(t, early, 2)
}

func TestJSONLStore_Query(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "readings.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	seed(t, s)
	checkQueries(t, s)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	rec := Record{Tick: start, Source: "grid/pv1", NodeType: "solarpanel", PowerKW: 1}
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Append(context.Background(), rec))
	}
	files, _ := filepath.Glob(path + "*")
	assert.NotEmpty(t, files)
	out, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 100)
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "readings.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	seed(t, s)
	checkQueries(t, s)
}

func TestSQLiteStore_PersistQuery(t *testing.T) {
	s, err := NewSQLiteStore("file:readings_test.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	seed(t, s)
	checkQueries(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{Backend: BackendNone})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = Open(Options{Backend: BackendJSONL, Path: filepath.Join(t.TempDir(), "r.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = Open(Options{Backend: BackendJSONL, Path: filepath.Join(t.TempDir(), "r.jsonl"), MaxSizeMB: 1})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	_ = s.Close()

	_, err = Open(Options{Backend: "parquet"})
	assert.Error(t, err)
}
