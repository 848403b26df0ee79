package sink

import (
	"context"
	"reflect"
	"testing"

	"stats19/internal/frame"
	"stats19/internal/storage"
)

// fakeRepo records the calls it receives.
type fakeRepo struct {
	ensured []storage.Column
	batches [][][]any
	closed  bool
}

func (r *fakeRepo) EnsureTable(ctx context.Context, columns []storage.Column) error {
	r.ensured = columns
	return nil
}

func (r *fakeRepo) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	batch := make([][]any, len(rows))
	copy(batch, rows)
	r.batches = append(r.batches, batch)
	return int64(len(rows)), nil
}

func (r *fakeRepo) Close() error {
	r.closed = true
	return nil
}

// TestDBWrite checks table creation, kind inference, and batching.
func TestDBWrite(t *testing.T) {
	t.Parallel()

	f := frame.New([]string{"accident_index", "speed_limit", "latitude", "empty"})
	f.Rows = [][]any{
		{"A1", nil, nil, nil},
		{"A2", int64(30), float64(51.5), nil},
		{"A3", int64(60), float64(50.1), nil},
	}

	repo := &fakeRepo{}
	s := NewDB(repo, true, 2)

	n, err := s.Write(context.Background(), f)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Fatalf("written = %d; want 3", n)
	}

	wantCols := []storage.Column{
		{Name: "accident_index", Kind: "text"},
		{Name: "speed_limit", Kind: "int"},
		{Name: "latitude", Kind: "real"},
		{Name: "empty", Kind: "text"},
	}
	if !reflect.DeepEqual(repo.ensured, wantCols) {
		t.Fatalf("EnsureTable columns = %v; want %v", repo.ensured, wantCols)
	}

	if len(repo.batches) != 2 || len(repo.batches[0]) != 2 || len(repo.batches[1]) != 1 {
		t.Fatalf("batch sizes = %v; want [2 1]", batchSizes(repo.batches))
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !repo.closed {
		t.Fatalf("Close did not reach the repository")
	}
}

// TestDBWrite_NoAutoCreate checks EnsureTable is skipped when disabled.
func TestDBWrite_NoAutoCreate(t *testing.T) {
	t.Parallel()

	f := frame.New([]string{"a"})
	f.Rows = [][]any{{"1"}}

	repo := &fakeRepo{}
	s := NewDB(repo, false, 0)
	if _, err := s.Write(context.Background(), f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if repo.ensured != nil {
		t.Fatalf("EnsureTable called with auto-create disabled")
	}
	if len(repo.batches) != 1 {
		t.Fatalf("batches = %d; want 1 with default batch size", len(repo.batches))
	}
}

func batchSizes(batches [][][]any) []int {
	out := make([]int, len(batches))
	for i, b := range batches {
		out[i] = len(b)
	}
	return out
}
