package sink

import (
	"context"
	"fmt"

	"stats19/internal/frame"
	"stats19/internal/storage"
)

// defaultBatchSize bounds one bulk-load round trip when the config leaves
// batch_size unset.
const defaultBatchSize = 5000

// DB adapts a storage.Repository to the Sink contract: optionally creates
// the destination table from the frame's columns, then bulk-loads the rows
// in batches.
type DB struct {
	repo       storage.Repository
	autoCreate bool
	batchSize  int
}

// NewDB wraps repo as a sink. batchSize <= 0 selects the default.
func NewDB(repo storage.Repository, autoCreate bool, batchSize int) *DB {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &DB{repo: repo, autoCreate: autoCreate, batchSize: batchSize}
}

// Write loads the whole frame into the repository.
func (s *DB) Write(ctx context.Context, f *frame.Frame) (int64, error) {
	if s.autoCreate {
		if err := s.repo.EnsureTable(ctx, inferColumns(f)); err != nil {
			return 0, err
		}
	}

	var written int64
	for start := 0; start < len(f.Rows); start += s.batchSize {
		end := start + s.batchSize
		if end > len(f.Rows) {
			end = len(f.Rows)
		}
		n, err := s.repo.CopyFrom(ctx, f.Columns, f.Rows[start:end])
		written += n
		if err != nil {
			return written, fmt.Errorf("db sink: %w", err)
		}
	}
	return written, nil
}

// Close closes the underlying repository.
func (s *DB) Close() error { return s.repo.Close() }

// inferColumns derives DDL columns from the frame: the first non-nil cell in
// a column decides its kind, defaulting to text for all-nil columns.
func inferColumns(f *frame.Frame) []storage.Column {
	cols := make([]storage.Column, len(f.Columns))
	for i, name := range f.Columns {
		kind := "text"
		for _, row := range f.Rows {
			switch row[i].(type) {
			case nil:
				continue
			case int64:
				kind = "int"
			case float64:
				kind = "real"
			}
			break
		}
		cols[i] = storage.Column{Name: name, Kind: kind}
	}
	return cols
}
