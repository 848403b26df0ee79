// Package filter implements the two gating passes of the pipeline: the
// predicate-driven key extraction over the primary dataset, and the
// key-filtered re-load of each dataset against the accumulated key set.
//
// The key set is the only state shared between passes. It is built once by
// CollectKeys, never mutated afterwards, and consulted by every Reload call.
// Keys are opaque strings; they are never parsed or normalized beyond the
// reader's own trimming.
package filter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"stats19/internal/frame"
	"stats19/internal/reader"
)

// KeySet is a membership set of primary keys.
type KeySet map[string]struct{}

// Add inserts k into the set.
func (s KeySet) Add(k string) { s[k] = struct{}{} }

// Has reports whether k is a member.
func (s KeySet) Has(k string) bool {
	_, ok := s[k]
	return ok
}

// Predicate produces a keep-mask for one frame of the primary dataset.
// The returned slice must have one entry per row.
type Predicate func(f *frame.Frame) ([]bool, error)

// ColumnEquals returns a Predicate keeping rows whose column renders to the
// given text. Comparison happens after type coercion, so "14" matches an int
// cell holding 14 as well as a text cell holding "14".
func ColumnEquals(column, value string) Predicate {
	return func(f *frame.Frame) ([]bool, error) {
		ci := f.ColIndex(column)
		if ci < 0 {
			return nil, fmt.Errorf("predicate column %q not present (have %v)", column, f.Columns)
		}
		mask := make([]bool, f.Len())
		for i := range f.Rows {
			mask[i] = frame.Text(f.Rows[i][ci]) == value
		}
		return mask, nil
	}
}

// CollectKeys drives rd to exhaustion, applies pred to every frame, and
// returns the set of keyColumn values from rows the predicate kept, plus the
// total number of rows scanned.
//
// Rows whose key cell is nil or blank contribute nothing even when the
// predicate keeps them: a record without a key can never be joined.
func CollectKeys(
	ctx context.Context,
	rd *reader.ChunkReader,
	keyColumn string,
	pred Predicate,
) (KeySet, int64, error) {
	defer rd.Close()

	keys := make(KeySet)
	var scanned int64

	for {
		f, err := rd.Next(ctx)
		if errors.Is(err, io.EOF) {
			return keys, scanned, nil
		}
		if err != nil {
			return nil, scanned, err
		}
		scanned += int64(f.Len())

		mask, err := pred(f)
		if err != nil {
			return nil, scanned, err
		}
		if len(mask) != f.Len() {
			return nil, scanned, fmt.Errorf("predicate returned %d entries for %d rows", len(mask), f.Len())
		}

		ci := f.ColIndex(keyColumn)
		if ci < 0 {
			return nil, scanned, fmt.Errorf("key column %q not present (have %v)", keyColumn, f.Columns)
		}
		for i, keep := range mask {
			if !keep {
				continue
			}
			if k, ok := f.Key(i, ci); ok {
				keys.Add(k)
			}
		}
	}
}
