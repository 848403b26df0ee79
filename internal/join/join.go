// Package join implements in-memory inner hash joins over frames plus the
// declarative column normalization applied after joining.
//
// Joins here are deliberately narrow: inner only, equality on one or more
// named key columns, both inputs fully materialized. The pipeline guarantees
// the inputs are the small, key-filtered frames, so a build-and-probe hash
// join is sufficient. Probe order follows the left frame's row order, which
// makes output order deterministic for deterministic inputs.
package join

import (
	"fmt"
	"strings"

	"stats19/internal/frame"
)

// DefaultSuffix is appended to right-side column names that collide with a
// left-side column and are not join keys.
const DefaultSuffix = "_right"

// Inner performs an inner equality join of left and right on the named key
// columns, which must exist in both frames.
//
// The output carries all left columns in order, then the right columns in
// order minus the key columns (the key values are taken from the left side).
// A right column whose name collides with any left column is renamed with
// suffix. Rows with a nil or blank value in any key component never match on
// either side; they are simply dropped, matching the inner-join contract.
func Inner(left, right *frame.Frame, on []string, suffix string) (*frame.Frame, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("join: at least one key column required")
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}

	leftKeys, err := keyIndexes(left, on)
	if err != nil {
		return nil, fmt.Errorf("join: left: %w", err)
	}
	rightKeys, err := keyIndexes(right, on)
	if err != nil {
		return nil, fmt.Errorf("join: right: %w", err)
	}

	// Output schema: left columns, then non-key right columns with collisions
	// suffixed.
	leftSet := make(map[string]struct{}, len(left.Columns))
	for _, c := range left.Columns {
		leftSet[c] = struct{}{}
	}
	keySet := make(map[string]struct{}, len(on))
	for _, c := range on {
		keySet[c] = struct{}{}
	}

	outCols := make([]string, 0, len(left.Columns)+len(right.Columns))
	outCols = append(outCols, left.Columns...)
	rightPick := make([]int, 0, len(right.Columns))
	for i, c := range right.Columns {
		if _, isKey := keySet[c]; isKey {
			continue
		}
		if _, clash := leftSet[c]; clash {
			c += suffix
		}
		outCols = append(outCols, c)
		rightPick = append(rightPick, i)
	}
	if err := checkDistinct(outCols); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}

	// Build side: index the right frame by composite key.
	index := make(map[string][]int, right.Len())
	for i := range right.Rows {
		k, ok := compositeKey(right, i, rightKeys)
		if !ok {
			continue
		}
		index[k] = append(index[k], i)
	}

	// Probe side: left rows in input order.
	out := frame.New(outCols)
	for i := range left.Rows {
		k, ok := compositeKey(left, i, leftKeys)
		if !ok {
			continue
		}
		for _, ri := range index[k] {
			row := make([]any, 0, len(outCols))
			row = append(row, left.Rows[i]...)
			for _, ci := range rightPick {
				row = append(row, right.Rows[ri][ci])
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// keyIndexes resolves the key column positions in f.
func keyIndexes(f *frame.Frame, on []string) ([]int, error) {
	idx := make([]int, len(on))
	for i, c := range on {
		ci := f.ColIndex(c)
		if ci < 0 {
			return nil, fmt.Errorf("key column %q not present (have %v)", c, f.Columns)
		}
		idx[i] = ci
	}
	return idx, nil
}

// compositeKey renders the key cells of one row as a single map key.
// ok is false when any component is nil or blank.
func compositeKey(f *frame.Frame, row int, cols []int) (string, bool) {
	parts := make([]string, len(cols))
	for i, ci := range cols {
		k, ok := f.Key(row, ci)
		if !ok {
			return "", false
		}
		parts[i] = k
	}
	return strings.Join(parts, "\x1f"), true
}

// checkDistinct rejects duplicate column names in a schema.
func checkDistinct(cols []string) error {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("duplicate column %q in join output", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}
