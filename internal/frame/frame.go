// Package frame defines the small in-memory table passed between pipeline
// stages: an ordered list of column names plus rows of cells.
//
// A Frame is either one chunk of a streamed source (bounded by the reader's
// chunk size) or an accumulated, filtered dataset. Cells hold string, int64,
// or float64 values as produced by the reader's type coercion; nil marks an
// absent value. Identifier columns are always strings so that values like
// "2020010001" round-trip exactly.
package frame

import "fmt"

// Frame is an ordered set of named columns over a slice of rows.
// Row width always equals len(Columns).
type Frame struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty Frame with the given column order.
func New(columns []string) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{Columns: cols}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// ColIndex returns the position of the named column, or -1 when absent.
func (f *Frame) ColIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds one row. The row must match the frame width.
func (f *Frame) Append(row []any) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("frame: row width %d != column count %d", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	return nil
}

// AppendFrame appends all rows of other. Column names and order must match;
// this is the accumulation primitive used by the key-filtered re-loader.
func (f *Frame) AppendFrame(other *Frame) error {
	if other == nil || other.Len() == 0 {
		return nil
	}
	if len(f.Columns) != len(other.Columns) {
		return fmt.Errorf("frame: column count mismatch: %d vs %d", len(f.Columns), len(other.Columns))
	}
	for i, c := range f.Columns {
		if other.Columns[i] != c {
			return fmt.Errorf("frame: column %d mismatch: %q vs %q", i, c, other.Columns[i])
		}
	}
	f.Rows = append(f.Rows, other.Rows...)
	return nil
}

// Key returns the cell at (row, col) as an opaque string key.
// ok is false when the cell is nil or not a string; callers treat such rows
// as having no key (they can never match a key set or a join probe).
func (f *Frame) Key(row, col int) (string, bool) {
	if col < 0 || row < 0 || row >= len(f.Rows) {
		return "", false
	}
	s, ok := f.Rows[row][col].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Filter returns a new Frame containing the rows for which mask is true.
// The mask length must equal the row count. Rows are shared, not copied.
func (f *Frame) Filter(mask []bool) (*Frame, error) {
	if len(mask) != len(f.Rows) {
		return nil, fmt.Errorf("frame: mask length %d != row count %d", len(mask), len(f.Rows))
	}
	out := New(f.Columns)
	for i, keep := range mask {
		if keep {
			out.Rows = append(out.Rows, f.Rows[i])
		}
	}
	return out, nil
}
