package frame

import (
	"reflect"
	"testing"
)

// TestKey verifies the opaque-key contract: only non-empty string cells have
// a key; nil, empty, and numeric cells do not.
func TestKey(t *testing.T) {
	t.Parallel()

	f := New([]string{"accident_index", "n"})
	f.Rows = [][]any{
		{"2020010001", int64(1)},
		{nil, int64(2)},
		{"", int64(3)},
		{int64(42), int64(4)},
	}

	type tc struct {
		row    int
		col    int
		want   string
		wantOK bool
	}
	cases := []tc{
		{0, 0, "2020010001", true},
		{1, 0, "", false},
		{2, 0, "", false},
		{3, 0, "", false}, // int cell: keys are strings only
		{0, 1, "", false},
		{0, -1, "", false},
		{9, 0, "", false},
	}
	for _, c := range cases {
		got, ok := f.Key(c.row, c.col)
		if got != c.want || ok != c.wantOK {
			t.Fatalf("Key(%d,%d) = (%q,%v); want (%q,%v)", c.row, c.col, got, ok, c.want, c.wantOK)
		}
	}
}

// TestAppendFrame checks accumulation and its column-mismatch guards.
func TestAppendFrame(t *testing.T) {
	t.Parallel()

	acc := New([]string{"a", "b"})
	chunk := New([]string{"a", "b"})
	chunk.Rows = [][]any{{"1", "x"}, {"2", "y"}}

	if err := acc.AppendFrame(chunk); err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	if err := acc.AppendFrame(chunk); err != nil {
		t.Fatalf("AppendFrame (second): %v", err)
	}
	if acc.Len() != 4 {
		t.Fatalf("Len() = %d; want 4", acc.Len())
	}

	// Appending nil or an empty frame is a no-op.
	if err := acc.AppendFrame(nil); err != nil {
		t.Fatalf("AppendFrame(nil): %v", err)
	}
	if err := acc.AppendFrame(New([]string{"a", "b"})); err != nil {
		t.Fatalf("AppendFrame(empty): %v", err)
	}
	if acc.Len() != 4 {
		t.Fatalf("Len() after no-ops = %d; want 4", acc.Len())
	}

	// Column name mismatch must fail.
	bad := New([]string{"a", "c"})
	bad.Rows = [][]any{{"1", "x"}}
	if err := acc.AppendFrame(bad); err == nil {
		t.Fatalf("AppendFrame with mismatched columns: expected error, got nil")
	}

	// Width mismatch must fail.
	wide := New([]string{"a", "b", "c"})
	wide.Rows = [][]any{{"1", "x", "y"}}
	if err := acc.AppendFrame(wide); err == nil {
		t.Fatalf("AppendFrame with extra column: expected error, got nil")
	}
}

// TestFilter checks mask filtering and the mask-length guard.
func TestFilter(t *testing.T) {
	t.Parallel()

	f := New([]string{"a"})
	f.Rows = [][]any{{"1"}, {"2"}, {"3"}}

	out, err := f.Filter([]bool{true, false, true})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	want := [][]any{{"1"}, {"3"}}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Fatalf("Filter rows = %v; want %v", out.Rows, want)
	}

	if _, err := f.Filter([]bool{true}); err == nil {
		t.Fatalf("Filter with short mask: expected error, got nil")
	}
}

// TestText covers the cell rendering used for predicate comparison and CSV
// output.
func TestText(t *testing.T) {
	t.Parallel()

	type tc struct {
		in   any
		want string
	}
	cases := []tc{
		{nil, ""},
		{"2020010001", "2020010001"},
		{int64(14), "14"},
		{int64(-3), "-3"},
		{float64(2.5), "2.5"},
		{float64(10), "10"},
		{true, "true"},
		{false, "false"},
	}
	for _, c := range cases {
		if got := Text(c.in); got != c.want {
			t.Fatalf("Text(%v) = %q; want %q", c.in, got, c.want)
		}
	}
}

// TestColIndex checks lookup of present and absent columns.
func TestColIndex(t *testing.T) {
	t.Parallel()

	f := New([]string{"accident_index", "vehicle_reference"})
	if got := f.ColIndex("vehicle_reference"); got != 1 {
		t.Fatalf("ColIndex(vehicle_reference) = %d; want 1", got)
	}
	if got := f.ColIndex("nope"); got != -1 {
		t.Fatalf("ColIndex(nope) = %d; want -1", got)
	}
}

// TestAppend checks the width guard on single-row appends.
func TestAppend(t *testing.T) {
	t.Parallel()

	f := New([]string{"a", "b"})
	if err := f.Append([]any{"1", "2"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := f.Append([]any{"1"}); err == nil {
		t.Fatalf("Append with short row: expected error, got nil")
	}
}
