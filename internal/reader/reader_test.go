package reader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"stats19/internal/config"
)

// byteSource serves a fixed byte slice as a data source.
type byteSource []byte

func (s byteSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s)), nil
}

// drain pulls every frame from rd and returns the concatenated rows.
func drain(t *testing.T, rd *ChunkReader) [][]any {
	t.Helper()
	var rows [][]any
	for {
		f, err := rd.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return rows
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		rows = append(rows, f.Rows...)
	}
}

// TestChunking verifies frame sizes: full chunks, then the remainder, then EOF.
func TestChunking(t *testing.T) {
	t.Parallel()

	src := byteSource("a,b\n1,x\n2,y\n3,z\n4,w\n5,v\n")
	rd, err := NewChunkReader(context.Background(), src, config.Options{}, nil, 2)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	var sizes []int
	for {
		f, err := rd.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		sizes = append(sizes, f.Len())
	}
	want := []int{2, 2, 1}
	if len(sizes) != len(want) {
		t.Fatalf("frame sizes = %v; want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("frame sizes = %v; want %v", sizes, want)
		}
	}

	// A finished reader keeps returning EOF.
	if _, err := rd.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after EOF = %v; want io.EOF", err)
	}
}

// TestCoercion checks typed reading: ints and reals parse, empty cells become
// nil, and text identifiers keep leading zeros exactly.
func TestCoercion(t *testing.T) {
	t.Parallel()

	src := byteSource("accident_index,speed_limit,latitude\n010001,30,51.5\n010002,,\n")
	types := map[string]string{"speed_limit": "int", "latitude": "real"}
	rd, err := NewChunkReader(context.Background(), src, config.Options{}, types, 10)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	rows := drain(t, rd)
	if len(rows) != 2 {
		t.Fatalf("rows = %d; want 2", len(rows))
	}
	if got := rows[0][0]; got != "010001" {
		t.Fatalf("identifier = %#v; want string 010001 with leading zero", got)
	}
	if got := rows[0][1]; got != int64(30) {
		t.Fatalf("speed_limit = %#v; want int64(30)", got)
	}
	if got := rows[0][2]; got != float64(51.5) {
		t.Fatalf("latitude = %#v; want 51.5", got)
	}
	if rows[1][1] != nil || rows[1][2] != nil {
		t.Fatalf("empty cells = %#v, %#v; want nil, nil", rows[1][1], rows[1][2])
	}
}

// TestCoercionFatal verifies a bad cell aborts the pass naming line and column.
func TestCoercionFatal(t *testing.T) {
	t.Parallel()

	src := byteSource("a,n\nx,1\ny,oops\nz,3\n")
	rd, err := NewChunkReader(context.Background(), src, config.Options{}, map[string]string{"n": "int"}, 10)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	_, err = rd.Next(context.Background())
	if err == nil {
		t.Fatalf("Next: expected coercion error, got nil")
	}
	for _, part := range []string{"line 3", `"n"`, "oops"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("error %q; want it to contain %q", err, part)
		}
	}

	// Fatal errors end the pass.
	if _, err := rd.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Next after fatal = %v; want io.EOF", err)
	}
}

// TestWidthMismatchFatal verifies a row with the wrong field count aborts the
// pass.
func TestWidthMismatchFatal(t *testing.T) {
	t.Parallel()

	src := byteSource("a,b\n1,x\n2\n")
	rd, err := NewChunkReader(context.Background(), src, config.Options{}, nil, 10)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	_, err = rd.Next(context.Background())
	if err == nil || !strings.Contains(err.Error(), "expected 2 fields") {
		t.Fatalf("Next = %v; want field-count error", err)
	}
}

// TestHeaderCanonicalization checks BOM stripping, header_map precedence, and
// snake_case normalization of raw headers.
func TestHeaderCanonicalization(t *testing.T) {
	t.Parallel()

	src := byteSource("\uFEFFAccident_Index,Vehicle Reference,N° of Casualties\n010001,1,2\n")
	opt := config.Options{
		"header_map": map[string]any{"Accident_Index": "accident_index"},
	}
	rd, err := NewChunkReader(context.Background(), src, opt, nil, 10)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	want := []string{"accident_index", "vehicle_reference", "n_of_casualties"}
	got := rd.Columns()
	if len(got) != len(want) {
		t.Fatalf("Columns() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Columns() = %v; want %v", got, want)
		}
	}
}

// TestNoHeader checks positional column naming and the expected_fields guard.
func TestNoHeader(t *testing.T) {
	t.Parallel()

	src := byteSource("1,x\n2,y\n")
	opt := config.Options{"has_header": false, "expected_fields": float64(2)}
	rd, err := NewChunkReader(context.Background(), src, opt, nil, 10)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	if cols := rd.Columns(); cols[0] != "col_0" || cols[1] != "col_1" {
		t.Fatalf("Columns() = %v; want [col_0 col_1]", cols)
	}
	if rows := drain(t, rd); len(rows) != 2 {
		t.Fatalf("rows = %d; want 2", len(rows))
	}

	// Missing expected_fields is a construction error.
	if _, err := NewChunkReader(context.Background(), src, config.Options{"has_header": false}, nil, 10); err == nil {
		t.Fatalf("NewChunkReader without expected_fields: expected error, got nil")
	}
}

// TestDelimiterAndTrim checks the comma option and cell trimming.
func TestDelimiterAndTrim(t *testing.T) {
	t.Parallel()

	src := byteSource("a;b\n 1 ; x \n")
	rd, err := NewChunkReader(context.Background(), src, config.Options{"comma": ";"}, nil, 10)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	rows := drain(t, rd)
	if rows[0][0] != "1" || rows[0][1] != "x" {
		t.Fatalf("rows[0] = %#v; want trimmed [1 x]", rows[0])
	}
}

// TestEncodingLatin1 decodes a Latin-1 byte stream into UTF-8 cells.
func TestEncodingLatin1(t *testing.T) {
	t.Parallel()

	// "café" in Latin-1: the é is the single byte 0xE9.
	src := byteSource(append([]byte("name\ncaf"), 0xE9, '\n'))
	rd, err := NewChunkReader(context.Background(), src, config.Options{"encoding": "latin1"}, nil, 10)
	if err != nil {
		t.Fatalf("NewChunkReader: %v", err)
	}
	defer rd.Close()

	rows := drain(t, rd)
	if len(rows) != 1 || rows[0][0] != "café" {
		t.Fatalf("rows = %#v; want [[café]]", rows)
	}
}

// TestConstructionErrors covers the remaining fatal constructor paths.
func TestConstructionErrors(t *testing.T) {
	t.Parallel()

	src := byteSource("a\n1\n")
	if _, err := NewChunkReader(context.Background(), src, config.Options{"encoding": "utf16"}, nil, 10); err == nil {
		t.Fatalf("unknown encoding: expected error, got nil")
	}
	if _, err := NewChunkReader(context.Background(), src, config.Options{}, map[string]string{"a": "varchar"}, 10); err == nil {
		t.Fatalf("unknown column type: expected error, got nil")
	}
	if _, err := NewChunkReader(context.Background(), src, config.Options{}, nil, 0); err == nil {
		t.Fatalf("zero chunk size: expected error, got nil")
	}
	if _, err := NewChunkReader(context.Background(), byteSource(nil), config.Options{}, nil, 10); err == nil {
		t.Fatalf("empty source: expected header error, got nil")
	}
}
