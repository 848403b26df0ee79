// Package reader turns a byte-stream data source into a finite, pull-based
// sequence of bounded frames.
//
// A ChunkReader owns one pass over one source: constructing it opens a fresh
// read from byte zero, and Next returns frames of at most the configured
// chunk size until io.EOF. The sequence is not restartable; callers that need
// a second pass construct a second ChunkReader. There is no concurrency here:
// the caller drives iteration, and memory stays bounded by the chunk size.
//
// Declared columns are coerced to their target type while reading. A value
// that cannot be coerced aborts the pass with an error naming the line and
// column; there is no row-level recovery. Identifier columns must be declared
// (or left) as text so that values like "2020010001" keep their exact form.
package reader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"stats19/internal/config"
	"stats19/internal/datasource"
	"stats19/internal/frame"
)

// Column kinds after coercion. Cells are string, int64, or float64; empty
// input cells become nil regardless of kind.
const (
	KindText = "text"
	KindInt  = "int"
	KindReal = "real"
)

// ChunkReader reads one source as a sequence of frames.
type ChunkReader struct {
	src       io.ReadCloser
	cr        *csv.Reader
	columns   []string
	kinds     []string
	chunkSize int
	trim      bool
	line      int // 1-based physical line of the last record read
	done      bool
}

// NewChunkReader opens src and prepares a single streaming pass over it.
//
// opt carries the CSV parser options (has_header, comma, trim_space,
// lazy_quotes, header_map, encoding). types maps canonical column names to
// KindText/KindInt/KindReal; undeclared columns are text. chunkSize bounds
// the row count of each frame.
//
// Errors from opening the source or reading the header are fatal and
// returned immediately; the source is closed on any such error.
func NewChunkReader(
	ctx context.Context,
	src datasource.Source,
	opt config.Options,
	types map[string]string,
	chunkSize int,
) (*ChunkReader, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("reader: chunk size must be positive, got %d", chunkSize)
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	var r io.Reader = rc
	switch enc := opt.String("encoding", ""); enc {
	case "", "utf8":
	case "latin1":
		r = transform.NewReader(rc, charmap.ISO8859_1.NewDecoder())
	case "windows1250":
		r = transform.NewReader(rc, charmap.Windows1250.NewDecoder())
	default:
		_ = rc.Close()
		return nil, fmt.Errorf("reader: unknown encoding %q", enc)
	}

	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1 // width is enforced against the header below

	rd := &ChunkReader{
		src:       rc,
		cr:        cr,
		chunkSize: chunkSize,
		trim:      opt.Bool("trim_space", true),
	}

	if opt.Bool("has_header", true) {
		hdr, err := cr.Read()
		if err != nil {
			_ = rc.Close()
			if err == io.EOF {
				return nil, fmt.Errorf("read header: source is empty")
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
		rd.line = 1
		rd.columns = canonicalizeHeader(hdr, opt.StringMap("header_map"))
	} else {
		n := opt.Int("expected_fields", 0)
		if n <= 0 {
			_ = rc.Close()
			return nil, fmt.Errorf("reader: expected_fields is required when has_header=false")
		}
		rd.columns = make([]string, n)
		for i := range rd.columns {
			rd.columns[i] = fmt.Sprintf("col_%d", i)
		}
	}

	rd.kinds = make([]string, len(rd.columns))
	for i, c := range rd.columns {
		switch t := types[c]; t {
		case "", KindText:
			rd.kinds[i] = KindText
		case KindInt, KindReal:
			rd.kinds[i] = t
		default:
			_ = rc.Close()
			return nil, fmt.Errorf("reader: column %q: unknown type %q", c, t)
		}
	}

	return rd, nil
}

// Columns returns the canonical column names of the pass.
func (r *ChunkReader) Columns() []string { return r.columns }

// Next returns the next frame of at most chunkSize rows, or io.EOF once the
// source is exhausted. Any parse or coercion failure is fatal: Next closes
// the source and returns the error, and subsequent calls return io.EOF.
func (r *ChunkReader) Next(ctx context.Context) (*frame.Frame, error) {
	if r.done {
		return nil, io.EOF
	}

	f := frame.New(r.columns)
	for f.Len() < r.chunkSize {
		select {
		case <-ctx.Done():
			r.close()
			return nil, ctx.Err()
		default:
		}

		rec, err := r.cr.Read()
		if err == io.EOF {
			r.close()
			if f.Len() == 0 {
				return nil, io.EOF
			}
			return f, nil
		}
		r.line++
		if err != nil {
			r.close()
			return nil, fmt.Errorf("line %d: csv read: %w", r.line, err)
		}
		if len(rec) != len(r.columns) {
			r.close()
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", r.line, len(r.columns), len(rec))
		}

		row := make([]any, len(rec))
		for i, v := range rec {
			if r.trim {
				v = strings.TrimSpace(v)
			}
			cell, err := coerce(v, r.kinds[i])
			if err != nil {
				r.close()
				return nil, fmt.Errorf("line %d: column %q: %w", r.line, r.columns[i], err)
			}
			row[i] = cell
		}
		f.Rows = append(f.Rows, row)
	}
	return f, nil
}

// Close releases the underlying source. It is safe to call more than once
// and after Next has returned io.EOF or an error.
func (r *ChunkReader) Close() error {
	if r.done {
		return nil
	}
	r.close()
	return nil
}

func (r *ChunkReader) close() {
	if !r.done {
		r.done = true
		_ = r.src.Close()
	}
}

// coerce parses one cell according to its declared kind. Empty cells are nil
// for every kind; a non-empty cell that fails to parse is an error.
func coerce(v, kind string) (any, error) {
	if v == "" {
		return nil, nil
	}
	switch kind {
	case KindText:
		return v, nil
	case KindInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to int", v)
		}
		return n, nil
	case KindReal:
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to real", v)
		}
		return x, nil
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}
