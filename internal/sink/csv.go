package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"stats19/internal/frame"
)

// CSV writes the table to a local CSV file, creating missing parent
// directories. It also computes an xxh3 hash over the written bytes; the
// hash is logged by the pipeline summary so that two runs over identical
// inputs can be compared without re-reading the output.
type CSV struct {
	path     string
	checksum uint64
}

// NewCSV returns a CSV sink writing to path.
func NewCSV(path string) *CSV { return &CSV{path: path} }

// Write creates the file and writes the header plus every row. Cells are
// rendered with frame.Text, so identifier strings keep their exact form and
// nil cells become empty fields.
func (s *CSV) Write(ctx context.Context, f *frame.Frame) (int64, error) {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("csv sink: create output dir: %w", err)
		}
	}

	out, err := os.Create(s.path)
	if err != nil {
		return 0, fmt.Errorf("csv sink: create %s: %w", s.path, err)
	}

	h := xxh3.New()
	w := csv.NewWriter(io.MultiWriter(out, h))

	if err := w.Write(f.Columns); err != nil {
		_ = out.Close()
		return 0, fmt.Errorf("csv sink: write header: %w", err)
	}

	var written int64
	rec := make([]string, len(f.Columns))
	for i := range f.Rows {
		if err := ctx.Err(); err != nil {
			_ = out.Close()
			return written, err
		}
		for j, v := range f.Rows[i] {
			rec[j] = frame.Text(v)
		}
		if err := w.Write(rec); err != nil {
			_ = out.Close()
			return written, fmt.Errorf("csv sink: write row %d: %w", i, err)
		}
		written++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = out.Close()
		return written, fmt.Errorf("csv sink: flush: %w", err)
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("csv sink: close: %w", err)
	}

	s.checksum = h.Sum64()
	return written, nil
}

// Checksum returns the xxh3 hash of the bytes written by the last Write.
func (s *CSV) Checksum() uint64 { return s.checksum }

// Close is a no-op; the file handle only lives inside Write.
func (s *CSV) Close() error { return nil }
