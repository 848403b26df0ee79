package filter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"stats19/internal/frame"
	"stats19/internal/reader"
)

// Reload drives rd to exhaustion and accumulates the rows whose keyColumn
// value is a member of keys. It returns the accumulated frame and the total
// number of rows scanned.
//
// The unfiltered stream is fully consumed and closed before Reload returns,
// so at most one source is open at a time when callers run the three re-load
// passes back to back. The accumulated frame is the only thing retained.
func Reload(
	ctx context.Context,
	rd *reader.ChunkReader,
	keyColumn string,
	keys KeySet,
) (*frame.Frame, int64, error) {
	defer rd.Close()

	acc := frame.New(rd.Columns())
	var scanned int64

	ci := acc.ColIndex(keyColumn)
	if ci < 0 {
		return nil, 0, fmt.Errorf("key column %q not present (have %v)", keyColumn, acc.Columns)
	}

	for {
		f, err := rd.Next(ctx)
		if errors.Is(err, io.EOF) {
			return acc, scanned, nil
		}
		if err != nil {
			return nil, scanned, err
		}
		scanned += int64(f.Len())

		mask := make([]bool, f.Len())
		for i := range f.Rows {
			if k, ok := f.Key(i, ci); ok {
				mask[i] = keys.Has(k)
			}
		}
		kept, err := f.Filter(mask)
		if err != nil {
			return nil, scanned, err
		}
		if err := acc.AppendFrame(kept); err != nil {
			return nil, scanned, err
		}
	}
}
