// Package datasource defines the minimal contract between the pipeline and
// the places dataset bytes come from. Each Open call starts a fresh read from
// the beginning of the source; the returned reader is not restartable.
package datasource

import (
	"context"
	"io"
)

// Source yields a fresh byte stream over the underlying data.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
