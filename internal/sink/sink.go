// Package sink writes the final joined table. A sink receives the table
// exactly once, in full, at the end of a successful run; nothing is written
// before that point, so a fatal error earlier in the pipeline leaves no
// partial output behind.
package sink

import (
	"context"

	"stats19/internal/frame"
)

// Sink accepts the completed table and reports how many rows it wrote.
type Sink interface {
	Write(ctx context.Context, f *frame.Frame) (int64, error)
	Close() error
}
