package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// TestOpen reads a real file back through the source.
func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src := NewLocal(path)
	if src.Path() != path {
		t.Fatalf("Path() = %q; want %q", src.Path(), path)
	}

	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != "a,b\n1,2\n" {
		t.Fatalf("body = %q", body)
	}
}

// TestOpen_Missing keeps os.ErrNotExist reachable through the wrap.
func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(filepath.Join(t.TempDir(), "nope.csv")).Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open missing file = %v; want os.ErrNotExist", err)
	}
}

// TestOpen_Canceled checks the context gate fires before filesystem access.
func TestOpen_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocal("irrelevant").Open(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Open with canceled context = %v; want context.Canceled", err)
	}
}
