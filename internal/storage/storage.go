// Package storage contains the backend-agnostic contract for database sinks
// and a small registry so the rest of the program never imports a driver.
//
// Concrete backends (postgres, sqlite, mysql, mssql) live in subpackages and
// register themselves from init; importing stats19/internal/storage/all (even
// blank) makes every built-in kind available to New.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config holds the settings shared by every database backend.
type Config struct {
	// DSN is the driver connection string.
	DSN string
	// Table is the target table name, possibly schema-qualified.
	Table string
}

// Column describes one destination column for table creation.
type Column struct {
	Name string
	// Kind is "text", "int", or "real"; backends map it to a dialect type.
	Kind string
}

// Repository is the minimal write-side contract the pipeline needs: create
// the destination table when asked, bulk-load rows, and clean up.
type Repository interface {
	// EnsureTable creates the configured table with the given columns when it
	// does not already exist.
	EnsureTable(ctx context.Context, columns []Column) error

	// CopyFrom inserts rows aligned to the columns order and reports how many
	// were inserted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	Close() error
}

// Factory opens a Repository for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a factory for kind, replacing any previous registration.
// Backends call this from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository of the given kind.
func New(ctx context.Context, kind string, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
