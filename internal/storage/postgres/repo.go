// Package postgres implements a Postgres repository using pgx v5. Bulk loads
// use the native COPY protocol via pgx.CopyFrom.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stats19/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  storage.Config
}

// NewRepository connects a pgx pool using cfg.DSN.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, nil
}

// EnsureTable creates the target table when absent.
func (r *Repository) EnsureTable(ctx context.Context, columns []storage.Column) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgIdent(c.Name) + " " + sqlType(c.Kind)
	}
	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		pgFQN(r.cfg.Table), strings.Join(defs, ", "),
	)
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: ensure table: %w", err)
	}
	return nil
}

// CopyFrom streams rows into the target table with the COPY protocol.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ident := pgx.Identifier(splitFQN(r.cfg.Table))
	n, err := r.pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// sqlType maps a storage kind to a Postgres column type.
func sqlType(kind string) string {
	switch kind {
	case "int":
		return "BIGINT"
	case "real":
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// pgIdent double-quotes a single identifier.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// pgFQN quotes a possibly schema-qualified name part by part.
func pgFQN(fqn string) string {
	parts := splitFQN(fqn)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = pgIdent(p)
	}
	return strings.Join(quoted, ".")
}

// splitFQN converts "schema.table" into {"schema","table"}.
func splitFQN(fqn string) []string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
