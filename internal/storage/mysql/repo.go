// Package mysql implements a MySQL/MariaDB-backed storage.Repository using
// database/sql with the go-sql-driver driver. Bulk loads use multi-row
// INSERT statements inside a transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"stats19/internal/storage"
)

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg)
	})
}

// insertChunk bounds the number of rows per multi-row INSERT so the statement
// stays under MySQL's default max_allowed_packet.
const insertChunk = 1000

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg storage.Config
}

// NewRepository opens a MySQL connection using the provided DSN, for example
// "user:pass@tcp(127.0.0.1:3306)/dbname".
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}

	return &Repository{db: db, cfg: cfg}, nil
}

// EnsureTable creates the target table when absent.
func (r *Repository) EnsureTable(ctx context.Context, columns []storage.Column) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quote(c.Name) + " " + sqlType(c.Kind)
	}
	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		quote(r.cfg.Table), strings.Join(defs, ", "),
	)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("mysql: ensure table: %w", err)
	}
	return nil
}

// CopyFrom inserts the rows in chunked multi-row INSERTs inside one
// transaction. len(row) must equal len(columns) per row.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}
	oneRow := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	prefix := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES ",
		quote(r.cfg.Table), strings.Join(quoted, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	var inserted int64
	for start := 0; start < len(rows); start += insertChunk {
		end := start + insertChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(columns))
		values := make([]string, 0, len(chunk))
		for _, row := range chunk {
			if len(row) != len(columns) {
				_ = tx.Rollback()
				return inserted, fmt.Errorf("mysql: CopyFrom: row length %d != columns length %d", len(row), len(columns))
			}
			values = append(values, oneRow)
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, prefix+strings.Join(values, ","), args...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mysql: insert: %w", err)
		}
		inserted += int64(len(chunk))
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// Close closes the database handle.
func (r *Repository) Close() error { return r.db.Close() }

// sqlType maps a storage kind to a MySQL column type.
func sqlType(kind string) string {
	switch kind {
	case "int":
		return "BIGINT"
	case "real":
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

// quote backtick-quotes an identifier for MySQL.
func quote(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}
