// Package engine owns the embedded DuckDB session: opening the database,
// installing extensions, configuring S3 access, attaching table views, and
// running queries whose results come back as frames.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"lakecat/internal/config"
	"lakecat/internal/ddl"
	"lakecat/internal/frame"
)

// SQLExecutor is the slice of *sql.DB the attacher needs. Tests substitute
// a recording fake.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Engine wraps an embedded DuckDB database.
type Engine struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens a DuckDB database at path. An empty path opens an in-memory
// database.
func Open(path string, logger *slog.Logger) (*Engine, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Engine{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// DB exposes the underlying handle. The attacher and tests use it; callers
// should prefer the typed query surface.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// Bootstrap installs and loads the httpfs extension, required for both the
// s3:// glob strategy and presigned https:// reads.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, "INSTALL httpfs; LOAD httpfs;"); err != nil {
		return fmt.Errorf("install httpfs: %w", err)
	}
	e.logger.Info("duckdb extensions installed", "extensions", "httpfs")
	return nil
}

// ConfigureS3 registers the store credentials as a DuckDB secret so the
// engine can resolve s3:// globs directly. No-op when the config carries no
// static credentials; presigned URLs need no secret.
func (e *Engine) ConfigureS3(ctx context.Context, cfg *config.Config) error {
	if !cfg.HasS3Config() {
		return nil
	}
	endpoint := ""
	if cfg.S3Endpoint != nil {
		endpoint = *cfg.S3Endpoint
	}
	stmt, err := ddl.CreateS3Secret("lakecat_s3", *cfg.S3KeyID, *cfg.S3Secret, endpoint, *cfg.S3Region, "path")
	if err != nil {
		return err
	}
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create s3 secret: %w", err)
	}
	e.logger.Info("s3 secret configured", "region", *cfg.S3Region)
	return nil
}

// Exec runs a statement that returns no rows.
func (e *Engine) Exec(ctx context.Context, query string) error {
	_, err := e.db.ExecContext(ctx, query)
	return err
}

// Query runs query and materializes the full result set as a frame.
// Column order follows the result set.
func (e *Engine) Query(ctx context.Context, query string) (*frame.Frame, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFrame(rows)
}

// InvalidateFileCache drops DuckDB's cached remote file handles, forcing
// the next view read to refetch. Needed after a write replaces an object a
// live view already read.
func (e *Engine) InvalidateFileCache(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, "PRAGMA invalidate_cached_files"); err != nil {
		return fmt.Errorf("invalidate cached files: %w", err)
	}
	return nil
}

func scanFrame(rows *sql.Rows) (*frame.Frame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	f := frame.New(cols...)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		f.AppendRow(row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f, nil
}
