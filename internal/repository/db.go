// Package repository persists extraction jobs. Production runs against
// Postgres through a pgx pool; an empty DSN falls back to an in-process
// SQLite database, which is also what the tests use. The SQL sticks to
// numbered placeholders and types both engines accept.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/dkitanovski/contract-extractor/internal/common"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB bundles the sql handle with the pgx pool when one backs it.
type DB struct {
	SQL  *sql.DB
	pool *pgxpool.Pool
}

// Open connects per the config. A non-empty DSN opens a pgx pool and wraps
// it as database/sql; otherwise an in-memory SQLite database is used.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if cfg.DSN == "" {
		logger.Info("no DB_URL set, using in-memory sqlite")
		db, err := sql.Open("sqlite", "file:jobs?mode=memory&cache=shared")
		if err != nil {
			return nil, common.NewAppError("DB_OPEN", "opening sqlite", err)
		}
		// shared-cache in-memory databases vanish when the last conn closes
		db.SetMaxIdleConns(1)
		return &DB{SQL: db}, nil
	}

	logger.Info("connecting to database")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, common.NewAppError("DB_OPEN", "parsing dsn", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "contract-extractor"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewAppError("DB_OPEN", "connecting", err)
	}

	logger.Info("successfully connected to database")
	return &DB{SQL: stdlib.OpenDBFromPool(pool), pool: pool}, nil
}

// Close closes the database connections gracefully.
func (d *DB) Close(logger *slog.Logger) {
	if err := d.SQL.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

const jobsDDL = `
CREATE TABLE IF NOT EXISTS extraction_jobs (
	id              TEXT PRIMARY KEY,
	source_file     TEXT NOT NULL,
	doc_type        INTEGER NOT NULL,
	status          TEXT NOT NULL,
	contract_number TEXT,
	contract_date   TEXT,
	tax_id          TEXT,
	resident        BOOLEAN,
	business        BOOLEAN,
	error_message   TEXT,
	started_at      TIMESTAMP NOT NULL,
	finished_at     TIMESTAMP
)`

// EnsureSchema creates the jobs table if it is missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.SQL.ExecContext(ctx, jobsDDL); err != nil {
		return common.NewAppError("DB_MIGRATE", "creating extraction_jobs", err)
	}
	return nil
}
