package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id               BIGSERIAL PRIMARY KEY,
	url              TEXT NOT NULL UNIQUE,
	domain           TEXT NOT NULL,
	lines            TEXT[] NOT NULL DEFAULT '{}',
	rules_matched    INTEGER NOT NULL DEFAULT 0,
	rules_failed     INTEGER NOT NULL DEFAULT 0,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	crawl_timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS articles_domain_idx ON articles (domain);

CREATE TABLE IF NOT EXISTS failed_urls (
	id                     BIGSERIAL PRIMARY KEY,
	url                    TEXT NOT NULL UNIQUE,
	failure_reason         TEXT NOT NULL,
	error_type             TEXT NOT NULL,
	retryable              BOOLEAN NOT NULL DEFAULT TRUE,
	last_attempt_timestamp TIMESTAMPTZ NOT NULL,
	retry_count            INTEGER NOT NULL DEFAULT 1,
	next_retry_at          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS failed_urls_next_retry_idx ON failed_urls (next_retry_at);
`

// Connect opens a pool and verifies the server is reachable.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the articles and failed_urls tables when missing.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
