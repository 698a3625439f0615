// Package db provides database connection helpers.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the posting tables when they do not exist yet.
// companies and plans are owned by the billing service; they are only
// created here so a fresh local database works.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS plans (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	max_job_posts INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS companies (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	plan_id       TEXT REFERENCES plans (id),
	token_balance INTEGER NOT NULL DEFAULT 0 CHECK (token_balance >= 0)
);

CREATE TABLE IF NOT EXISTS job_postings (
	id             UUID PRIMARY KEY,
	company_id     TEXT NOT NULL REFERENCES companies (id),
	status         TEXT NOT NULL DEFAULT 'draft'
	               CHECK (status IN ('draft', 'published', 'paused', 'inactive', 'deleted')),
	draft          JSONB NOT NULL,
	history        JSONB NOT NULL DEFAULT '[]'::jsonb,
	featured_until TIMESTAMPTZ,
	published_at   TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS job_postings_company_status_idx ON job_postings (company_id, status);
CREATE INDEX IF NOT EXISTS job_postings_featured_until_idx ON job_postings (featured_until)
	WHERE featured_until IS NOT NULL;

CREATE TABLE IF NOT EXISTS token_ledger (
	id             BIGSERIAL PRIMARY KEY,
	company_id     TEXT NOT NULL REFERENCES companies (id),
	job_posting_id UUID REFERENCES job_postings (id),
	delta          INTEGER NOT NULL,
	reason         TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
