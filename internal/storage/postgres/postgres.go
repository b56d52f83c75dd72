package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool and ensures the schema.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// One append-only table; a migration framework would be overkill.
const schema = `
CREATE TABLE IF NOT EXISTS tokens (
    id             BIGSERIAL PRIMARY KEY,
    contract       TEXT   NOT NULL,
    name           TEXT   NOT NULL,
    symbol         TEXT   NOT NULL DEFAULT '',
    creator        TEXT   NOT NULL DEFAULT '',
    followers      TEXT   NOT NULL DEFAULT '',
    tokens_created TEXT   NOT NULL DEFAULT '',
    tax            TEXT   NOT NULL DEFAULT '',
    liquidity      TEXT   NOT NULL DEFAULT '',
    tags           TEXT   NOT NULL DEFAULT '',
    tweet_url      TEXT   NOT NULL DEFAULT '',
    timestamp      BIGINT NOT NULL,
    created_at     BIGINT NOT NULL DEFAULT (EXTRACT(EPOCH FROM now()) * 1000)::BIGINT
);

CREATE INDEX IF NOT EXISTS idx_tokens_contract ON tokens (contract);
CREATE INDEX IF NOT EXISTS idx_tokens_timestamp ON tokens (timestamp DESC);
`
