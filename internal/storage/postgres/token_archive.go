package postgres

import (
	"context"
	"fmt"

	"base-token-tracker/internal/domain"
	"base-token-tracker/internal/storage"
)

// TokenArchive is a PostgreSQL implementation of storage.TokenArchive.
type TokenArchive struct {
	pool *Pool
}

// NewTokenArchive creates a new Postgres-backed token archive.
func NewTokenArchive(pool *Pool) *TokenArchive {
	return &TokenArchive{pool: pool}
}

// Insert appends an accepted record. Duplicate contracts are allowed.
func (a *TokenArchive) Insert(ctx context.Context, rec *domain.TokenRecord) error {
	if rec == nil || rec.Contract == "" {
		return storage.ErrInvalidInput
	}

	_, err := a.pool.Exec(ctx, `
		INSERT INTO tokens (contract, name, symbol, creator, followers,
			tokens_created, tax, liquidity, tags, tweet_url, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		domain.NormalizeContract(rec.Contract), rec.Name, rec.Symbol,
		rec.Creator, rec.Followers, rec.TokensCreated, rec.Tax,
		rec.Liquidity, rec.Tags, rec.TweetURL, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetRecent retrieves up to limit records, newest first by timestamp.
func (a *TokenArchive) GetRecent(ctx context.Context, limit int) ([]*domain.TokenRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	rows, err := a.pool.Query(ctx, `
		SELECT contract, name, symbol, creator, followers, tokens_created,
			tax, liquidity, tags, tweet_url, timestamp
		FROM tokens
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent tokens: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByContract retrieves all archived records for a contract, newest first.
func (a *TokenArchive) GetByContract(ctx context.Context, contract string) ([]*domain.TokenRecord, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT contract, name, symbol, creator, followers, tokens_created,
			tax, liquidity, tags, tweet_url, timestamp
		FROM tokens
		WHERE contract = $1
		ORDER BY timestamp DESC, id DESC`,
		domain.NormalizeContract(contract))
	if err != nil {
		return nil, fmt.Errorf("query tokens by contract: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records, nil
}

// Count returns the total number of archived records.
func (a *TokenArchive) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := a.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return count, nil
}

// rowScanner abstracts pgx.Rows for scanRecords.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]*domain.TokenRecord, error) {
	var records []*domain.TokenRecord
	for rows.Next() {
		rec := &domain.TokenRecord{}
		err := rows.Scan(&rec.Contract, &rec.Name, &rec.Symbol, &rec.Creator,
			&rec.Followers, &rec.TokensCreated, &rec.Tax, &rec.Liquidity,
			&rec.Tags, &rec.TweetURL, &rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}
	return records, nil
}

// Verify interface compliance at compile time.
var _ storage.TokenArchive = (*TokenArchive)(nil)
