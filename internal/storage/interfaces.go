// Package storage defines the durable archive behind the relay's live
// window. The archive is append-only and keeps every accepted record,
// including duplicates: deduplication happens in the scraper, never here.
package storage

import (
	"context"

	"base-token-tracker/internal/domain"
)

// TokenArchive provides access to accepted token record storage.
type TokenArchive interface {
	// Insert appends an accepted record. Duplicate contracts are allowed.
	Insert(ctx context.Context, rec *domain.TokenRecord) error

	// GetRecent retrieves up to limit records, newest first by timestamp.
	GetRecent(ctx context.Context, limit int) ([]*domain.TokenRecord, error)

	// GetByContract retrieves all archived records for a contract,
	// newest first. Returns ErrNotFound when none exist.
	GetByContract(ctx context.Context, contract string) ([]*domain.TokenRecord, error)

	// Count returns the total number of archived records.
	Count(ctx context.Context) (int64, error)
}
