package memory

import (
	"context"
	"sync"

	"base-token-tracker/internal/domain"
	"base-token-tracker/internal/storage"
)

// TokenArchive is an in-memory implementation of storage.TokenArchive.
type TokenArchive struct {
	mu      sync.RWMutex
	records []*domain.TokenRecord // append order
}

// NewTokenArchive creates a new in-memory token archive.
func NewTokenArchive() *TokenArchive {
	return &TokenArchive{}
}

// Insert appends an accepted record. Duplicate contracts are allowed.
func (a *TokenArchive) Insert(_ context.Context, rec *domain.TokenRecord) error {
	if rec == nil || rec.Contract == "" {
		return storage.ErrInvalidInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Store a copy to prevent external mutation
	recCopy := *rec
	a.records = append(a.records, &recCopy)
	return nil
}

// GetRecent retrieves up to limit records, newest first by timestamp.
func (a *TokenArchive) GetRecent(_ context.Context, limit int) ([]*domain.TokenRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]*domain.TokenRecord, 0, min(limit, len(a.records)))
	for i := len(a.records) - 1; i >= 0 && len(result) < limit; i-- {
		recCopy := *a.records[i]
		result = append(result, &recCopy)
	}
	return result, nil
}

// GetByContract retrieves all archived records for a contract, newest first.
func (a *TokenArchive) GetByContract(_ context.Context, contract string) ([]*domain.TokenRecord, error) {
	contract = domain.NormalizeContract(contract)

	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.TokenRecord
	for i := len(a.records) - 1; i >= 0; i-- {
		if domain.NormalizeContract(a.records[i].Contract) == contract {
			recCopy := *a.records[i]
			result = append(result, &recCopy)
		}
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}

// Count returns the total number of archived records.
func (a *TokenArchive) Count(_ context.Context) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int64(len(a.records)), nil
}

// Verify interface compliance at compile time.
var _ storage.TokenArchive = (*TokenArchive)(nil)
