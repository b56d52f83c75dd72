// Package store holds the relay's live window of accepted token records.
package store

import (
	"context"
	"log"
	"sync"
	"time"

	"base-token-tracker/internal/domain"
	"base-token-tracker/internal/observability"
)

// Default bounds, matching the feed the frontend expects.
const (
	DefaultMaxEntries    = 100
	DefaultMaxAge        = 4 * time.Minute
	DefaultSweepInterval = 30 * time.Second
)

// TokenStore is a bounded, time-windowed, newest-first list of token
// records. Append and Sweep are independent: bursty ingestion trims by
// count eagerly, while age eviction runs on its own timer. The store
// does not deduplicate; that is the scraper tracker's job.
type TokenStore struct {
	mu         sync.RWMutex
	records    []domain.TokenRecord
	maxEntries int
	maxAge     time.Duration
	now        func() int64 // Unix ms clock, replaceable in tests
}

// NewTokenStore creates a store with the given ceilings.
// Zero values fall back to the defaults.
func NewTokenStore(maxEntries int, maxAge time.Duration) *TokenStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &TokenStore{
		records:    make([]domain.TokenRecord, 0, maxEntries),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        func() int64 { return time.Now().UnixMilli() },
	}
}

// Append inserts the record at the head and drops from the tail until the
// count ceiling holds.
func (s *TokenStore) Append(rec domain.TokenRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]domain.TokenRecord{rec}, s.records...)
	if len(s.records) > s.maxEntries {
		s.records = s.records[:s.maxEntries]
	}
}

// Snapshot returns a copy of the current records, newest first. Callers
// never observe later mutations through the returned slice.
func (s *TokenStore) Snapshot() []domain.TokenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TokenRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Sweep removes every record older than the age ceiling and returns the
// number removed.
func (s *TokenStore) Sweep() int {
	now := s.now()
	cutoff := now - s.maxAge.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.Timestamp > cutoff {
			kept = append(kept, rec)
		}
	}
	removed := len(s.records) - len(kept)
	s.records = kept
	return removed
}

// Len returns the current record count.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// RunSweeper evicts aged records on a fixed timer until ctx is cancelled,
// keeping the sweep counter and store size gauge current.
func (s *TokenStore) RunSweeper(ctx context.Context, interval time.Duration, metrics *observability.Metrics, logger *log.Logger) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = log.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if removed > 0 {
				logger.Printf("Swept %d aged tokens, %d remain", removed, s.Len())
			}
			if metrics != nil {
				metrics.StoreSize.Set(float64(s.Len()))
				metrics.TokensSwept.Add(float64(removed))
			}
		}
	}
}
