package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-token-tracker/internal/domain"
	"base-token-tracker/internal/storage"
)

func archivedRecord(i int) *domain.TokenRecord {
	return &domain.TokenRecord{
		Contract:  fmt.Sprintf("0x%040x", i),
		Name:      fmt.Sprintf("Token%d", i),
		Symbol:    fmt.Sprintf("$T%d", i),
		Creator:   "@creator",
		Tax:       "5%",
		Liquidity: "$12.5K",
		TweetURL:  "https://x.com/creator/status/123",
		Timestamp: int64(i) * 1000,
	}
}

func TestTokenArchive_InsertAndGetRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	archive := NewTokenArchive(pool)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, archive.Insert(ctx, archivedRecord(i)))
	}

	recent, err := archive.GetRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	assert.Equal(t, "Token5", recent[0].Name)
	assert.Equal(t, "Token3", recent[2].Name)

	// Round trip preserves every field.
	want := archivedRecord(5)
	got := recent[0]
	assert.Equal(t, want.Contract, got.Contract)
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Creator, got.Creator)
	assert.Equal(t, want.Tax, got.Tax)
	assert.Equal(t, want.Liquidity, got.Liquidity)
	assert.Equal(t, want.TweetURL, got.TweetURL)
	assert.Equal(t, want.Timestamp, got.Timestamp)
}

func TestTokenArchive_DuplicateContractsAllowed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	archive := NewTokenArchive(pool)
	ctx := context.Background()

	rec := archivedRecord(1)
	require.NoError(t, archive.Insert(ctx, rec))
	require.NoError(t, archive.Insert(ctx, rec))

	count, err := archive.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTokenArchive_GetByContract(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	archive := NewTokenArchive(pool)
	ctx := context.Background()

	require.NoError(t, archive.Insert(ctx, archivedRecord(1)))
	require.NoError(t, archive.Insert(ctx, archivedRecord(2)))

	// Lookup normalizes case.
	upper := "0X" + archivedRecord(1).Contract[2:]
	got, err := archive.GetByContract(ctx, upper)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Token1", got[0].Name)

	_, err = archive.GetByContract(ctx, archivedRecord(9).Contract)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestTokenArchive_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	archive := NewTokenArchive(pool)
	ctx := context.Background()

	err := archive.Insert(ctx, &domain.TokenRecord{})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))

	_, err = archive.GetRecent(ctx, 0)
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
}
