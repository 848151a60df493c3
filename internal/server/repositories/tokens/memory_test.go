package tokens

import (
	"context"
	"sync"
	"testing"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_StoreAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	rec, err := repo.Store(ctx, "u-1", "tok-a", models.TokenTypeAccess)
	require.NoError(t, err)
	assert.True(t, rec.Usable())

	_, err = repo.Store(ctx, "u-1", "tok-a", models.TokenTypeRefresh)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	found, err := repo.FindByToken(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, rec, found)

	_, err = repo.FindByToken(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_InvalidateAllForUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for _, tok := range []string{"a", "b", "c"} {
		_, err := repo.Store(ctx, "u-1", tok, models.TokenTypeRefresh)
		require.NoError(t, err)
	}
	_, err := repo.Store(ctx, "u-2", "other", models.TokenTypeRefresh)
	require.NoError(t, err)
	require.NoError(t, repo.Revoke(ctx, "a"))

	n, err := repo.InvalidateAllForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.InvalidateAllForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	for _, tok := range []string{"a", "b", "c"} {
		rec, err := repo.FindByToken(ctx, tok)
		require.NoError(t, err)
		assert.True(t, rec.Revoked)
		assert.True(t, rec.Expired)
	}

	other, err := repo.FindByToken(ctx, "other")
	require.NoError(t, err)
	assert.True(t, other.Usable())
}

func TestMemoryRepository_Revoke(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Store(ctx, "u-1", "tok", models.TokenTypeAccess)
	require.NoError(t, err)

	require.NoError(t, repo.Revoke(ctx, "tok"))
	require.NoError(t, repo.Revoke(ctx, "tok"))
	assert.ErrorIs(t, repo.Revoke(ctx, "missing"), common.ErrorNotFound)

	rec, err := repo.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, rec.Usable())
}

func TestMemoryRepository_ListActiveByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for _, tok := range []string{"a", "b", "c"} {
		_, err := repo.Store(ctx, "u-1", tok, models.TokenTypeAccess)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Revoke(ctx, "b"))

	got, err := repo.ListActiveByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Token)
	assert.Equal(t, "a", got[1].Token)
}

func TestMemoryRepository_ConcurrentStoreAndInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.Store(ctx, "u-1", string(rune('A'+i)), models.TokenTypeAccess)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = repo.InvalidateAllForUser(ctx, "u-1")
		}()
	}
	wg.Wait()

	_, err := repo.InvalidateAllForUser(ctx, "u-1")
	require.NoError(t, err)
	active, err := repo.ListActiveByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}
