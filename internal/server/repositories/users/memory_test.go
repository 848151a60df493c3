package users

import (
	"context"
	"testing"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Create(ctx, models.User{Email: "alice@x.io", PasswordHash: "h1", Role: auth.RoleMentee})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = repo.Create(ctx, models.User{Email: "alice@x.io", Role: auth.RoleMentor})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	byEmail, err := repo.FindByEmail(ctx, "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	created.PasswordHash = "h2"
	require.NoError(t, repo.Save(ctx, created))

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", byID.PasswordHash)
	assert.Equal(t, "alice@x.io", byID.Email)
}

func TestMemoryRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.FindByEmail(ctx, "ghost@x.io")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, repo.Save(ctx, models.User{ID: "ghost"}), common.ErrorNotFound)
}
