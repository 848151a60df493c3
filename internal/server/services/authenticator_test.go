package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/models"
	"github.com/skillbridge/auth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateRequest_PublicPathWithoutHeader(t *testing.T) {
	env := newTestEnv(t)

	id, ok := env.filter.AuthenticateRequest(context.Background(), "/api/v1/auth/register", "")
	assert.False(t, ok)
	assert.Equal(t, auth.Identity{}, id)
	assert.True(t, env.filter.IsPublic("/api/v1/auth/register"))
}

func TestAuthenticateRequest_PublicPathIgnoresToken(t *testing.T) {
	env := newTestEnv(t)
	pair := env.register(t, "alice@x.io", "pw", "MENTEE")

	_, ok := env.filter.AuthenticateRequest(context.Background(), "/health", "Bearer "+pair.AccessToken)
	assert.False(t, ok)
}

func TestAuthenticateRequest_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.register(t, "alice@x.io", "pw", "MENTEE")

	otherCodec, err := auth.NewCodecFromKey(bytes.Repeat([]byte("z"), auth.MinKeyBytes), auth.WithClock(env.clock.Now))
	require.NoError(t, err)
	foreign, err := otherCodec.Encode("alice@x.io", nil, time.Hour)
	require.NoError(t, err)

	unrecorded, err := env.codec.Encode("alice@x.io", map[string]any{ClaimTokenID: "unrecorded"}, time.Hour)
	require.NoError(t, err)

	ghost, err := env.codec.Encode("ghost@x.io", nil, time.Hour)
	require.NoError(t, err)
	_, err = env.manager.Tokens().Store(ctx, "ghost-id", ghost, models.TokenTypeAccess)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "basic scheme", header: "Basic YWxpY2U6cHc="},
		{name: "lowercase bearer", header: "bearer " + pair.AccessToken},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage", header: "Bearer not.a.jwt"},
		{name: "wrong key", header: "Bearer " + foreign},
		{name: "not in ledger", header: "Bearer " + unrecorded},
		{name: "unknown principal", header: "Bearer " + ghost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := env.filter.AuthenticateRequest(ctx, "/api/v1/users/me", tt.header)
			assert.False(t, ok)
		})
	}
}

func TestAuthenticateRequest_Expired(t *testing.T) {
	env := newTestEnv(t)
	pair := env.register(t, "alice@x.io", "pw", "MENTEE")

	env.clock.Advance(15 * time.Minute)
	_, ok := env.identity(t, pair.AccessToken)
	assert.False(t, ok)
}

func TestAuthenticateRequest_Revoked(t *testing.T) {
	env := newTestEnv(t)
	pair := env.register(t, "alice@x.io", "pw", "MENTEE")

	require.NoError(t, env.manager.Tokens().Revoke(context.Background(), pair.AccessToken))
	_, ok := env.identity(t, pair.AccessToken)
	assert.False(t, ok)
}

func TestAuthenticateRequest_RefreshTokenAlsoAuthenticates(t *testing.T) {
	env := newTestEnv(t)
	pair := env.register(t, "alice@x.io", "pw", "CLIENT")

	id, ok := env.identity(t, pair.RefreshToken)
	require.True(t, ok)
	assert.True(t, id.HasRole(auth.RoleClient))
}

func TestAuthenticateRequest_ExistingIdentityWins(t *testing.T) {
	env := newTestEnv(t)
	existing := auth.NewIdentity("u-9", "admin@x.io", auth.RoleAdmin)
	ctx := auth.WithIdentity(context.Background(), existing)

	id, ok := env.filter.AuthenticateRequest(ctx, "/api/v1/management/roles", "")
	require.True(t, ok)
	assert.Equal(t, existing, id)
}

func TestAuthenticateRequest_LookupFailure(t *testing.T) {
	env := newTestEnvWith(t, func(m repomanager.RepositoryManager) repomanager.RepositoryManager {
		return &faultyManager{RepositoryManager: m, users: &faultyUsers{Repository: m.Users(), findErr: errBoom}}
	})
	pair := env.register(t, "alice@x.io", "pw", "MENTEE")

	_, ok := env.identity(t, pair.AccessToken)
	assert.False(t, ok)
}
