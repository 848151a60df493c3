package services

import (
	"context"
	"testing"
	"time"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/models"
	"github.com/skillbridge/auth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_IssuesRecordedPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair := env.register(t, "  Alice@X.io ", "pw", "mentee")
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	user, err := env.manager.Users().FindByEmail(ctx, "alice@x.io")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleMentee, user.Role)
	assert.NotEqual(t, "pw", user.PasswordHash)

	access, err := env.manager.Tokens().FindByToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeAccess, access.Type)

	refresh, err := env.manager.Tokens().FindByToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeRefresh, refresh.Type)
	assert.Equal(t, user.ID, refresh.UserID)

	claims, err := env.codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", claims.Subject)
	assert.Equal(t, "MENTEE", claims.String(ClaimRole))
}

func TestRegister_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@x.io", "pw", "MENTEE")

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{name: "duplicate email", req: RegisterRequest{Email: "ALICE@x.io", Password: "pw", Role: "MENTOR"}, want: common.ErrAlreadyExists},
		{name: "unknown role", req: RegisterRequest{Email: "bob@x.io", Password: "pw", Role: "WIZARD"}, want: common.ErrInvalidRole},
		{name: "bad email", req: RegisterRequest{Email: "bob", Password: "pw", Role: "MENTOR"}, want: common.ErrValidation},
		{name: "empty password", req: RegisterRequest{Email: "bob@x.io", Role: "MENTOR"}, want: common.ErrValidation},
		{name: "long password", req: RegisterRequest{Email: "bob@x.io", Password: string(make([]byte, 73)), Role: "MENTOR"}, want: common.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticate_AliceMentee(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@x.io", "pw", "MENTEE")

	pair, err := env.auth.Authenticate(context.Background(), "alice@x.io", "pw")
	require.NoError(t, err)

	id, ok := env.identity(t, pair.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "alice@x.io", id.Subject)
	assert.ElementsMatch(t, []string{"mentee:view_projects", "mentee:apply_project", "ROLE_MENTEE"}, id.Authorities)
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@x.io", "pw", "MENTEE")

	_, err := env.auth.Authenticate(context.Background(), "alice@x.io", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = env.auth.Authenticate(context.Background(), "ghost@x.io", "pw")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthenticate_InvalidatesPreviousTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.register(t, "alice@x.io", "pw", "MENTEE")

	second, err := env.auth.Authenticate(ctx, "alice@x.io", "pw")
	require.NoError(t, err)

	_, err = env.auth.RefreshAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrTokenRevokedOrUnknown)

	_, ok := env.identity(t, first.AccessToken)
	assert.False(t, ok)

	_, ok = env.identity(t, second.AccessToken)
	assert.True(t, ok)

	active, err := env.manager.Tokens().ListActiveByUser(ctx, mustUserID(t, env, "alice@x.io"))
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestAuthenticate_LedgerFailure(t *testing.T) {
	env := newTestEnvWith(t, func(m repomanager.RepositoryManager) repomanager.RepositoryManager {
		return &faultyManager{RepositoryManager: m, tokens: &faultyLedger{Repository: m.Tokens(), invalidateErr: errBoom}}
	})
	env.register(t, "alice@x.io", "pw", "MENTEE")

	_, err := env.auth.Authenticate(context.Background(), "alice@x.io", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefreshAccessToken_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.register(t, "alice@x.io", "pw", "MENTOR")

	a, err := env.auth.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	env.clock.Advance(time.Second)
	b, err := env.auth.RefreshAccessToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, pair.RefreshToken, a.RefreshToken)
	assert.Equal(t, pair.RefreshToken, b.RefreshToken)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)

	for _, tok := range []string{pair.AccessToken, a.AccessToken, b.AccessToken} {
		_, ok := env.identity(t, tok)
		assert.True(t, ok)
	}
}

func TestRefreshAccessToken_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pair := env.register(t, "alice@x.io", "pw", "MENTEE")

	t.Run("access token used as refresh", func(t *testing.T) {
		_, err := env.auth.RefreshAccessToken(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, common.ErrTokenRevokedOrUnknown)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := env.auth.RefreshAccessToken(ctx, pair.RefreshToken+"x")
		assert.ErrorIs(t, err, common.ErrInvalidToken)
		assert.ErrorIs(t, err, common.ErrInvalidSignature)
	})

	t.Run("never recorded", func(t *testing.T) {
		tok, err := env.codec.Encode("alice@x.io", map[string]any{ClaimTokenID: "stray"}, time.Hour)
		require.NoError(t, err)
		_, err = env.auth.RefreshAccessToken(ctx, tok)
		assert.ErrorIs(t, err, common.ErrTokenRevokedOrUnknown)
	})

	t.Run("unknown subject", func(t *testing.T) {
		tok, err := env.codec.Encode("ghost@x.io", nil, time.Hour)
		require.NoError(t, err)
		_, err = env.auth.RefreshAccessToken(ctx, tok)
		assert.ErrorIs(t, err, common.ErrSubjectMismatch)
	})

	t.Run("expired", func(t *testing.T) {
		env.clock.Advance(8 * 24 * time.Hour)
		defer env.clock.Advance(-8 * 24 * time.Hour)
		_, err := env.auth.RefreshAccessToken(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
		assert.ErrorIs(t, err, common.ErrTokenExpired)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	pair := env.register(t, "alice@x.io", "pw", "MENTEE")

	id, ok := env.identity(t, pair.AccessToken)
	require.True(t, ok)
	ctx := auth.WithIdentity(context.Background(), id)

	out := env.auth.Logout(ctx, "Bearer "+pair.AccessToken)
	_, ok = auth.IdentityFromContext(out)
	assert.False(t, ok)

	_, ok = env.identity(t, pair.AccessToken)
	assert.False(t, ok)

	rec, err := env.manager.Tokens().FindByToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, rec.Revoked)
	assert.True(t, rec.Expired)

	_, err = env.auth.RefreshAccessToken(context.Background(), pair.RefreshToken)
	assert.NoError(t, err, "logout revokes only the presented token")
}

func TestLogout_NeverFails(t *testing.T) {
	env := newTestEnvWith(t, func(m repomanager.RepositoryManager) repomanager.RepositoryManager {
		return &faultyManager{RepositoryManager: m, tokens: &faultyLedger{Repository: m.Tokens(), revokeErr: errBoom}}
	})
	ctx := auth.WithIdentity(context.Background(), auth.NewIdentity("u", "a@x.io", auth.RoleMentee))

	for _, header := range []string{"", "Basic abc", "Bearer unknown", "Bearer x"} {
		out := env.auth.Logout(ctx, header)
		_, ok := auth.IdentityFromContext(out)
		assert.False(t, ok, header)
	}
}

func mustUserID(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	u, err := env.manager.Users().FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u.ID
}
