package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skillbridge/auth/internal/logging"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/config"
	"github.com/skillbridge/auth/internal/server/models"
	"github.com/skillbridge/auth/internal/server/repositories/repomanager"
	"github.com/skillbridge/auth/internal/server/repositories/tokens"
	"github.com/skillbridge/auth/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	manager *repomanager.MemoryRepositoryManager
	clock   *fakeClock
	codec   *auth.Codec
	auth    *AuthService
	users   *UserService
	filter  *Authenticator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith lets a test wrap the memory manager, e.g. to inject faults.
func newTestEnvWith(t *testing.T, wrap func(repomanager.RepositoryManager) repomanager.RepositoryManager) *testEnv {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := auth.NewCodecFromKey(bytes.Repeat([]byte("k"), auth.MinKeyBytes), auth.WithClock(clock.Now))
	require.NoError(t, err)

	cfg := &config.Config{
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 7 * 24 * time.Hour,
	}
	mem := repomanager.NewMemoryRepositoryManager()
	var m repomanager.RepositoryManager = mem
	if wrap != nil {
		m = wrap(mem)
	}
	log := logging.Nop()

	return &testEnv{
		manager: mem,
		clock:   clock,
		codec:   codec,
		auth:    NewAuthService(m, codec, cfg, log),
		users:   NewUserService(m, log),
		filter:  NewAuthenticator(m, codec, config.DefaultPublicPaths, log),
	}
}

func (e *testEnv) register(t *testing.T, email, password, role string) *TokenPair {
	t.Helper()
	pair, err := e.auth.Register(context.Background(), RegisterRequest{
		FirstName: "Test", LastName: "User", Email: email, Password: password, Role: role,
	})
	require.NoError(t, err)
	return pair
}

func (e *testEnv) identity(t *testing.T, accessToken string) (auth.Identity, bool) {
	t.Helper()
	return e.filter.AuthenticateRequest(context.Background(), "/api/v1/users/me", "Bearer "+accessToken)
}

// faultyManager serves the wrapped repositories but lets tests replace the
// ledger or the users repository.
type faultyManager struct {
	repomanager.RepositoryManager
	tokens tokens.Repository
	users  users.Repository
}

func (m *faultyManager) Tokens() tokens.Repository {
	if m.tokens != nil {
		return m.tokens
	}
	return m.RepositoryManager.Tokens()
}

func (m *faultyManager) Users() users.Repository {
	if m.users != nil {
		return m.users
	}
	return m.RepositoryManager.Users()
}

type faultyLedger struct {
	tokens.Repository
	storeErr      error
	invalidateErr error
	revokeErr     error
}

func (l *faultyLedger) Store(ctx context.Context, userID, token string, typ models.TokenType) (models.Token, error) {
	if l.storeErr != nil {
		return models.Token{}, l.storeErr
	}
	return l.Repository.Store(ctx, userID, token, typ)
}

func (l *faultyLedger) InvalidateAllForUser(ctx context.Context, userID string) (int64, error) {
	if l.invalidateErr != nil {
		return 0, l.invalidateErr
	}
	return l.Repository.InvalidateAllForUser(ctx, userID)
}

func (l *faultyLedger) Revoke(ctx context.Context, token string) error {
	if l.revokeErr != nil {
		return l.revokeErr
	}
	return l.Repository.Revoke(ctx, token)
}

type faultyUsers struct {
	users.Repository
	saveErr error
	findErr error
}

func (u *faultyUsers) Save(ctx context.Context, user models.User) error {
	if u.saveErr != nil {
		return u.saveErr
	}
	return u.Repository.Save(ctx, user)
}

func (u *faultyUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	if u.findErr != nil {
		return models.User{}, u.findErr
	}
	return u.Repository.FindByEmail(ctx, email)
}
