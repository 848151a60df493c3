package services

import (
	"context"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/logging"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/repositories/repomanager"
)

// Authenticator resolves the identity behind a request. Every failure
// (missing header, bad signature, expiry, unknown principal, revoked or
// unrecorded token) leaves the request unauthenticated; it never rejects a
// request itself.
type Authenticator struct {
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	public      *PathMatcher
	logger      logging.Logger
}

func NewAuthenticator(m repomanager.RepositoryManager, codec *auth.Codec, publicPaths []string, logger logging.Logger) *Authenticator {
	return &Authenticator{
		repomanager: m,
		codec:       codec,
		public:      NewPathMatcher(publicPaths),
		logger:      logger.With("module", "authenticator"),
	}
}

// IsPublic reports whether path bypasses authentication.
func (a *Authenticator) IsPublic(path string) bool {
	return a.public.Match(path)
}

// AuthenticateRequest returns the identity for authorizationHeader. Public
// paths are never authenticated. An identity already present in ctx is
// returned as is.
func (a *Authenticator) AuthenticateRequest(ctx context.Context, path, authorizationHeader string) (auth.Identity, bool) {
	if a.IsPublic(path) {
		return auth.Identity{}, false
	}
	if id, ok := auth.IdentityFromContext(ctx); ok {
		return id, true
	}

	token, ok := common.BearerToken(authorizationHeader)
	if !ok {
		return auth.Identity{}, false
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		a.logger.Debug(ctx, "token rejected", "error", err)
		return auth.Identity{}, false
	}

	user, err := a.repomanager.Users().FindByEmail(ctx, claims.Subject)
	if err != nil {
		a.logger.Debug(ctx, "principal lookup failed", "subject", claims.Subject, "error", err)
		return auth.Identity{}, false
	}

	rec, err := a.repomanager.Tokens().FindByToken(ctx, token)
	if err != nil || !rec.Usable() || rec.UserID != user.ID {
		a.logger.Debug(ctx, "token not live in ledger", "subject", claims.Subject)
		return auth.Identity{}, false
	}

	return auth.NewIdentity(user.ID, user.Email, user.Role), true
}
