// Package services contains the server-side business logic. This file holds
// AuthService, which registers principals, exchanges credentials for token
// pairs, refreshes access tokens and revokes tokens on logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/logging"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/config"
	"github.com/skillbridge/auth/internal/server/models"
	"github.com/skillbridge/auth/internal/server/repositories/repomanager"
	"github.com/skillbridge/auth/internal/server/repositories/tokens"
	"github.com/skillbridge/auth/internal/server/repositories/users"
)

// Claim names added on top of sub/iat/exp.
const (
	ClaimTokenID   = "jti"
	ClaimRole      = "role"
	ClaimTokenType = "token_type"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

type AuthService struct {
	repomanager                  repomanager.RepositoryManager
	codec                        *auth.Codec
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
}

func NewAuthService(m repomanager.RepositoryManager, codec *auth.Codec, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		repomanager:                  m,
		codec:                        codec,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		logger:                       logger.With("module", "auth_service"),
	}
}

// Register creates the principal and its first token pair in one unit of
// work. A taken email yields common.ErrAlreadyExists.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, ur users.Repository, tr tokens.Repository) error {
		user, err := ur.Create(ctx, models.User{
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Email:        email,
			PasswordHash: hash,
			Role:         role,
		})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		pair, err = s.issuePair(ctx, tr, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "email", email, "role", string(role))
	return pair, nil
}

// Authenticate verifies credentials, invalidates every token the principal
// already holds and issues a fresh pair. Unknown email and wrong password
// both return common.ErrInvalidCredentials after one bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users().FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "user lookup failed", "error", err)
			return nil, common.ErrorInternal
		}
		auth.VerifyPassword(password, auth.DummyPasswordHash())
		return nil, common.ErrInvalidCredentials
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	ledger := s.repomanager.Tokens()
	n, err := ledger.InvalidateAllForUser(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "invalidating previous tokens failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	pair, err := s.issuePair(ctx, ledger, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user authenticated", "user_id", user.ID, "invalidated", n)
	return pair, nil
}

// RefreshAccessToken mints a new access token for a live refresh token. The
// refresh token is neither rotated nor invalidated, so repeating the call
// succeeds until the refresh token expires or the user logs in again.
// The returned pair echoes the refresh token.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	user, err := s.repomanager.Users().FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSubjectMismatch
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if user.Email != claims.Subject {
		return nil, common.ErrSubjectMismatch
	}

	ledger := s.repomanager.Tokens()
	rec, err := ledger.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenRevokedOrUnknown
		}
		s.logger.Error(ctx, "ledger lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !rec.Usable() || rec.Type != models.TokenTypeRefresh || rec.UserID != user.ID {
		return nil, common.ErrTokenRevokedOrUnknown
	}

	access, err := s.issue(ctx, ledger, user, models.TokenTypeAccess, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Logout revokes the bearer token in authorizationHeader, if it is known,
// and returns ctx with the identity cleared. It never fails; ledger errors
// are logged.
func (s *AuthService) Logout(ctx context.Context, authorizationHeader string) context.Context {
	token, ok := common.BearerToken(authorizationHeader)
	if !ok {
		return auth.ClearIdentity(ctx)
	}

	if err := s.repomanager.Tokens().Revoke(ctx, token); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "revoking token on logout failed", "error", err)
	}
	return auth.ClearIdentity(ctx)
}

func (s *AuthService) issuePair(ctx context.Context, ledger tokens.Repository, user models.User) (*TokenPair, error) {
	access, err := s.issue(ctx, ledger, user, models.TokenTypeAccess, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(ctx, ledger, user, models.TokenTypeRefresh, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// issue signs a token for user and records it in the ledger.
func (s *AuthService) issue(ctx context.Context, ledger tokens.Repository, user models.User, typ models.TokenType, ttl time.Duration) (string, error) {
	token, err := s.codec.Encode(user.Email, map[string]any{
		ClaimTokenID:   uuid.NewString(),
		ClaimRole:      string(user.Role),
		ClaimTokenType: string(typ),
	}, ttl)
	if err != nil {
		s.logger.Error(ctx, "signing token failed", "error", err)
		return "", common.ErrorInternal
	}
	if _, err := ledger.Store(ctx, user.ID, token, typ); err != nil {
		s.logger.Error(ctx, "recording token failed", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	return email, nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, auth.MaxPasswordBytes)
	}
	return nil
}
