// Package tokens is the revocation ledger: every issued token is recorded
// here, and a token is honoured only while its record is neither revoked nor
// expired.
package tokens

import (
	"context"

	"github.com/skillbridge/auth/internal/server/models"
)

type Repository interface {
	// Store records a freshly issued token with both flags cleared.
	// A token string that is already recorded yields common.ErrAlreadyExists.
	Store(ctx context.Context, userID, token string, typ models.TokenType) (models.Token, error)

	// FindByToken returns common.ErrorNotFound when the token was never recorded.
	FindByToken(ctx context.Context, token string) (models.Token, error)

	// InvalidateAllForUser marks every live record of userID revoked and
	// expired and reports how many records changed.
	InvalidateAllForUser(ctx context.Context, userID string) (int64, error)

	// Revoke marks a single record revoked and expired.
	Revoke(ctx context.Context, token string) error

	// ListActiveByUser returns the user's live records, newest first.
	ListActiveByUser(ctx context.Context, userID string) ([]models.Token, error)
}
