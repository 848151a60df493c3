package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/logging"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/models"
	"github.com/skillbridge/auth/internal/server/repositories/repomanager"
)

type ChangePasswordRequest struct {
	CurrentPassword      string
	NewPassword          string
	ConfirmationPassword string
}

// UserService serves operations on the authenticated principal itself.
type UserService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{repomanager: m, logger: logger.With("module", "user_service")}
}

// ChangePassword replaces the principal's password hash. The current
// password is checked before the confirmation; on either failure the stored
// hash is left untouched. Existing tokens stay valid.
func (s *UserService) ChangePassword(ctx context.Context, id auth.Identity, req ChangePasswordRequest) error {
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return common.ErrIncorrectPassword
	}
	if req.NewPassword != req.ConfirmationPassword {
		return common.ErrPasswordMismatch
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return common.ErrorInternal
	}
	user.PasswordHash = hash

	if err := s.repomanager.Users().Save(ctx, user); err != nil {
		s.logger.Error(ctx, "saving password failed", "user_id", user.ID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// Me returns the stored principal behind id.
func (s *UserService) Me(ctx context.Context, id auth.Identity) (models.User, error) {
	return s.load(ctx, id)
}

// Sessions lists the principal's live ledger records.
func (s *UserService) Sessions(ctx context.Context, id auth.Identity) ([]models.Token, error) {
	recs, err := s.repomanager.Tokens().ListActiveByUser(ctx, id.UserID)
	if err != nil {
		s.logger.Error(ctx, "listing sessions failed", "user_id", id.UserID, "error", err)
		return nil, common.ErrorInternal
	}
	return recs, nil
}

func (s *UserService) load(ctx context.Context, id auth.Identity) (models.User, error) {
	user, err := s.repomanager.Users().FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.User{}, fmt.Errorf("user %s: %w", id.UserID, common.ErrorNotFound)
		}
		s.logger.Error(ctx, "user lookup failed", "user_id", id.UserID, "error", err)
		return models.User{}, common.ErrorInternal
	}
	return user, nil
}
