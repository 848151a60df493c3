// Package users declares the identity-store contract and its PostgreSQL and
// in-memory implementations.
package users

import (
	"context"

	"github.com/skillbridge/auth/internal/server/models"
)

// Repository persists principals. Lookups return common.ErrorNotFound when
// no user matches; Create returns common.ErrAlreadyExists for a taken email.
type Repository interface {
	// Create inserts user, assigning an ID when empty, and returns the stored row.
	Create(ctx context.Context, user models.User) (models.User, error)

	// FindByEmail looks a user up by exact email.
	FindByEmail(ctx context.Context, email string) (models.User, error)

	// FindByID looks a user up by ID.
	FindByID(ctx context.Context, id string) (models.User, error)

	// Save overwrites the mutable fields (names, password hash, role) of an
	// existing user.
	Save(ctx context.Context, user models.User) error
}
