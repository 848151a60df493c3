// Package models defines server-side records persisted in the database.
package models

import (
	"time"

	"github.com/skillbridge/auth/internal/server/auth"
)

// User is a principal of the identity store. Email is unique and doubles
// as the token subject.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         auth.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
