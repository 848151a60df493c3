// Package common defines shared constants and sentinel errors used across
// the auth service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal  = errors.New("internal error")
	ErrValidation  = errors.New("validation error")
	ErrInvalidRole = errors.New("invalid role")

	// Credential errors. Unknown user and wrong password both map to
	// ErrInvalidCredentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("incorrect current password")
	ErrPasswordMismatch   = errors.New("new password and confirmation do not match")

	// Token errors.
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidSignature      = errors.New("invalid token signature")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenRevokedOrUnknown = errors.New("token revoked or unknown")
	ErrSubjectMismatch       = errors.New("token subject mismatch")

	// Startup errors.
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrWeakSigningKey       = errors.New("signing key shorter than 256 bits")
)
