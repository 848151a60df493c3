package models

import "time"

// TokenType distinguishes the two kinds of ledger records.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// Token is one row of the revocation ledger. Revoked and Expired only ever
// move from false to true; rows are never deleted.
type Token struct {
	ID        string
	Token     string
	Type      TokenType
	Revoked   bool
	Expired   bool
	UserID    string
	CreatedAt time.Time
}

// Usable reports whether the record still vouches for its token.
func (t Token) Usable() bool {
	return !t.Revoked && !t.Expired
}
