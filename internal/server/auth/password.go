package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest secret bcrypt can hash.
const MaxPasswordBytes = 72

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// A malformed hash never matches.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyPasswordHash returns a valid bcrypt hash of a random secret. Login
// verifies against it when the user does not exist, so "unknown user" and
// "wrong password" cost the same.
func DummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte("skillbridge-dummy-password"), bcrypt.DefaultCost)
		if err != nil {
			panic(err)
		}
		dummyHash = string(b)
	})
	return dummyHash
}
