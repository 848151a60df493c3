package auth

import (
	"context"
	"slices"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID      string
	Subject     string
	Role        Role
	Authorities []string
}

// NewIdentity builds an Identity whose authorities come from the role table.
func NewIdentity(userID, subject string, role Role) Identity {
	return Identity{
		UserID:      userID,
		Subject:     subject,
		Role:        role,
		Authorities: AuthoritiesFor(role),
	}
}

// HasAuthority reports whether the identity holds authority a.
func (i Identity) HasAuthority(a string) bool {
	return slices.Contains(i.Authorities, a)
}

// HasAnyAuthority reports whether the identity holds at least one of as.
func (i Identity) HasAnyAuthority(as ...string) bool {
	return slices.ContainsFunc(as, i.HasAuthority)
}

// HasRole checks the synthesized role authority, not the Role field.
func (i Identity) HasRole(r Role) bool {
	return i.HasAuthority(r.Authority())
}

type identityKey struct{}

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached to ctx, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// ClearIdentity returns a child context in which no identity is visible,
// even if a parent carried one.
func ClearIdentity(ctx context.Context) context.Context {
	return context.WithValue(ctx, identityKey{}, nil)
}
