// Package auth provides JWT-based authentication and role authorization
// for the Athenaeum API.
package auth

import (
	"context"

	"github.com/athenaeum-lms/athenaeum/internal/domain"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

// identityContextKey is the context key for the authenticated identity.
var identityContextKey = contextKey{}

// Identity describes the authenticated caller of a request.
type Identity struct {
	// UserID is the ID of the authenticated user.
	UserID int64

	// Username is the login name of the authenticated user.
	Username string

	// Role governs which operations the caller is authorized for.
	Role domain.Role
}

// IsStaff returns true for identities that operate on behalf of other users.
func (id Identity) IsStaff() bool {
	return id.Role.IsStaff()
}

// IsAdmin returns true if the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == domain.RoleAdmin
}

// CanActFor reports whether the caller may perform a self-service
// operation on behalf of the given user. Staff can act for anyone;
// students only for themselves.
func (id Identity) CanActFor(userID int64) bool {
	return id.IsStaff() || id.UserID == userID
}

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext extracts the authenticated identity from the context.
// Returns false if the request was not authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}
