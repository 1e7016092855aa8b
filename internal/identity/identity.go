// Package identity resolves API callers to an application user with an
// active organization membership. Token verification is delegated to the
// OIDC provider; this package owns the token-to-membership mapping only.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the resolved caller attached to every authenticated request.
type Identity struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Email  string
}

// System defines the public contract for caller resolution.
type System interface {
	// Resolve verifies the raw bearer token and maps it to a user with an
	// active org membership. Returns ErrUnauthorized for bad tokens and
	// ErrNoMembership for valid tokens without an active membership.
	Resolve(ctx context.Context, rawToken string) (*Identity, error)
}

type contextKey struct{}

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the resolved identity from the request context.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok
}
