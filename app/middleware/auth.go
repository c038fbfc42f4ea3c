package appMiddleware

import (
	"context"

	"github.com/FACorreiaa/go-todo-auth/internal/types"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the authenticated principal on the request context.
func WithIdentity(ctx context.Context, identity *types.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the principal set by Authenticate, or nil.
func IdentityFromContext(ctx context.Context) *types.Identity {
	identity, _ := ctx.Value(identityKey).(*types.Identity)
	return identity
}

// ClearIdentity returns a context in which no principal is present.
func ClearIdentity(ctx context.Context) context.Context {
	return context.WithValue(ctx, identityKey, (*types.Identity)(nil))
}
