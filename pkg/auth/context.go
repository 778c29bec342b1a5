package auth

import (
	"context"

	"github.com/cleancare/ccadmin/pkg/contextkeys"
)

// WithIdentity stores the identity in ctx
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	ctx = contextkeys.WithIdentity(ctx, identity)
	return contextkeys.WithUserID(ctx, identity.UserID)
}

// FromContext returns the authenticated identity, if any
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(contextkeys.IdentityKey).(*Identity)
	return identity, ok && identity != nil
}
