package httpx

import (
	"context"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
)

// identityKey is an unexported context key type to avoid collisions across
// packages. Centralized here so all handlers and middleware use the same key.
type identityKey struct{}

// SetIdentityInContext returns a child context carrying the verified identity.
func SetIdentityInContext(ctx context.Context, identity *domainauth.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext returns the verified identity from context and a
// boolean indicating presence.
func GetIdentityFromContext(ctx context.Context) (*domainauth.Identity, bool) {
	if identity, ok := ctx.Value(identityKey{}).(*domainauth.Identity); ok && identity != nil {
		return identity, true
	}
	return nil, false
}
