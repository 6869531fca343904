package auth

import (
	"context"
	"slices"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the per-request record of who, if anyone, authenticated.
// The zero value is the anonymous identity.
type Identity struct {
	principal *Principal
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated wraps p. A nil principal yields Anonymous.
func Authenticated(p *Principal) Identity {
	return Identity{principal: p}
}

func (id Identity) IsAuthenticated() bool {
	return id.principal != nil
}

// PrincipalName is the authenticated username, or "" when anonymous.
func (id Identity) PrincipalName() string {
	if id.principal == nil {
		return ""
	}
	return id.principal.Username
}

// Roles returns a copy of the principal's roles; anonymous has none.
func (id Identity) Roles() []string {
	if id.principal == nil {
		return nil
	}
	return slices.Clone(id.principal.Roles)
}

// HasRole reports whether the identity carries role.
func (id Identity) HasRole(role string) bool {
	return id.principal.HasRole(role)
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity installed by the Authenticator,
// or Anonymous when none is present.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok {
		return Anonymous()
	}
	return id
}
