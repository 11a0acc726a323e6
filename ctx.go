package sightings

import (
	"context"

	"github.com/goliatone/go-router"
)

var principalCtxKey = &contextKey{"principal"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithPrincipal sets the Principal in the given context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext finds the principal in the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	return raw, ok
}

// WithClaims sets the token claims in the given context
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the token claims from the standard context
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*Claims)
	return raw, ok
}

// PrincipalFromRouter extracts the principal from the router context. The
// auth middleware stores it under the "principal" local.
func PrincipalFromRouter(ctx router.Context, key string) (*Principal, bool) {
	if key == "" {
		key = "principal"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	p, ok := raw.(*Principal)
	return p, ok
}
