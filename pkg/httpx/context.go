// Package httpx is the per-request security layer: the authentication gate,
// the authorization policy, the public-route allow-list and the supporting
// middleware plumbing. It is deliberately storage-agnostic; callers plug in
// a token verifier and a principal resolver.
package httpx

import (
	"context"
	"slices"
)

// Principal is the authenticated identity reconstructed on every request:
// a stable subject, its permission tags and whether the account is usable.
// The credential hash never travels with it.
type Principal struct {
	Subject     string
	Permissions []string
	Enabled     bool
}

// HasPermission reports whether the principal carries the given tag.
func (p Principal) HasPermission(tag string) bool {
	return slices.Contains(p.Permissions, tag)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p. The context is request-scoped;
// it is created by the gate and dies with the request, so principals can
// never leak across requests or pooled connections.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the request's principal, if the gate
// installed one.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
