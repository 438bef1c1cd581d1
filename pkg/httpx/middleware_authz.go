package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated reports a protected route reached without a
	// principal. Maps to 401: "who are you".
	ErrUnauthenticated = errors.New("httpx: authentication required")

	// ErrPermissionDenied reports an authenticated principal lacking a
	// required permission tag. Maps to 403: "you lack rights".
	ErrPermissionDenied = errors.New("httpx: permission denied")
)

// Policy enforces route-level authorization after the gate has run. The
// 401 and 403 paths go through distinct responders and are never merged.
type Policy struct {
	// OnUnauthenticated writes the 401 for missing principals.
	OnUnauthenticated Responder

	// OnDenied writes the 403 for principals lacking a required permission.
	OnDenied Responder
}

// RequireAuth admits only requests carrying an authenticated principal.
func (p *Policy) RequireAuth() Middleware {
	unauthenticated := p.unauthenticated()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				unauthenticated(w, r, ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission admits only principals carrying the given permission
// tag. An unauthenticated request still gets the 401 path, never a 403.
func (p *Policy) RequirePermission(tag string) Middleware {
	unauthenticated := p.unauthenticated()
	denied := p.OnDenied
	if denied == nil {
		denied = defaultDenied
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				unauthenticated(w, r, ErrUnauthenticated)
				return
			}
			if !principal.HasPermission(tag) {
				denied(w, r, fmt.Errorf("%w: requires %s", ErrPermissionDenied, tag))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p *Policy) unauthenticated() Responder {
	if p.OnUnauthenticated != nil {
		return p.OnUnauthenticated
	}
	return defaultAuthFailure
}

func defaultDenied(w http.ResponseWriter, r *http.Request, reason error) {
	w.WriteHeader(http.StatusForbidden)
}
