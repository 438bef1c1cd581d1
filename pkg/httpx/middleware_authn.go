package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dathealth/medsched/pkg/slogx"
)

// TokenVerifier validates a bearer token and returns its subject.
// Expected failures are returned values, not panics.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// PrincipalResolver reconstructs the principal behind a verified subject.
// ErrPrincipalNotFound is an expected outcome and must not be conflated
// with transport or storage errors, which propagate unchanged.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, subject string) (Principal, error)
}

// ErrPrincipalNotFound reports that a verified subject no longer resolves
// to a live account. The gate treats it exactly like a bad token: a deleted
// or renamed account must not retain access via an old but cryptographically
// valid token.
var ErrPrincipalNotFound = errors.New("httpx: principal not found")

// Responder writes a terminal HTTP response for an authentication or
// authorization outcome. Implementations must not panic.
type Responder func(w http.ResponseWriter, r *http.Request, reason error)

const bearerPrefix = "Bearer "

// BearerToken extracts the bearer token from the Authorization header.
// The header must start with the literal 7-character "Bearer " prefix;
// a missing header or any other scheme means "no token presented", which
// is a different outcome from a presented-but-invalid token.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// Gate is the per-request authentication filter. It runs exactly once per
// request, decides whether the route needs authentication at all, validates
// any presented token and installs the resolved principal into the request
// context. It never blocks a request just for lacking a token; routes that
// need a principal enforce that through the Policy middleware downstream.
type Gate struct {
	Verifier  TokenVerifier
	Resolver  PrincipalResolver
	AllowList *AllowList

	// OnAuthFailure writes the 401 when a presented token is rejected.
	// Defaults to a bare RFC 6750 response when nil.
	OnAuthFailure Responder

	// OnError writes the 5xx when the resolver fails for infrastructure
	// reasons. Such failures are never masked as 401s.
	OnError Responder
}

// Middleware returns the gate as chainable middleware.
func (g *Gate) Middleware() Middleware {
	authFailure := g.OnAuthFailure
	if authFailure == nil {
		authFailure = defaultAuthFailure
	}
	serverError := g.OnError
	if serverError == nil {
		serverError = defaultServerError
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			// 1. CORS preflight and allow-listed routes skip authentication
			// entirely; not even token extraction happens.
			if r.Method == http.MethodOptions || (g.AllowList != nil && g.AllowList.Match(r.URL.Path)) {
				next.ServeHTTP(w, r)
				return
			}

			// 2. No token presented: continue unauthenticated. The policy
			// middleware rejects downstream where a principal is required.
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// 3. A presented token must verify; any failure terminates the
			// request here, before handlers run.
			subject, err := g.Verifier.Verify(token)
			if err != nil {
				log.Warn("token rejected", "err", err)
				authFailure(w, r, err)
				return
			}

			// 4. Reconstruct the principal. A subject that no longer exists
			// or is disabled fails authentication like a bad token would.
			principal, err := g.Resolver.ResolvePrincipal(ctx, subject)
			if err != nil {
				if errors.Is(err, ErrPrincipalNotFound) {
					log.Warn("token subject does not resolve", "subject", subject)
					authFailure(w, r, err)
					return
				}
				log.Error("principal resolution failed", "err", err)
				serverError(w, r, err)
				return
			}
			if !principal.Enabled {
				log.Warn("disabled principal presented a valid token", "subject", subject)
				authFailure(w, r, ErrPrincipalNotFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

func defaultAuthFailure(w http.ResponseWriter, r *http.Request, reason error) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	w.WriteHeader(http.StatusUnauthorized)
}

func defaultServerError(w http.ResponseWriter, r *http.Request, reason error) {
	w.WriteHeader(http.StatusInternalServerError)
}
