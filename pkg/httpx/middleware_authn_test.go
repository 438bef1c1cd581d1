package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dathealth/medsched/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	subject string
	err     error
	calls   int
}

func (v *stubVerifier) Verify(token string) (string, error) {
	v.calls++
	return v.subject, v.err
}

type stubResolver struct {
	principals map[string]httpx.Principal
	err        error
}

func (r *stubResolver) ResolvePrincipal(ctx context.Context, subject string) (httpx.Principal, error) {
	if r.err != nil {
		return httpx.Principal{}, r.err
	}
	p, ok := r.principals[subject]
	if !ok {
		return httpx.Principal{}, httpx.ErrPrincipalNotFound
	}
	return p, nil
}

func newGate(verifier *stubVerifier, resolver *stubResolver) *httpx.Gate {
	return &httpx.Gate{
		Verifier:  verifier,
		Resolver:  resolver,
		AllowList: httpx.NewAllowList("/api/auth/*", "/api/doctors/*", "/"),
	}
}

// captureHandler records whether downstream ran and with which principal.
type captureHandler struct {
	called    bool
	principal httpx.Principal
	hadAuth   bool
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.principal, h.hadAuth = httpx.PrincipalFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func serveGate(t *testing.T, g *httpx.Gate, req *http.Request) (*httptest.ResponseRecorder, *captureHandler) {
	t.Helper()
	downstream := &captureHandler{}
	rec := httptest.NewRecorder()
	g.Middleware()(downstream).ServeHTTP(rec, req)
	return rec, downstream
}

func TestGateSkipsAllowListedRoutes(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("should never be called")}
	gate := newGate(verifier, &stubResolver{})

	t.Run("allow-listed path ignores header contents entirely", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/doctors/123", nil)
		req.Header.Set("Authorization", "Bearer obviously-invalid")

		rec, downstream := serveGate(t, gate, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, downstream.called)
		require.False(t, downstream.hadAuth)
		require.Zero(t, verifier.calls, "token extraction must not run for public routes")
	})

	t.Run("OPTIONS preflight skips auth on any path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/users/me", nil)
		req.Header.Set("Authorization", "Bearer obviously-invalid")

		rec, downstream := serveGate(t, gate, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, downstream.called)
		require.Zero(t, verifier.calls)
	})
}

func TestGateNoTokenPresented(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("should never be called")}
	gate := newGate(verifier, &stubResolver{})

	for name, header := range map[string]string{
		"no header":       "",
		"basic scheme":    "Basic dXNlcjpwYXNz",
		"lowercase":       "bearer sometoken",
		"missing space":   "Bearertoken",
		"empty after tag": "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}

			rec, downstream := serveGate(t, gate, req)

			// "No token" passes through unauthenticated; the policy layer
			// decides downstream. It is never a 401 from the gate.
			require.Equal(t, http.StatusOK, rec.Code)
			require.True(t, downstream.called)
			require.False(t, downstream.hadAuth)
			require.Zero(t, verifier.calls)
		})
	}
}

func TestGateRejectsBadTokens(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("invalid signature")}
	gate := newGate(verifier, &stubResolver{})

	var gotReason error
	gate.OnAuthFailure = func(w http.ResponseWriter, r *http.Request, reason error) {
		gotReason = reason
		w.WriteHeader(http.StatusUnauthorized)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer tampered")

	rec, downstream := serveGate(t, gate, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, downstream.called, "downstream must not run after a rejected token")
	require.Error(t, gotReason)
}

func TestGateResolverOutcomes(t *testing.T) {
	enabled := httpx.Principal{Subject: "doc@example.com", Permissions: []string{"DOCTOR"}, Enabled: true}

	t.Run("valid token installs principal", func(t *testing.T) {
		gate := newGate(
			&stubVerifier{subject: "doc@example.com"},
			&stubResolver{principals: map[string]httpx.Principal{"doc@example.com": enabled}},
		)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("Authorization", "Bearer good")

		rec, downstream := serveGate(t, gate, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, downstream.hadAuth)
		require.Equal(t, "doc@example.com", downstream.principal.Subject)
		require.True(t, downstream.principal.HasPermission("DOCTOR"))
	})

	t.Run("unknown subject fails like a bad token", func(t *testing.T) {
		gate := newGate(
			&stubVerifier{subject: "ghost@example.com"},
			&stubResolver{principals: map[string]httpx.Principal{}},
		)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("Authorization", "Bearer stale-but-valid")

		rec, downstream := serveGate(t, gate, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, downstream.called)
	})

	t.Run("disabled principal fails like a bad token", func(t *testing.T) {
		disabled := enabled
		disabled.Enabled = false
		gate := newGate(
			&stubVerifier{subject: "doc@example.com"},
			&stubResolver{principals: map[string]httpx.Principal{"doc@example.com": disabled}},
		)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("Authorization", "Bearer good")

		rec, downstream := serveGate(t, gate, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, downstream.called)
	})

	t.Run("storage error surfaces as 500, not 401", func(t *testing.T) {
		gate := newGate(
			&stubVerifier{subject: "doc@example.com"},
			&stubResolver{err: errors.New("connection refused")},
		)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		req.Header.Set("Authorization", "Bearer good")

		rec, downstream := serveGate(t, gate, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.False(t, downstream.called)
	})
}

func TestPrincipalDoesNotLeakAcrossRequests(t *testing.T) {
	gate := newGate(
		&stubVerifier{subject: "doc@example.com"},
		&stubResolver{principals: map[string]httpx.Principal{
			"doc@example.com": {Subject: "doc@example.com", Enabled: true},
		}},
	)

	authed := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	authed.Header.Set("Authorization", "Bearer good")
	_, first := serveGate(t, gate, authed)
	require.True(t, first.hadAuth)

	// A later request without a token must see a clean context.
	anon := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	_, second := serveGate(t, gate, anon)
	require.False(t, second.hadAuth)
}
