package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dathealth/medsched/internal/api/metrics"
	"github.com/dathealth/medsched/internal/api/service"
	"github.com/dathealth/medsched/internal/api/store"
	"github.com/dathealth/medsched/pkg/httpx"
	"github.com/dathealth/medsched/pkg/jwtx"
	"github.com/dathealth/medsched/pkg/slogx"
	"github.com/dathealth/medsched/pkg/webapi"

	_ "github.com/dathealth/medsched/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// PublicRoutes is the closed set of paths that bypass authentication
// entirely. Everything else passes through the request gate, and the
// per-route policy decides what an anonymous request may do.
var PublicRoutes = httpx.NewAllowList(
	"/api/auth/*",
	"/api/doctors/*",
	"/",
	"/index.html",
	"/favicon.ico",
	"/static/*",
	"/assets/*",
	"/swagger/*",
	"/livez",
	"/readyz",
	"/metrics",
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	policy       httpx.Policy
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	AuthService   *service.AuthService
	UserService   *service.UserService
	DoctorService *service.DoctorService
}

func NewRouter(
	verifier httpx.TokenVerifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	gate := &httpx.Gate{
		Verifier:  verifier,
		Resolver:  &service.PrincipalResolver{Store: st},
		AllowList: PublicRoutes,
		OnAuthFailure: func(w http.ResponseWriter, req *http.Request, reason error) {
			slogx.FromContext(req.Context()).Warn("bearer token rejected", "reason", reason)
			metrics.TokenRejections.WithLabelValues(tokenRejectionReason(reason)).Inc()
			webapi.ErrInvalidToken.WriteError(w)
		},
		OnError: func(w http.ResponseWriter, req *http.Request, reason error) {
			slogx.FromContext(req.Context()).Error("principal resolution failed", "error", reason)
			webapi.ErrServerError.WriteError(w)
		},
	}

	r.policy = httpx.Policy{
		OnUnauthenticated: func(w http.ResponseWriter, req *http.Request, reason error) {
			webapi.ErrUnauthenticated.WriteError(w)
		},
		OnDenied: func(w http.ResponseWriter, req *http.Request, reason error) {
			slogx.FromContext(req.Context()).Warn("access denied", "reason", reason)
			webapi.ErrForbidden.WriteError(w)
		},
	}

	// Global chain: request logging, metrics, then the gate. Every
	// request flows through the gate exactly once.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.HTTPMiddleware,
		gate.Middleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerDoctors()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// tokenRejectionReason buckets a gate failure into a bounded label set
// for the rejection counter.
func tokenRejectionReason(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return "expired"
	case errors.Is(err, jwtx.ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, jwtx.ErrMalformed):
		return "malformed"
	case errors.Is(err, httpx.ErrPrincipalNotFound):
		return "unknown_subject"
	default:
		return "invalid"
	}
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
//
//	@title			MedSched API
//	@version		0.1.0
//	@description	Multi-tenant healthcare scheduling backend: accounts, authentication and the public doctor directory.
//	@description
//	@description				Access tokens are HS256 JWTs obtained from /api/auth/login. Pass them as "Bearer {token}".
//
//	@contact.name				DAT Health Engineering
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Registration - strict rate limit by IP (public signup endpoints)
	r.Mux.Handle("POST /api/auth/register/patient",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterPatient),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/register/doctor",
		httpx.Chain(http.HandlerFunc(h.HandleRegisterDoctor),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Credential endpoints - strict rate limit by IP to slow brute force
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerDoctors() {
	h := &DoctorsHandler{DoctorService: r.DoctorService}

	// Public directory - high limit by IP
	r.Mux.Handle("GET /api/doctors",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /api/doctors/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		UserService:   r.UserService,
		DoctorService: r.DoctorService,
	}

	// Account endpoints: any authenticated principal.
	r.Mux.Handle("GET /api/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.policy.RequireAuth(),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /api/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateMe),
			r.policy.RequireAuth(),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// Role-specific profiles. The policy distinguishes 401 from 403:
	// anonymous callers get 401, authenticated but wrong-role get 403.
	r.Mux.Handle("GET /api/users/me/patient",
		httpx.Chain(http.HandlerFunc(h.HandlePatientProfile),
			r.policy.RequirePermission("PATIENT"),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /api/users/me/patient",
		httpx.Chain(http.HandlerFunc(h.HandleUpdatePatientProfile),
			r.policy.RequirePermission("PATIENT"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/users/me/doctor",
		httpx.Chain(http.HandlerFunc(h.HandleDoctorProfile),
			r.policy.RequirePermission("DOCTOR"),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /api/users/me/doctor",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateDoctorProfile),
			r.policy.RequirePermission("DOCTOR"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// Administration.
	r.Mux.Handle("GET /api/roles",
		httpx.Chain(http.HandlerFunc(h.HandleListRoles),
			r.policy.RequirePermission("ADMIN"),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler())
}
