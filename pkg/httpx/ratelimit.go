package httpx

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dathealth/medsched/pkg/slogx"
	"github.com/dathealth/medsched/pkg/webapi"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines a token-bucket limit over a time window.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Profiles for the route classes this service exposes.
var (
	// StrictLimit guards credential endpoints (login, forgot/reset
	// password) against brute force.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit covers authenticated write operations.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit covers authenticated reads.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit covers unauthenticated read-only endpoints like the
	// doctor directory.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

// KeyExtractor derives the bucket key for a request (IP, subject, ...).
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys by client IP, honouring proxy headers.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SubjectKeyExtractor keys by the authenticated subject, falling back to
// the client IP for unauthenticated requests.
func SubjectKeyExtractor(r *http.Request) string {
	if p, ok := PrincipalFromContext(r.Context()); ok && p.Subject != "" {
		return p.Subject
	}
	return IPKeyExtractor(r)
}

// limiterRegistry lazily creates one rate.Limiter per key and evicts idle
// ones so ephemeral keys don't accumulate forever.
type limiterRegistry struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (reg *limiterRegistry) get(key string) *rate.Limiter {
	if l, ok := reg.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	l, _ := reg.limiters.LoadOrStore(key, rate.NewLimiter(reg.rate, reg.burst))
	reg.maybeCleanup()
	return l.(*rate.Limiter)
}

func (reg *limiterRegistry) maybeCleanup() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if time.Since(reg.lastCleanup) < 5*time.Minute {
		return
	}
	reg.lastCleanup = time.Now()

	// A limiter with a full bucket has been idle at least one window.
	reg.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(reg.burst) {
			reg.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit builds middleware limiting requests per extracted key.
func RateLimit(cfg RateLimitConfig, extract KeyExtractor) Middleware {
	reg := &limiterRegistry{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := extract(r)
			if key == "" {
				log.Warn("rate limit: no key for request, allowing")
				next.ServeHTTP(w, r)
				return
			}

			limiter := reg.get(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))

				log.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
				webapi.New(http.StatusTooManyRequests, webapi.CodeRateLimited,
					"too many requests, try again later").WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits by client IP.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, IPKeyExtractor)
}

// RateLimitBySubject limits by authenticated subject, IP otherwise.
func RateLimitBySubject(cfg RateLimitConfig) Middleware {
	return RateLimit(cfg, SubjectKeyExtractor)
}
