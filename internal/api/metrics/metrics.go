// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dathealth/medsched/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medsched",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome (success, bad_credentials, disabled).",
	}, []string{"outcome"})

	TokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medsched",
		Name:      "token_rejections_total",
		Help:      "Bearer tokens rejected at the gate, by reason (expired, bad_signature, malformed, unknown_subject, invalid).",
	}, []string{"reason"})

	ResetCodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medsched",
		Name:      "reset_codes_issued_total",
		Help:      "Password reset codes minted.",
	})

	ResetCodesConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medsched",
		Name:      "reset_codes_consumed_total",
		Help:      "Password reset attempts by outcome (success, invalid, expired).",
	}, []string{"outcome"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medsched",
		Name:      "registrations_total",
		Help:      "Account registrations by role.",
	}, []string{"role"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medsched",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "status"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware records request latency per method and status code.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		requestDuration.WithLabelValues(r.Method, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

var _ httpx.Middleware = HTTPMiddleware

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
