package httpx

import "net/http"

// Middleware wraps a handler with per-request behaviour.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to h so the first listed runs first on the way
// in. Chain(h, a, b) serves a -> b -> h.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
