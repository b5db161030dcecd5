package httpx

import (
	"net/http"
	"time"
)

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, start time.Time)
}

// MetricsMiddleware reports every request under its matched ServeMux pattern.
func MetricsMiddleware(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			obs.ObserveRequest(route, r.Method, rw.statusCode, start)
		})
	}
}
