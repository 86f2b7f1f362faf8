package middleware

import (
	"net/http"
	"time"

	"github.com/slacktail/slacktail/internal/infrastructure/observability"
)

// Observability records request count, duration, and in-flight gauge for
// every request. Safe with nil metrics.
func Observability(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			metrics.AddActiveRequest(r.Context(), 1)
			defer metrics.AddActiveRequest(r.Context(), -1)

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			metrics.RecordHTTPRequest(
				r.Context(),
				r.Method,
				r.URL.Path,
				rw.statusCode,
				time.Since(start),
			)
		})
	}
}
