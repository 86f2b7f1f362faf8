package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	ownerNone    int32 = 0
	ownerHandler int32 = 1
	ownerTimeout int32 = 2
)

// Timeout bounds request processing and answers 504 Gateway Timeout when
// the handler does not respond in time. Probe and scrape endpoints are
// exempt so a stalled reload cannot fail liveness checks.
func Timeout(timeout time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/", "/health", "/ready", "/metrics":
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			tw := &timeoutResponseWriter{ResponseWriter: w}

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				// The response writer belongs to whoever claims it first. If
				// the handler already started writing, the response is on the
				// wire and the timeout answer must stay silent.
				if tw.owner.CompareAndSwap(ownerNone, ownerTimeout) {
					logger.Warn("request timeout",
						"path", r.URL.Path,
						"method", r.Method,
						"timeout", timeout,
					)
					http.Error(w, "Gateway Timeout", http.StatusGatewayTimeout)
				}
			}
		})
	}
}

// timeoutResponseWriter drops handler writes once the timeout response has
// gone out.
type timeoutResponseWriter struct {
	http.ResponseWriter
	owner       atomic.Int32
	wroteHeader bool
}

func (w *timeoutResponseWriter) claim() bool {
	return w.owner.CompareAndSwap(ownerNone, ownerHandler) || w.owner.Load() == ownerHandler
}

func (w *timeoutResponseWriter) WriteHeader(statusCode int) {
	if !w.claim() {
		return
	}
	if !w.wroteHeader {
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *timeoutResponseWriter) Write(b []byte) (int, error) {
	if !w.claim() {
		return len(b), nil
	}
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}
