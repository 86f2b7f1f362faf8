package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/slacktail/slacktail/internal/adapter/handler"
	"github.com/slacktail/slacktail/internal/adapter/handler/middleware"
	"github.com/slacktail/slacktail/internal/infrastructure/observability"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	Health  *handler.HealthHandler
	Ready   *handler.ReadyHandler
	Metrics *handler.MetricsHandler
	Reload  *handler.ReloadHandler
}

// RouterConfig carries optional router wiring.
type RouterConfig struct {
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP router with default configuration.
func NewRouter(handlers *Handlers, logger *slog.Logger) http.Handler {
	return NewRouterWithConfig(handlers, logger, &RouterConfig{})
}

// NewRouterWithConfig creates the HTTP router with all handlers.
func NewRouterWithConfig(handlers *Handlers, logger *slog.Logger, cfg *RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// Probe endpoints
	mux.Handle("/health", handlers.Health)
	mux.Handle("/ready", handlers.Ready)
	mux.Handle("/", handlers.Health) // Root path returns health

	if handlers.Metrics != nil {
		mux.Handle("/metrics", handlers.Metrics)
	}

	if handlers.Reload != nil {
		mux.Handle("/-/reload", handlers.Reload)
	}

	// Middleware stack, innermost first. RequestID wraps Logging so the
	// request log line carries the ID.
	var h http.Handler = mux
	if cfg.RequestTimeout > 0 {
		h = middleware.Timeout(cfg.RequestTimeout, logger)(h)
	}
	if cfg.Metrics != nil {
		h = middleware.Observability(cfg.Metrics)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(logger)(h)

	return h
}
