package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

// ReadinessChecker reports whether a dependency is ready to serve.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a plain function to the ReadinessChecker interface.
type CheckerFunc func(ctx context.Context) error

// Ping calls f.
func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// ReadyHandler reports readiness based on registered dependency checks.
// With no checkers registered it always reports ready.
type ReadyHandler struct {
	mu       sync.RWMutex
	checkers map[string]ReadinessChecker
}

// NewReadyHandler creates a new readiness handler.
func NewReadyHandler() *ReadyHandler {
	return &ReadyHandler{
		checkers: make(map[string]ReadinessChecker),
	}
}

// AddChecker registers a named dependency check.
func (h *ReadyHandler) AddChecker(name string, checker ReadinessChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// ServeHTTP handles GET /ready
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	checkers := make(map[string]ReadinessChecker, len(h.checkers))
	for name, checker := range h.checkers {
		checkers[name] = checker
	}
	h.mu.RUnlock()

	ready := true
	checks := make(map[string]map[string]any, len(checkers))
	for name, checker := range checkers {
		check := map[string]any{"ready": true}
		if err := checker.Ping(r.Context()); err != nil {
			ready = false
			check["ready"] = false
			check["error"] = err.Error()
		}
		checks[name] = check
	}

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(map[string]any{
		"ready":  ready,
		"checks": checks,
	})
}
