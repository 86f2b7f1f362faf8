package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

// TeamStatusSource reports the connection state of the managed team clients.
type TeamStatusSource interface {
	TeamNames() []string
	ConnectedTeams() []string
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	startTime time.Time
	teams     TeamStatusSource
}

// NewHealthHandler creates a new health handler. The status source may be
// nil, in which case the response carries no per-team section.
func NewHealthHandler(teams TeamStatusSource) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		teams:     teams,
	}
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
	}

	if h.teams != nil {
		names := h.teams.TeamNames()
		connectedNames := h.teams.ConnectedTeams()

		connected := make(map[string]bool, len(connectedNames))
		for _, name := range connectedNames {
			connected[name] = true
		}

		status := make(map[string]string, len(names))
		for _, name := range names {
			if connected[name] {
				status[name] = "connected"
			} else {
				status[name] = "disconnected"
			}
		}

		response["teams"] = map[string]any{
			"total":     len(names),
			"connected": len(connectedNames),
			"status":    status,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
