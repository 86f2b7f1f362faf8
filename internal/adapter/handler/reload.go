package handler

import (
	"errors"
	"net/http"

	"github.com/slacktail/slacktail/internal/infrastructure/config"
)

// Logger captures the logging behavior the HTTP handlers need.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ReloadHandler handles configuration reload requests.
type ReloadHandler struct {
	configManager *config.ConfigManager
	logger        Logger
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(cm *config.ConfigManager, logger Logger) *ReloadHandler {
	return &ReloadHandler{
		configManager: cm,
		logger:        logger,
	}
}

// ServeHTTP handles POST /-/reload requests.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.configManager.TryReload(); err != nil {
		if errors.Is(err, config.ErrRequiresRestart) {
			// Static keys changed; the running values stay until restart.
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Configuration change requires restart\n"))
			return
		}

		h.logger.Error("manual reload failed", "error", err)
		http.Error(w, "Configuration reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Configuration reloaded successfully\n"))
}
