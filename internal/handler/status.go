package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/openclaw/designdesk/internal/service"
)

// StatusHandler serves the operator view of client quota usage.
type StatusHandler struct {
	usage *service.UsageService
}

func NewStatusHandler(usage *service.UsageService) *StatusHandler {
	return &StatusHandler{usage: usage}
}

// Routes mounts under /v1. The caller wraps it with authentication.
func (h *StatusHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/clients", h.ListClients)
	return r
}

func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *StatusHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	report, err := h.usage.Report(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build usage report")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
