package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/scanlate/internal/models"
)

func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.orchestrator.Settings())
	case "PUT":
		settings := h.orchestrator.Settings()
		if !h.decodeJSON(w, r, &settings) {
			return
		}
		if err := h.orchestrator.SetSettings(settings); err != nil {
			h.writeError(w, "Invalid settings: "+err.Error(), http.StatusBadRequest)
			return
		}
		h.writeJSON(w, h.orchestrator.Settings())
	case "DELETE":
		h.orchestrator.SetSettings(models.DefaultSettings())
		h.writeJSON(w, h.orchestrator.Settings())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
