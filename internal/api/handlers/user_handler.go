package handlers

import (
	"net/http"

	middleware "github.com/markdave123-py/ticketlens/internal/api/middlewares"
	"github.com/markdave123-py/ticketlens/internal/services"
)

type UserHandler struct {
	analysis *services.AnalysisService
	export   *services.ExportService
}

func NewUserHandler(analysis *services.AnalysisService, export *services.ExportService) *UserHandler {
	return &UserHandler{analysis: analysis, export: export}
}

// Stats returns the caller's dashboard aggregates and recent analyses.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.analysis.Stats(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export archives the caller's analysis history to object storage.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.export == nil || !h.export.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "export storage not configured")
		return
	}

	result, err := h.export.Export(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
