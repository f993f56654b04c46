package handlers

import (
	"net/http"

	middleware "github.com/markdave123-py/ticketlens/internal/api/middlewares"
	"github.com/markdave123-py/ticketlens/internal/services"
)

type UsageHandler struct {
	usage *services.UsageService
}

func NewUsageHandler(usage *services.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Check reports the caller's remaining monthly quota.
func (h *UsageHandler) Check(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := h.usage.Status(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
