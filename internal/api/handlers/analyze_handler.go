package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	middleware "github.com/markdave123-py/ticketlens/internal/api/middlewares"
	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/services"
)

type AnalyzeHandler struct {
	analysis *services.AnalysisService
}

func NewAnalyzeHandler(analysis *services.AnalysisService) *AnalyzeHandler {
	return &AnalyzeHandler{analysis: analysis}
}

type analyzeRequest struct {
	TicketText string `json:"ticket_text"`
	TicketKey  string `json:"ticket_key"`
}

// Analyze runs the prediction pipeline for one ticket.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	result, plan, err := h.analysis.Analyze(r.Context(), user, req.TicketText, req.TicketKey)
	if err != nil {
		if errors.Is(err, core.ErrQuotaExceeded) && plan != nil {
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":            "Monthly ticket limit reached",
				"limit":            plan.MonthlyTicketLimit,
				"plan":             plan.Name,
				"upgrade_required": true,
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
