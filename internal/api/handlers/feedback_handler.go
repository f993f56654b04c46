package handlers

import (
	"encoding/json"
	"net/http"

	middleware "github.com/markdave123-py/ticketlens/internal/api/middlewares"
	"github.com/markdave123-py/ticketlens/internal/models"
	"github.com/markdave123-py/ticketlens/internal/services"
)

type FeedbackHandler struct {
	feedback *services.FeedbackService
}

func NewFeedbackHandler(feedback *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

type feedbackRequest struct {
	AnalysisID     string `json:"analysis_id"`
	TicketKey      string `json:"ticket_key"`
	WasAccurate    bool   `json:"was_accurate"`
	AccuracyRating int    `json:"accuracy_rating"`
	UserComment    string `json:"user_comment"`
}

// Submit records accuracy feedback for a past analysis.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	saved, err := h.feedback.Submit(r.Context(), user, &models.Feedback{
		AnalysisID:     req.AnalysisID,
		TicketKey:      req.TicketKey,
		WasAccurate:    req.WasAccurate,
		AccuracyRating: req.AccuracyRating,
		UserComment:    req.UserComment,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"feedback_id": saved.ID,
		"message":     "Thank you for your feedback!",
	})
}
