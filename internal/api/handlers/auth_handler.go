package handlers

import (
	"encoding/json"
	"net/http"

	middleware "github.com/markdave123-py/ticketlens/internal/api/middlewares"
	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/services"
)

type AuthHandler struct {
	users *services.UserService
}

func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type registerRequest struct {
	FirebaseUID string `json:"firebase_uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

// Register upserts the caller's profile. Idempotent: the identity comes from
// the verified token, not the body, so a stale body can't hijack another row.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	identity := &core.Identity{
		UID:   user.FirebaseUID,
		Email: user.Email,
	}
	updated, err := h.users.Register(r.Context(), identity, req.DisplayName, req.PhotoURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    updated,
	})
}
