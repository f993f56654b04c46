package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
	"github.com/markdave123-py/ticketlens/internal/services"
)

type contextKey string

const userContextKey contextKey = "ticketlens.user"

// AuthMiddleware verifies the bearer token on every protected request and
// attaches the (upserted) database user to the request context.
type AuthMiddleware struct {
	verifier core.TokenVerifier
	users    *services.UserService
}

func NewAuthMiddleware(verifier core.TokenVerifier, users *services.UserService) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing or invalid authorization header")
			return
		}
		idToken := strings.TrimPrefix(header, "Bearer ")

		identity, err := m.verifier.Verify(r.Context(), idToken)
		if err != nil {
			log.Printf("auth: token rejected: %v", err)
			unauthorized(w, "invalid authentication token")
			return
		}

		user, err := m.users.EnsureUser(r.Context(), identity)
		if err != nil {
			log.Printf("auth: ensure user %s: %v", identity.UID, err)
			unauthorized(w, "authentication failed")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the authenticated user set by RequireAuth, or nil.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userContextKey).(*models.User)
	return u
}

// WithUser attaches a user to a context. Used by tests that bypass the
// middleware.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
