package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

type UserService struct {
	db core.DbClient
}

func NewUserService(db core.DbClient) *UserService {
	return &UserService{db: db}
}

// EnsureUser creates or refreshes the database row for a verified identity.
// Called on every authenticated request, same as at sign-in.
func (s *UserService) EnsureUser(ctx context.Context, id *core.Identity) (*models.User, error) {
	if id == nil || id.UID == "" {
		return nil, errors.New("invalid identity")
	}
	return s.db.UpsertUser(ctx, &models.User{
		ID:          uuid.NewString(),
		FirebaseUID: id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
	})
}

// Register upserts the profile fields the client sends explicitly after
// sign-in. Idempotent by firebase uid.
func (s *UserService) Register(ctx context.Context, id *core.Identity, displayName, photoURL string) (*models.User, error) {
	if id == nil || id.UID == "" {
		return nil, errors.New("invalid identity")
	}
	if displayName == "" {
		displayName = id.DisplayName
	}
	if photoURL == "" {
		photoURL = id.PhotoURL
	}
	return s.db.UpsertUser(ctx, &models.User{
		ID:          uuid.NewString(),
		FirebaseUID: id.UID,
		Email:       id.Email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
	})
}
