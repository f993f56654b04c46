package core

import (
	"context"

	"github.com/markdave123-py/ticketlens/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	// UpsertUser creates the user on first sight of their firebase uid, or
	// refreshes last_login_at (and any non-empty profile fields) on conflict.
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)

	GetPlan(ctx context.Context, tier string) (*models.SubscriptionPlan, error)
	GetUsage(ctx context.Context, userID, monthYear string) (*models.UsageRecord, error)

	// ReserveUsage atomically increments the user's counter for the month iff
	// it is still below limit (limit < 0 means unlimited). Returns the count
	// after the increment, or ErrQuotaExceeded without changing anything.
	ReserveUsage(ctx context.Context, userID, monthYear string, limit int) (int, error)
	// ReleaseUsage undoes one reservation after an upstream failure.
	ReleaseUsage(ctx context.Context, userID, monthYear string) error

	CreateAnalysis(ctx context.Context, a *models.Analysis) error
	GetAnalysisByID(ctx context.Context, id string) (*models.Analysis, error)
	ListRecentAnalyses(ctx context.Context, userID string, limit int) ([]models.Analysis, error)
	ListAllAnalyses(ctx context.Context, userID string) ([]models.Analysis, error)
	SearchSimilarAnalyses(ctx context.Context, userID string, embedding []float32, limit int) ([]models.SimilarTicket, error)

	CreateFeedback(ctx context.Context, f *models.Feedback) error

	GetUserStats(ctx context.Context, userID, monthYear string) (*models.UserStats, error)

	Close() error
}

// Predictor calls the external model and returns the grouped file prediction.
// A single attempt; any failure is wrapped in ErrUpstream by the caller.
type Predictor interface {
	Predict(ctx context.Context, ticketText string) (*models.PredictionResult, error)
}

// Embedder turns ticket text into a vector for similar-ticket recall.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// TokenVerifier checks a bearer token and returns the identity it carries.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// Identity is what a verified token tells us about the caller.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// FileVerifier checks predicted paths against the source-hosting repository.
type FileVerifier interface {
	VerifyFiles(ctx context.Context, repo, branch string, paths []string) (*models.VerificationReport, error)
}

// ObjectClient stores exported artifacts in object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteFile(ctx context.Context, bucket, key string) error
}
