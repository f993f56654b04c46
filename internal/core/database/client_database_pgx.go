package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/ticketlens/internal/config"
	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("nil user")
	}
	const q = `
		INSERT INTO users
			(id, firebase_uid, email, display_name, photo_url, subscription_tier,
			 created_at, updated_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, 'free', now(), now(), now())
		ON CONFLICT (firebase_uid) DO UPDATE SET
			email         = EXCLUDED.email,
			display_name  = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE users.display_name END,
			photo_url     = CASE WHEN EXCLUDED.photo_url <> '' THEN EXCLUDED.photo_url ELSE users.photo_url END,
			last_login_at = now(),
			updated_at    = now()
		RETURNING id, firebase_uid, email, display_name, photo_url, subscription_tier,
		          created_at, updated_at, last_login_at
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q,
		user.ID, user.FirebaseUID, user.Email, user.DisplayName, user.PhotoURL,
	).Scan(
		&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.SubscriptionTier,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	const q = `
		SELECT id, firebase_uid, email, display_name, photo_url, subscription_tier,
		       created_at, updated_at, last_login_at
		FROM users WHERE firebase_uid = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, firebaseUID).Scan(
		&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.SubscriptionTier,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Plans and usage

func (c *DatabaseClient) GetPlan(ctx context.Context, tier string) (*models.SubscriptionPlan, error) {
	const q = `SELECT tier, name, monthly_ticket_limit FROM subscription_plans WHERE tier = $1`
	var p models.SubscriptionPlan
	err := c.db.QueryRowContext(ctx, q, tier).Scan(&p.Tier, &p.Name, &p.MonthlyTicketLimit)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: subscription plan %q", core.ErrNotFound, tier)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *DatabaseClient) GetUsage(ctx context.Context, userID, monthYear string) (*models.UsageRecord, error) {
	const q = `
		SELECT user_id, month_year, tickets_processed, updated_at
		FROM usage WHERE user_id = $1 AND month_year = $2
	`
	var u models.UsageRecord
	err := c.db.QueryRowContext(ctx, q, userID, monthYear).Scan(
		&u.UserID, &u.MonthYear, &u.TicketsProcessed, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return &models.UsageRecord{UserID: userID, MonthYear: monthYear}, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ReserveUsage is a single conditional upsert so concurrent requests from the
// same user cannot race past the limit. No row back means the limit was hit
// and nothing changed.
func (c *DatabaseClient) ReserveUsage(ctx context.Context, userID, monthYear string, limit int) (int, error) {
	if limit == 0 {
		return 0, core.ErrQuotaExceeded
	}
	const q = `
		INSERT INTO usage (user_id, month_year, tickets_processed, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (user_id, month_year) DO UPDATE
			SET tickets_processed = usage.tickets_processed + 1,
			    updated_at        = now()
			WHERE $3 < 0 OR usage.tickets_processed < $3
		RETURNING tickets_processed
	`
	var count int
	err := c.db.QueryRowContext(ctx, q, userID, monthYear, limit).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, core.ErrQuotaExceeded
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *DatabaseClient) ReleaseUsage(ctx context.Context, userID, monthYear string) error {
	const q = `
		UPDATE usage
		SET tickets_processed = GREATEST(tickets_processed - 1, 0), updated_at = now()
		WHERE user_id = $1 AND month_year = $2
	`
	_, err := c.db.ExecContext(ctx, q, userID, monthYear)
	return err
}

// Analyses

func (c *DatabaseClient) CreateAnalysis(ctx context.Context, a *models.Analysis) error {
	if a == nil {
		return errors.New("nil analysis")
	}
	const q = `
		INSERT INTO analysis_history
			(id, user_id, ticket_key, ticket_text, result, confidence_score,
			 processing_time_ms, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
	`
	var emb interface{}
	if len(a.Embedding) > 0 {
		emb = pgvector.NewVector(a.Embedding)
	}
	var createdAt interface{}
	if !a.CreatedAt.IsZero() {
		createdAt = a.CreatedAt
	}
	_, err := c.db.ExecContext(ctx, q,
		a.ID, a.UserID, a.TicketKey, a.TicketText, a.Result, a.ConfidenceScore,
		a.ProcessingTimeMs, emb, createdAt,
	)
	return err
}

func (c *DatabaseClient) GetAnalysisByID(ctx context.Context, id string) (*models.Analysis, error) {
	const q = `
		SELECT id, user_id, ticket_key, ticket_text, result, confidence_score,
		       processing_time_ms, created_at
		FROM analysis_history WHERE id = $1
	`
	var a models.Analysis
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.UserID, &a.TicketKey, &a.TicketText, &a.Result, &a.ConfidenceScore,
		&a.ProcessingTimeMs, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *DatabaseClient) ListRecentAnalyses(ctx context.Context, userID string, limit int) ([]models.Analysis, error) {
	const q = `
		SELECT id, user_id, ticket_key, confidence_score, processing_time_ms, created_at
		FROM analysis_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.TicketKey, &a.ConfidenceScore, &a.ProcessingTimeMs, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ListAllAnalyses(ctx context.Context, userID string) ([]models.Analysis, error) {
	const q = `
		SELECT id, user_id, ticket_key, ticket_text, result, confidence_score,
		       processing_time_ms, created_at
		FROM analysis_history
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.TicketKey, &a.TicketText, &a.Result, &a.ConfidenceScore,
			&a.ProcessingTimeMs, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) SearchSimilarAnalyses(ctx context.Context, userID string, embedding []float32, limit int) ([]models.SimilarTicket, error) {
	const q = `
		SELECT id, ticket_key, confidence_score, embedding <=> $2 AS distance, created_at
		FROM analysis_history
		WHERE user_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, userID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SimilarTicket
	for rows.Next() {
		var s models.SimilarTicket
		if err := rows.Scan(&s.AnalysisID, &s.TicketKey, &s.ConfidenceScore, &s.Distance, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Feedback

func (c *DatabaseClient) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if f == nil {
		return errors.New("nil feedback")
	}
	const q = `
		INSERT INTO feedback
			(id, user_id, analysis_id, ticket_key, was_accurate, accuracy_rating,
			 user_comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	var createdAt interface{}
	if !f.CreatedAt.IsZero() {
		createdAt = f.CreatedAt
	}
	_, err := c.db.ExecContext(ctx, q,
		f.ID, f.UserID, f.AnalysisID, f.TicketKey, f.WasAccurate, f.AccuracyRating,
		f.UserComment, createdAt,
	)
	return err
}

// Stats

func (c *DatabaseClient) GetUserStats(ctx context.Context, userID, monthYear string) (*models.UserStats, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM analysis_history WHERE user_id = $1),
			(SELECT COALESCE(AVG(confidence_score), 0) FROM analysis_history WHERE user_id = $1),
			(SELECT COUNT(*) FROM feedback WHERE user_id = $1),
			(SELECT COALESCE(MAX(tickets_processed), 0) FROM usage WHERE user_id = $1 AND month_year = $2)
	`
	var st models.UserStats
	if err := c.db.QueryRowContext(ctx, q, userID, monthYear).Scan(
		&st.TotalAnalyses, &st.AverageConfidence, &st.FeedbackCount, &st.UsedThisMonth,
	); err != nil {
		return nil, err
	}

	recent, err := c.ListRecentAnalyses(ctx, userID, 10)
	if err != nil {
		return nil, err
	}
	st.RecentAnalyses = recent
	return &st, nil
}
