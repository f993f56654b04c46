package models

import (
	"time"
)

// User represents an authenticated user of the system. Identity comes from the
// external provider; we only mirror the profile plus the subscription tier.
type User struct {
	ID               string    `db:"id" json:"id"`
	FirebaseUID      string    `db:"firebase_uid" json:"firebase_uid"`
	Email            string    `db:"email" json:"email"`
	DisplayName      string    `db:"display_name" json:"display_name"`
	PhotoURL         string    `db:"photo_url" json:"photo_url,omitempty"`
	SubscriptionTier string    `db:"subscription_tier" json:"subscription_tier"` // free | pro | team | enterprise
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
	LastLoginAt      time.Time `db:"last_login_at" json:"last_login_at"`
}

// SubscriptionPlan maps a tier to its monthly analysis limit. A limit of -1
// means unlimited.
type SubscriptionPlan struct {
	Tier               string `db:"tier" json:"tier"`
	Name               string `db:"name" json:"name"`
	MonthlyTicketLimit int    `db:"monthly_ticket_limit" json:"monthly_ticket_limit"`
}

// UsageRecord tracks how many tickets a user has analyzed in one month.
// One row per user per month, keyed by "YYYY-MM".
type UsageRecord struct {
	UserID           string    `db:"user_id" json:"user_id"`
	MonthYear        string    `db:"month_year" json:"month_year"`
	TicketsProcessed int       `db:"tickets_processed" json:"tickets_processed"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// PredictionResult is the category-grouped file prediction for one ticket.
// Fields are tolerant of partial predictor output: anything missing decodes to
// its zero value.
type PredictionResult struct {
	AnalysisID      string  `json:"analysis_id,omitempty"`
	TicketKey       string  `json:"ticket_key,omitempty"`
	TotalFiles      int     `json:"total_files"`
	ConfidenceScore float64 `json:"confidence_score"`
	Reasoning       string  `json:"reasoning,omitempty"`

	FrontendFiles []string `json:"frontend_files"`
	BackendFiles  []string `json:"backend_files"`
	DatabaseFiles []string `json:"database_files"`
	ConfigFiles   []string `json:"config_files"`
	TestFiles     []string `json:"test_files"`

	ProcessingTimeMs int    `json:"processing_time_ms,omitempty"`
	UserTier         string `json:"user_tier,omitempty"`

	Verification   *VerificationReport `json:"verification,omitempty"`
	SimilarTickets []SimilarTicket     `json:"similar_tickets,omitempty"`
}

// Categories returns the grouped file lists in a fixed order, keyed by the
// label used in rendered output.
func (r *PredictionResult) Categories() []FileCategory {
	return []FileCategory{
		{Label: "Frontend", Files: r.FrontendFiles},
		{Label: "Backend", Files: r.BackendFiles},
		{Label: "Database", Files: r.DatabaseFiles},
		{Label: "Config", Files: r.ConfigFiles},
		{Label: "Tests", Files: r.TestFiles},
	}
}

// AllFiles flattens every category into one list, in category order.
func (r *PredictionResult) AllFiles() []string {
	var out []string
	for _, c := range r.Categories() {
		out = append(out, c.Files...)
	}
	return out
}

// CountFiles recomputes TotalFiles from the grouped lists.
func (r *PredictionResult) CountFiles() int {
	n := 0
	for _, c := range r.Categories() {
		n += len(c.Files)
	}
	return n
}

// FileCategory is one labeled group of predicted files.
type FileCategory struct {
	Label string   `json:"label"`
	Files []string `json:"files"`
}

// Analysis is one persisted prediction request/response pair.
type Analysis struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	TicketKey        string    `db:"ticket_key" json:"ticket_key"`
	TicketText       string    `db:"ticket_text" json:"ticket_text,omitempty"`
	Result           string    `db:"result" json:"-"` // raw PredictionResult JSON
	ConfidenceScore  float64   `db:"confidence_score" json:"confidence_score"`
	ProcessingTimeMs int       `db:"processing_time_ms" json:"processing_time_ms"`
	Embedding        []float32 `db:"embedding" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// SimilarTicket is a prior analysis that resembles the current ticket.
type SimilarTicket struct {
	AnalysisID      string    `json:"analysis_id"`
	TicketKey       string    `json:"ticket_key"`
	ConfidenceScore float64   `json:"confidence_score"`
	Distance        float64   `json:"distance"`
	CreatedAt       time.Time `json:"created_at"`
}

// Feedback is a user's rating of one analysis. Rows are append-only.
type Feedback struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	AnalysisID     string    `db:"analysis_id" json:"analysis_id"`
	TicketKey      string    `db:"ticket_key" json:"ticket_key,omitempty"`
	WasAccurate    bool      `db:"was_accurate" json:"was_accurate"`
	AccuracyRating int       `db:"accuracy_rating" json:"accuracy_rating"`
	UserComment    string    `db:"user_comment" json:"user_comment,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// UsageStatus is the answer to "can this user analyze another ticket?".
type UsageStatus struct {
	CanAnalyze       bool   `json:"can_analyze"`
	SubscriptionTier string `json:"subscription_tier"`
	MonthlyLimit     int    `json:"monthly_limit"`
	UsedTickets      int    `json:"used_tickets"`
	RemainingTickets int    `json:"remaining_tickets"`
}

// UserStats aggregates a user's analysis history for the dashboard endpoint.
type UserStats struct {
	TotalAnalyses     int        `json:"total_analyses"`
	AverageConfidence float64    `json:"average_confidence"`
	FeedbackCount     int        `json:"feedback_count"`
	UsedThisMonth     int        `json:"used_this_month"`
	RecentAnalyses    []Analysis `json:"recent_analyses"`
}

// VerificationReport is the result of checking predicted paths against the
// source-hosting repository.
type VerificationReport struct {
	Repo             string        `json:"repo"`
	Branch           string        `json:"branch"`
	VerifiedFiles    []string      `json:"verified_files"`
	MissingFiles     []MissingFile `json:"missing_files"`
	VerificationRate float64       `json:"verification_rate"`
	TotalChecked     int           `json:"total_checked"`
}

// MissingFile is a predicted path that does not exist in the repository,
// with up to a few existing paths that share its basename.
type MissingFile struct {
	Path        string   `json:"path"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Ticket is the extracted content of one issue page. Read-only, sourced from
// the page DOM.
type Ticket struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FullText combines the ticket fields into the text sent to the predictor.
func (t *Ticket) FullText() string {
	s := t.Title
	if t.Key != "" {
		s = t.Key + ": " + s
	}
	if t.Description != "" {
		s += "\n\n" + t.Description
	}
	return s
}
