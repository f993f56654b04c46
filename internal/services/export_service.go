package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

// ExportService archives a user's analysis history to object storage.
type ExportService struct {
	db     core.DbClient
	object core.ObjectClient
	bucket string
}

func NewExportService(db core.DbClient, object core.ObjectClient, bucket string) *ExportService {
	return &ExportService{db: db, object: object, bucket: bucket}
}

// Enabled reports whether object storage is configured.
func (s *ExportService) Enabled() bool {
	return s.object != nil && s.bucket != ""
}

type ExportResult struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Analyses  int    `json:"analyses"`
	CreatedAt string `json:"created_at"`
}

// exportRecord is one archived analysis. Analysis hides its raw result JSON
// from API responses; the archive must keep it.
type exportRecord struct {
	ID               string          `json:"id"`
	TicketKey        string          `json:"ticket_key"`
	TicketText       string          `json:"ticket_text"`
	Result           json.RawMessage `json:"result"`
	ConfidenceScore  float64         `json:"confidence_score"`
	ProcessingTimeMs int             `json:"processing_time_ms"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Export serializes every analysis the user has run and uploads the JSON
// document under exports/{user}/{timestamp}.json.
func (s *ExportService) Export(ctx context.Context, user *models.User) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("object storage not configured")
	}

	analyses, err := s.db.ListAllAnalyses(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	records := make([]exportRecord, 0, len(analyses))
	for _, a := range analyses {
		var raw json.RawMessage
		if a.Result != "" {
			raw = json.RawMessage(a.Result)
		}
		records = append(records, exportRecord{
			ID:               a.ID,
			TicketKey:        a.TicketKey,
			TicketText:       a.TicketText,
			Result:           raw,
			ConfidenceScore:  a.ConfidenceScore,
			ProcessingTimeMs: a.ProcessingTimeMs,
			CreatedAt:        a.CreatedAt,
		})
	}

	now := time.Now().UTC()
	doc := struct {
		UserID     string         `json:"user_id"`
		Email      string         `json:"email"`
		ExportedAt time.Time      `json:"exported_at"`
		Analyses   []exportRecord `json:"analyses"`
	}{
		UserID:     user.ID,
		Email:      user.Email,
		ExportedAt: now,
		Analyses:   records,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", user.ID, now.Format("20060102T150405Z"))
	url, err := s.object.UploadFile(ctx, s.bucket, key, data, "application/json")
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Key:       key,
		URL:       url,
		Analyses:  len(analyses),
		CreatedAt: now.Format(time.RFC3339),
	}, nil
}
