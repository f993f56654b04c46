package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

// FeedbackService records accuracy ratings against past analyses.
// Append-only: there is no update or delete path.
type FeedbackService struct {
	db core.DbClient
}

func NewFeedbackService(db core.DbClient) *FeedbackService {
	return &FeedbackService{db: db}
}

// Submit validates the rating, checks the referenced analysis exists and
// belongs to the caller, and inserts the row. Nothing is written on failure.
func (s *FeedbackService) Submit(ctx context.Context, user *models.User, f *models.Feedback) (*models.Feedback, error) {
	if f == nil || f.AnalysisID == "" {
		return nil, fmt.Errorf("%w: missing analysis_id", core.ErrValidation)
	}
	if f.AccuracyRating < 0 || f.AccuracyRating > 5 {
		return nil, fmt.Errorf("%w: accuracy_rating %d out of range 0..5", core.ErrValidation, f.AccuracyRating)
	}

	analysis, err := s.db.GetAnalysisByID(ctx, f.AnalysisID)
	if err != nil {
		return nil, err
	}
	if analysis == nil || analysis.UserID != user.ID {
		return nil, fmt.Errorf("%w: analysis %s", core.ErrNotFound, f.AnalysisID)
	}

	f.ID = uuid.NewString()
	f.UserID = user.ID
	if f.TicketKey == "" {
		f.TicketKey = analysis.TicketKey
	}
	if err := s.db.CreateFeedback(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}
