package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

func seedAnalysis(db *fakeDB, id, userID, ticketKey string) {
	db.analyses[id] = &models.Analysis{ID: id, UserID: userID, TicketKey: ticketKey}
}

func TestSubmitFeedback(t *testing.T) {
	db := newFakeDB()
	seedAnalysis(db, "a1", "user-1", "PROJ-1")
	svc := NewFeedbackService(db)

	fb, err := svc.Submit(context.Background(), testUser("free"), &models.Feedback{
		AnalysisID:     "a1",
		WasAccurate:    true,
		AccuracyRating: 4,
		UserComment:    "found everything",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, fb.ID)
	assert.Equal(t, "user-1", fb.UserID)
	// Ticket key is inherited from the analysis when the client omits it.
	assert.Equal(t, "PROJ-1", fb.TicketKey)
	require.Len(t, db.feedback, 1)
}

func TestSubmitFeedbackWithoutStarRating(t *testing.T) {
	db := newFakeDB()
	seedAnalysis(db, "a1", "user-1", "PROJ-1")
	svc := NewFeedbackService(db)

	// Rating 0 means no stars given; a was_accurate-only submission is valid.
	fb, err := svc.Submit(context.Background(), testUser("free"), &models.Feedback{
		AnalysisID:  "a1",
		WasAccurate: false,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, fb.AccuracyRating)
	require.Len(t, db.feedback, 1)
}

func TestSubmitFeedbackMissingAnalysisID(t *testing.T) {
	svc := NewFeedbackService(newFakeDB())

	_, err := svc.Submit(context.Background(), testUser("free"), &models.Feedback{})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSubmitFeedbackRatingOutOfRange(t *testing.T) {
	db := newFakeDB()
	seedAnalysis(db, "a1", "user-1", "PROJ-1")
	svc := NewFeedbackService(db)

	for _, rating := range []int{-1, 6, 100} {
		_, err := svc.Submit(context.Background(), testUser("free"), &models.Feedback{
			AnalysisID:     "a1",
			AccuracyRating: rating,
		})
		assert.ErrorIs(t, err, core.ErrValidation, "rating %d", rating)
	}
	assert.Empty(t, db.feedback)
}

func TestSubmitFeedbackUnknownAnalysis(t *testing.T) {
	svc := NewFeedbackService(newFakeDB())

	_, err := svc.Submit(context.Background(), testUser("free"), &models.Feedback{
		AnalysisID:     "no-such-analysis",
		AccuracyRating: 3,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSubmitFeedbackForeignAnalysis(t *testing.T) {
	db := newFakeDB()
	seedAnalysis(db, "a1", "someone-else", "PROJ-1")
	svc := NewFeedbackService(db)

	// Another user's analysis looks like it doesn't exist.
	_, err := svc.Submit(context.Background(), testUser("free"), &models.Feedback{
		AnalysisID:     "a1",
		AccuracyRating: 3,
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, db.feedback)
}
