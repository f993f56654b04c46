package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/models"
)

const minTicketTextLen = 10

// AnalysisService runs the full prediction pipeline: quota reservation,
// predictor call, optional repository verification and similar-ticket recall,
// then persistence.
type AnalysisService struct {
	db        core.DbClient
	usage     *UsageService
	predictor core.Predictor

	// Optional collaborators; nil disables the step.
	verifier core.FileVerifier
	embedder core.Embedder

	githubRepo   string
	githubBranch string
}

func NewAnalysisService(db core.DbClient, usage *UsageService, predictor core.Predictor) *AnalysisService {
	return &AnalysisService{db: db, usage: usage, predictor: predictor}
}

// WithVerification enables GitHub path verification against repo@branch.
func (s *AnalysisService) WithVerification(v core.FileVerifier, repo, branch string) *AnalysisService {
	s.verifier = v
	s.githubRepo = repo
	s.githubBranch = branch
	return s
}

// WithSimilarTickets enables embedding storage and similar-ticket recall.
func (s *AnalysisService) WithSimilarTickets(e core.Embedder) *AnalysisService {
	s.embedder = e
	return s
}

// Analyze validates the ticket, reserves quota, calls the predictor once and
// persists the outcome. On upstream failure the reservation is released, so
// a failed analysis is never billed. The returned plan is non-nil whenever the
// quota was consulted, so handlers can build the quota-exceeded body.
func (s *AnalysisService) Analyze(ctx context.Context, user *models.User, ticketText, ticketKey string) (*models.PredictionResult, *models.SubscriptionPlan, error) {
	if len(strings.TrimSpace(ticketText)) < minTicketTextLen {
		return nil, nil, fmt.Errorf("%w: ticket text too short or empty", core.ErrValidation)
	}
	if ticketKey == "" {
		ticketKey = "Unknown"
	}

	plan, err := s.usage.Reserve(ctx, user)
	if err != nil {
		return nil, plan, err
	}

	start := time.Now()
	result, err := s.predictor.Predict(ctx, ticketText)
	if err != nil {
		if relErr := s.usage.Release(ctx, user); relErr != nil {
			log.Printf("release usage for %s: %v", user.ID, relErr)
		}
		return nil, plan, fmt.Errorf("%w: %v", core.ErrUpstream, err)
	}
	// The reported total always matches the category lists, whatever the
	// predictor put there.
	result.TotalFiles = result.CountFiles()

	// Verification and embedding are best-effort enrichments; neither may
	// fail the analysis.
	var embedding []float32
	g, gctx := errgroup.WithContext(ctx)
	if s.verifier != nil && s.githubRepo != "" {
		g.Go(func() error {
			report, err := s.verifier.VerifyFiles(gctx, s.githubRepo, s.githubBranch, result.AllFiles())
			if err != nil {
				log.Printf("verify files against %s: %v", s.githubRepo, err)
				return nil
			}
			result.Verification = report
			return nil
		})
	}
	if s.embedder != nil {
		g.Go(func() error {
			vec, err := s.embedder.EmbedText(gctx, ticketText)
			if err != nil {
				log.Printf("embed ticket %s: %v", ticketKey, err)
				return nil
			}
			embedding = vec
			return nil
		})
	}
	_ = g.Wait()

	if len(embedding) > 0 {
		similar, err := s.db.SearchSimilarAnalyses(ctx, user.ID, embedding, 3)
		if err != nil {
			log.Printf("similar tickets for %s: %v", ticketKey, err)
		} else {
			result.SimilarTickets = similar
		}
	}

	result.AnalysisID = uuid.NewString()
	result.TicketKey = ticketKey
	result.UserTier = user.SubscriptionTier
	result.ProcessingTimeMs = int(time.Since(start).Milliseconds())

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, plan, fmt.Errorf("marshal result: %w", err)
	}
	analysis := &models.Analysis{
		ID:               result.AnalysisID,
		UserID:           user.ID,
		TicketKey:        ticketKey,
		TicketText:       ticketText,
		Result:           string(raw),
		ConfidenceScore:  result.ConfidenceScore,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Embedding:        embedding,
	}
	if err := s.db.CreateAnalysis(ctx, analysis); err != nil {
		return nil, plan, fmt.Errorf("persist analysis: %w", err)
	}

	return result, plan, nil
}

// Stats returns the dashboard aggregates for one user.
func (s *AnalysisService) Stats(ctx context.Context, user *models.User) (*models.UserStats, error) {
	return s.db.GetUserStats(ctx, user.ID, MonthKey(time.Now()))
}
