package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/markdave123-py/ticketlens/internal/config"
	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/core/auth"
	db "github.com/markdave123-py/ticketlens/internal/core/database"
	"github.com/markdave123-py/ticketlens/internal/core/github"
	"github.com/markdave123-py/ticketlens/internal/core/llm"
	objectclient "github.com/markdave123-py/ticketlens/internal/core/object-client"
	"github.com/markdave123-py/ticketlens/internal/services"
)

type App struct {
	DBClient  core.DbClient
	Predictor *llm.GeminiPredictor
	Embedder  *llm.GeminiEmbedder
	Server    *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	var verifier core.TokenVerifier
	if cfg.FirebaseProjectID != "" {
		verifier, err = auth.NewFirebaseVerifier(appCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the token verifier: %w", err)
		}
		log.Println("Firebase token verification enabled.")
	} else {
		verifier = auth.NewHMACVerifier(cfg.JWTSecret)
		log.Println("WARN: Firebase not configured, using HS256 dev tokens.")
	}

	predictor, err := llm.NewGeminiPredictor(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the predictor: %w", err)
	}

	userService := services.NewUserService(dbClient)
	usageService := services.NewUsageService(dbClient)
	feedbackService := services.NewFeedbackService(dbClient)
	analysisService := services.NewAnalysisService(dbClient, usageService, predictor)

	if cfg.GitHubRepo != "" {
		analysisService.WithVerification(github.NewVerifier(cfg.GitHubToken), cfg.GitHubRepo, cfg.GitHubBranch)
		log.Printf("GitHub verification enabled for %s@%s.", cfg.GitHubRepo, cfg.GitHubBranch)
	}

	var embedder *llm.GeminiEmbedder
	if cfg.SimilarTickets {
		embedder, err = llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
		}
		analysisService.WithSimilarTickets(embedder)
		log.Println("Similar-ticket recall enabled.")
	}

	var exportService *services.ExportService
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		objClient, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		exportService = services.NewExportService(dbClient, objClient, cfg.BucketName)
		log.Println("Analysis export to S3 enabled.")
	}

	router := NewRouter(cfg, verifier, userService, usageService, analysisService, feedbackService, exportService)
	server := NewServer(cfg, router)

	return &App{
		DBClient:  dbClient,
		Predictor: predictor,
		Embedder:  embedder,
		Server:    server,
	}, nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.Predictor != nil {
		_ = a.Predictor.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
