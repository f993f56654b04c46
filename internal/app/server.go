package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/ticketlens/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/ticketlens/internal/api/middlewares"
	"github.com/markdave123-py/ticketlens/internal/config"
	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/services"
)

const version = "1.0.0"

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewRouter builds and wires all routes. Split from NewServer so tests can
// drive the router directly through httptest.
func NewRouter(cfg *config.Config, verifier core.TokenVerifier,
	users *services.UserService, usage *services.UsageService,
	analysis *services.AnalysisService, feedback *services.FeedbackService,
	export *services.ExportService) chi.Router {

	authHandler := handlers.NewAuthHandler(users)
	usageHandler := handlers.NewUsageHandler(usage)
	analyzeHandler := handlers.NewAnalyzeHandler(analysis)
	feedbackHandler := handlers.NewFeedbackHandler(feedback)
	userHandler := handlers.NewUserHandler(analysis, export)
	authMiddleware := appMiddleware.NewAuthMiddleware(verifier, users)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// public endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"TicketLens API","version":"` + version +
			`","features":["authentication","usage_tracking","feedback","verification"]}`))
	})

	// protected endpoints
	r.Group(func(protected chi.Router) {
		protected.Use(authMiddleware.RequireAuth)
		protected.Post("/auth/register", authHandler.Register)
		protected.Get("/usage/check", usageHandler.Check)
		protected.Post("/analyze", analyzeHandler.Analyze)
		protected.Post("/feedback", feedbackHandler.Submit)
		protected.Get("/user/stats", userHandler.Stats)
		protected.Post("/user/export", userHandler.Export)
	})

	return r
}

// NewServer wraps the router in an http.Server on the configured port.
func NewServer(cfg *config.Config, router chi.Router) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
	}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
