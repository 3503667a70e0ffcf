// Package server provides the HTTP server and routing for the fusion service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/fusor/internal/config"
	"github.com/aristath/fusor/internal/database"
	"github.com/aristath/fusor/internal/modules/analysis"
	analysishandlers "github.com/aristath/fusor/internal/modules/analysis/handlers"
	fusionhandlers "github.com/aristath/fusor/internal/modules/fusion/handlers"
	"github.com/aristath/fusor/internal/modules/patterns"
	patternshandlers "github.com/aristath/fusor/internal/modules/patterns/handlers"
	"github.com/aristath/fusor/internal/modules/reports"
	reportshandlers "github.com/aristath/fusor/internal/modules/reports/handlers"
	streamshandlers "github.com/aristath/fusor/internal/modules/streams/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	ReportsDB *database.DB
	Analysis  *analysis.Service
	Learner   *patterns.Learner
	Reports   *reports.Repository
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	reportsDB      *database.DB
	analysis       *analysis.Service
	learner        *patterns.Learner
	reports        *reports.Repository
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		reportsDB: cfg.ReportsDB,
		analysis:  cfg.Analysis,
		learner:   cfg.Learner,
		reports:   cfg.Reports,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config, cfg.ReportsDB, cfg.Analysis)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})

		fusionHandler := fusionhandlers.NewHandler(s.analysis.Engine(), s.log)
		fusionHandler.RegisterRoutes(r)

		patternsHandler := patternshandlers.NewHandler(s.learner, s.log)
		patternsHandler.RegisterRoutes(r)

		streamsHandler := streamshandlers.NewHandler(s.analysis.Streams(), s.log)
		streamsHandler.RegisterRoutes(r)

		analysisHandler := analysishandlers.NewHandler(s.analysis, s.reports, s.log)
		analysisHandler.RegisterRoutes(r)

		reportsHandler := reportshandlers.NewHandler(s.reports, s.log)
		reportsHandler.RegisterRoutes(r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
