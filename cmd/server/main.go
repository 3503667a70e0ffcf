// Package main is the entry point for the fusor decision fusion service.
// The service fuses candidate trading decisions through a quantum-inspired
// probability pipeline, learns labeled feature patterns, analyzes parallel
// data streams, and persists the resulting market analysis reports.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/fusor/internal/config"
	"github.com/aristath/fusor/internal/database"
	"github.com/aristath/fusor/internal/modules/analysis"
	"github.com/aristath/fusor/internal/modules/patterns"
	"github.com/aristath/fusor/internal/modules/reports"
	"github.com/aristath/fusor/internal/scheduler"
	"github.com/aristath/fusor/internal/server"
	"github.com/aristath/fusor/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("version", cfg.EngineVersion).Msg("Starting fusor")

	// Reports database
	reportsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "reports.db"),
		Profile: database.ProfileStandard,
		Name:    "reports",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open reports database")
	}
	defer reportsDB.Close()

	reportsRepo, err := reports.NewRepository(reportsDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize reports repository")
	}

	// Pattern learner, restored from the last snapshot when one exists
	learner := patterns.NewLearner(log)
	if cfg.ModelSnapshotPath != "" {
		if err := learner.LoadSnapshot(cfg.ModelSnapshotPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Info().Str("path", cfg.ModelSnapshotPath).Msg("No model snapshot yet")
			} else {
				log.Warn().Err(err).Msg("Failed to load model snapshot")
			}
		}
	}

	// Analysis facade: version tag selects the capability profile
	analysisSvc, err := analysis.NewService(cfg.EngineVersion, cfg.StreamWorkers, learner, log)
	if err != nil {
		log.Fatal().Err(err).Str("version", cfg.EngineVersion).Msg("Failed to create analysis service")
	}

	// Background maintenance: prune old reports nightly
	sched := scheduler.New(log)
	retentionJob := scheduler.NewReportRetentionJob(reportsRepo, reportsDB, cfg.ReportRetentionDays, log)
	if err := sched.AddJob("0 30 3 * * *", retentionJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register retention job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		ReportsDB: reportsDB,
		Analysis:  analysisSvc,
		Learner:   learner,
		Reports:   reportsRepo,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Persist the learned pattern store before exit
	if cfg.ModelSnapshotPath != "" && learner.Trained() {
		if err := learner.SaveSnapshot(cfg.ModelSnapshotPath); err != nil {
			log.Error().Err(err).Msg("Failed to save model snapshot")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
