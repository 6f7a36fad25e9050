package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meghraj-labs/auris/internal/auth"
	"github.com/meghraj-labs/auris/internal/config"
	"github.com/meghraj-labs/auris/internal/ledger/sqlite"
	"github.com/meghraj-labs/auris/internal/metrics"
	"github.com/meghraj-labs/auris/internal/pipeline"
	"github.com/meghraj-labs/auris/internal/server"
	"github.com/meghraj-labs/auris/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	mp, shutdownTelemetry, err := telemetry.Init("auris", logger)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("failed to shutdown telemetry", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	recorder, err := metrics.NewRecorder(mp)
	if err != nil {
		log.Fatalf("Failed to create metrics recorder: %v", err)
	}

	store, err := sqlite.New(cfg.Ledger.Path)
	if err != nil {
		log.Fatalf("Failed to open detection ledger: %v", err)
	}
	defer store.Close()

	orch := pipeline.FromAppConfig(cfg, store, recorder, logger)

	srv := server.New(server.Config{
		Port:              cfg.Server.Port,
		RequestTimeout:    cfg.Server.RequestTimeout,
		RateLimitCapacity: cfg.RateLimit.Capacity,
		Orchestrator:      orch,
		Store:             store,
		Recorder:          recorder,
		Authenticator:     auth.NewAuthenticator(cfg.Auth.KeyHashes),
		Logger:            logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("detection service started",
		slog.Int("port", cfg.Server.Port),
		slog.String("ledger", cfg.Ledger.Path),
		slog.String("model_dir", cfg.Classifier.ModelDir),
		slog.Bool("auth", len(cfg.Auth.KeyHashes) > 0))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigChan:
		logger.Info("shutdown signal received, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
