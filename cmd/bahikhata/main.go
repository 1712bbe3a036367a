package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bahikhata/internal/amqp"
	"bahikhata/internal/config"
	apphttp "bahikhata/internal/http"
	"bahikhata/internal/insight"
	applog "bahikhata/internal/log"
	"bahikhata/internal/services"
	"bahikhata/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentApp})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it, the worker's pending sweep still picks
	// up unexported transactions.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, export events disabled", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	// Advisor and extractor degrade to deterministic fallbacks without a key.
	var advisor insight.ReportAdvisor
	var extractor insight.DocumentExtractor
	if cfg.OpenAIAPIKey != "" {
		client := insight.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		advisor = client
		extractor = client
		logger.Info("Advisor model configured", "model", cfg.OpenAIModel)
	} else {
		logger.Info("No OPENAI_API_KEY, using static advisor and extractor")
	}

	authSvc := services.NewAuthService(repo)
	txSvc := services.NewTransactionService(repo, amqpClient)
	reportSvc := services.NewReportService(repo, advisor, cfg.Location())
	scanSvc := services.NewScanService(repo, extractor)

	srv := apphttp.NewServer(":"+cfg.Port, authSvc, txSvc, reportSvc, scanSvc, cfg.CORSOrigins)
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting bahikhata server", "port", cfg.Port, "time_zone", cfg.TimeZone)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
