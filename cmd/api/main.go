package main

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/kurihiro0119/codacy-standards-report/internal/api"
	"github.com/kurihiro0119/codacy-standards-report/internal/config"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage/postgres"
	"github.com/kurihiro0119/codacy-standards-report/internal/storage/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CODACY_REPORT_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			logger.Fatal("Failed to initialize PostgreSQL storage", zap.Error(err))
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to initialize SQLite storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)

	// Setup routes
	router := api.SetupRoutes(handler, logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info("Starting API server",
		zap.String("addr", addr),
		zap.String("storage_type", cfg.StorageType))

	if err := router.Run(addr); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		os.Exit(1)
	}
}
