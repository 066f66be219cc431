package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"bonus-service/internal/config"
	"bonus-service/internal/database"
	"bonus-service/internal/handlers"
	"bonus-service/internal/logging"
	"bonus-service/internal/repositories"
	"bonus-service/internal/services"
)

func main() {
	configPath := flag.String("config", ".env", "Path to an env-style config file")
	migrateCmd := flag.String("migrate", "", "Migration command (up/down/version)")
	steps := flag.Int("steps", 0, "Number of migration steps (0 means all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	if *migrateCmd != "" {
		if err := handleMigration(cfg, logger, *migrateCmd, *steps); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}
		return
	}

	var db *sql.DB
	if cfg.DatabaseEnabled() {
		db, err = database.NewConnection(cfg, logger)
		if err != nil {
			logger.Fatal("Error connecting to database", zap.Error(err))
		}
		defer db.Close()
	} else {
		logger.Warn("DB_HOST not set, run history is disabled")
	}

	service := services.NewBonusRunService(
		db,
		repositories.NewRunRepository(db),
		repositories.NewReconciliationRepository(db),
		services.NewInputLoader(cfg.Input.BaseDir, logger),
		cfg.Rules(),
		cfg.Reconciliation.Tolerance,
		logger,
	)
	router := handlers.SetupRouter(service, logger)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Server is running", zap.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}

func handleMigration(cfg *config.Config, logger *zap.Logger, command string, steps int) error {
	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}
	db.Close()

	m, err := migrate.New(
		fmt.Sprintf("file://%s", cfg.Migration.Dir),
		cfg.GetMigrationDBURL(),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verErr := m.Version()
		if verErr != nil {
			if errors.Is(verErr, migrate.ErrNilVersion) {
				logger.Info("No migrations have been applied yet")
				return nil
			}
			return fmt.Errorf("failed to get version: %w", verErr)
		}
		logger.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("invalid migration command: %s", command)
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No migration changes to apply")
			return nil
		}
		return err
	}

	logger.Info("Migration completed successfully")
	return nil
}
