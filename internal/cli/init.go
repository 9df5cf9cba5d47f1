// Package cli provides common CLI initialization utilities shared by
// cmd/juku and cmd/juku-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"juku/internal/billing"
	"juku/internal/config"
	"juku/internal/log"
	"juku/internal/pricing"
	"juku/internal/report"
	"juku/internal/services"
	"juku/internal/storage"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL value.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldErrorType, log.ErrorTypeConfiguration,
			log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err,
			"path", dbPath)
		os.Exit(1)
	}
	return sqliteRepo
}

// InitCalculator loads the pricing table named by the config (the embedded
// table when unset) and builds a calculator over it.
func InitCalculator(logger *log.Logger, cfg *config.Config) (*billing.Calculator, error) {
	table, err := pricing.Load(cfg.PricingFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("Pricing table loaded",
		log.FieldOperation, log.OpStartup,
		"school_year", table.SchoolYear(),
		"courses", len(table.Courses()),
		"strict", cfg.StrictPricing)
	return billing.NewCalculator(table,
		billing.WithStrict(cfg.StrictPricing),
		billing.WithLogger(logger)), nil
}

// NewReportService builds the report service with the configured cache.
func NewReportService(logger *log.Logger, cfg *config.Config, loader services.SnapshotLoader, calc *billing.Calculator) *services.ReportService {
	return services.NewReportService(loader, report.NewReporter(calc),
		services.WithReportCache(cfg.ReportCacheSize, cfg.ReportCacheTTL),
		services.WithReportLogger(logger.WithComponent(log.ComponentReport)))
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			log.FieldOperation, log.OpShutdown,
			"signal", sig.String())

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
