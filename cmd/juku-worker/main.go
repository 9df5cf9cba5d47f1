package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"juku/internal/amqp"
	"juku/internal/cache"
	"juku/internal/cli"
	"juku/internal/log"
	gsheet "juku/internal/sheets/google"
	"juku/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting juku-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.ExportEnabled() || !cfg.AMQPEnabled() {
		logger.Error("juku-worker needs GOOGLE_SPREADSHEET_ID and AMQP_URL",
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	calc, err := cli.InitCalculator(logger, cfg)
	if err != nil {
		logger.Error("Failed to load pricing table",
			log.FieldErrorType, log.ErrorTypePricing,
			log.FieldError, err)
		os.Exit(1)
	}
	reports := cli.NewReportService(logger, cfg, sqliteRepo, calc)

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SummarySheet:    cfg.GoogleSummarySheet,
		LedgerSheet:     cfg.GoogleLedgerSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache))
	if c := reports.Cleaner(); c != nil {
		cacheManager.Register(c)
		cacheManager.StartCleanup(cfg.ReportCacheTTL)
	}

	exportWorker := worker.NewExportWorker(reports, sheetsClient, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, cacheManager.Stop)

	// Catch up on anything changed while the worker was down
	if err := exportWorker.ExportAll(ctx, time.Now()); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumePaymentChanged(gctx, exportWorker.HandlePaymentChanged)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := exportWorker.ExportAll(gctx, time.Now()); err != nil {
					logger.Error("Periodic export failed", log.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
