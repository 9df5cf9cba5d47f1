package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"juku/internal/amqp"
	"juku/internal/billing"
	"juku/internal/cli"
	"juku/internal/config"
	"juku/internal/log"
	"juku/internal/report"
	"juku/internal/services"
	"juku/internal/storage"
)

var (
	// Global flags
	dbPath      string
	pricingFile string
	strict      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "juku",
	Short: "Tutoring-school billing and payment reconciliation",
	Long: `juku computes what each student is billed per month, reconciles
received payments against it and reports collection status.

Reports:
  juku summary 2026-04 2026-09      # monthly collection summary
  juku students 2026-04 2026-09     # student ledgers, largest debtors first
  juku bill 2026-04                 # every billed item of one month

Payments:
  juku pay contract 12 2026-04 35000 --date 2026-04-27
  juku toggle-method contract 12 2026-04
  juku delete-payment contract 12 2026-04

Contracts:
  juku print initial 12
  juku print renewal 15`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&pricingFile, "pricing", "", "pricing table YAML (overrides PRICING_FILE)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "fail on undefined course prices instead of billing 0")
}

// app holds everything a command needs; close releases it.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	repo     *storage.SQLiteRepository
	calc     *billing.Calculator
	reports  *services.ReportService
	payments *services.PaymentService
	amqp     *amqp.Client
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.SQLiteDBPath = dbPath
	}
	if pricingFile != "" {
		cfg.PricingFile = pricingFile
	}
	if strict {
		cfg.StrictPricing = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	// CLI output goes to stdout; keep logs to warnings unless asked.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level)

	calc, err := cli.InitCalculator(logger, cfg)
	if err != nil {
		return nil, err
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, repo: repo, calc: calc}
	a.reports = cli.NewReportService(logger, cfg, repo, calc)

	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Payments are still saved; the worker's periodic export catches up.
			logger.WarnContext(ctx, "AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			a.amqp = client
			publisher = client
		}
	}
	a.payments = services.NewPaymentService(repo, report.NewReporter(calc), publisher, a.reports,
		logger.WithComponent(log.ComponentReconcile))
	return a, nil
}

func (a *app) close() {
	if a.amqp != nil {
		a.amqp.Close()
	}
	a.repo.Close()
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a, args)
	}
}
