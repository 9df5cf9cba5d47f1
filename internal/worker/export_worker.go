package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"juku/internal/amqp"
	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/sheets"
)

// SchoolYearStartMonth is the first month of a school year (April).
const SchoolYearStartMonth = 4

// Reports is the subset of services.ReportService the worker needs.
type Reports interface {
	Monthly(ctx context.Context, from, to core.Period) ([]core.MonthlySummary, error)
	Students(ctx context.Context, from, to core.Period) ([]core.StudentSummary, error)
	InvalidatePeriod(p core.Period) int
}

// ExportWorker rewrites the summary and ledger sheets of a school year
// whenever a payment in that year changes.
type ExportWorker struct {
	reports  Reports
	exporter sheets.Exporter
	logger   *log.Logger
}

func NewExportWorker(reports Reports, exporter sheets.Exporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &ExportWorker{reports: reports, exporter: exporter, logger: logger}
}

// SchoolYear returns the school year containing p and its first and last periods.
func SchoolYear(p core.Period) (year int, from, to core.Period) {
	year = p.Year
	if p.Month < SchoolYearStartMonth {
		year--
	}
	from = core.NewPeriod(year, SchoolYearStartMonth)
	to = core.NewPeriod(year+1, SchoolYearStartMonth-1)
	return year, from, to
}

// HandlePaymentChanged processes a single payment change message from AMQP
func (w *ExportWorker) HandlePaymentChanged(ctx context.Context, msg *amqp.PaymentChangedMessage) error {
	if msg == nil {
		return errors.New("nil message")
	}
	p := msg.Period()
	w.logger.InfoContext(ctx, "Processing payment change",
		log.FieldMessageID, msg.ID.String(),
		log.FieldBillingType, msg.BillingType,
		log.FieldRefID, msg.RefID,
		log.FieldPeriod, p.String(),
		"action", msg.Action)

	// The publisher's cache lives in another process; ours must not serve stale rows.
	w.reports.InvalidatePeriod(p)

	year, _, _ := SchoolYear(p)
	if err := w.ExportYear(ctx, year); err != nil {
		return fmt.Errorf("export after %s: %w", msg.Key(), err)
	}
	return nil
}

// ExportYear recomputes and writes both sheets of one school year.
func (w *ExportWorker) ExportYear(ctx context.Context, year int) error {
	start := time.Now()
	_, from, to := SchoolYear(core.NewPeriod(year, SchoolYearStartMonth))

	monthly, err := w.reports.Monthly(ctx, from, to)
	if err != nil {
		return fmt.Errorf("monthly summary: %w", err)
	}
	students, err := w.reports.Students(ctx, from, to)
	if err != nil {
		return fmt.Errorf("student summary: %w", err)
	}

	if err := w.exporter.WriteMonthly(ctx, year, monthly); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := w.exporter.WriteStudents(ctx, year, students); err != nil {
		return fmt.Errorf("write ledger sheet: %w", err)
	}

	w.logger.InfoContext(ctx, "School year exported",
		log.FieldOperation, log.OpExport,
		log.FieldYear, year,
		"students", len(students),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// ExportAll writes the current school year and the previous one. It runs at
// startup to recover from events missed while the worker was down.
func (w *ExportWorker) ExportAll(ctx context.Context, now time.Time) error {
	year, _, _ := SchoolYear(core.PeriodOf(now))

	var errs []error
	for _, y := range []int{year - 1, year} {
		if err := w.ExportYear(ctx, y); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export school year",
				log.FieldYear, y,
				log.FieldError, err)
			errs = append(errs, fmt.Errorf("school year %d: %w", y, err))
		}
	}
	return errors.Join(errs...)
}
