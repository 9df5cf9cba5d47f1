package sheets

import (
	"context"

	"juku/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter publishes the monthly collection summary of a school year.
	SummaryWriter interface {
		WriteMonthly(ctx context.Context, year int, rows []core.MonthlySummary) error
	}

	// LedgerWriter publishes the per-student ledger of a school year.
	LedgerWriter interface {
		WriteStudents(ctx context.Context, year int, rows []core.StudentSummary) error
	}

	Exporter interface {
		SummaryWriter
		LedgerWriter
	}
)
