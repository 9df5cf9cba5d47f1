package services

import (
	"context"

	"juku/internal/core"
	"juku/internal/reconcile"
	"juku/internal/report"
)

// SnapshotLoader reads everything billable in a range of periods.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, from, to core.Period) (report.Snapshot, error)
}

// PaymentStore persists what is recorded against billed items.
type PaymentStore interface {
	SnapshotLoader
	Entry(ctx context.Context, key core.ItemKey) (reconcile.Entry, error)
	SaveEntry(ctx context.Context, key core.ItemKey, e reconcile.Entry) (reconcile.Entry, error)
	DeletePayment(ctx context.Context, key core.ItemKey) (bool, error)
}

// EventPublisher announces payment changes to other processes.
type EventPublisher interface {
	PublishPaymentChanged(ctx context.Context, key core.ItemKey, action string) error
}

// Invalidator drops cached results covering a period.
type Invalidator interface {
	InvalidatePeriod(p core.Period) int
}
