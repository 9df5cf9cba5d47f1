package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"juku/internal/amqp"
	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/reconcile"
	"juku/internal/report"
)

var ErrNotBilled = errors.New("item not billed in period")

// RecordRequest is a payment entered by staff.
type RecordRequest struct {
	Key         core.ItemKey
	PaidAmount  core.Yen
	PaymentDate *time.Time
	Method      core.PaymentMethod // empty keeps the current method
	Followup    core.FollowupStatus
	Notes       string
}

// PaymentService applies payment changes against storage. Change events are
// published best effort; the database is the source of truth.
type PaymentService struct {
	store       PaymentStore
	reporter    *report.Reporter
	publisher   EventPublisher
	invalidator Invalidator
	logger      *log.Logger
}

// NewPaymentService wires the service. publisher and invalidator may be nil.
func NewPaymentService(store PaymentStore, reporter *report.Reporter, publisher EventPublisher, invalidator Invalidator, logger *log.Logger) *PaymentService {
	if logger == nil {
		logger = log.Default(log.ComponentReconcile)
	}
	return &PaymentService{
		store:       store,
		reporter:    reporter,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
	}
}

// item finds the billed item for key in its period.
func (s *PaymentService) item(ctx context.Context, key core.ItemKey) (reconcile.Item, error) {
	if err := key.Validate(); err != nil {
		return reconcile.Item{}, err
	}
	snap, err := s.store.LoadSnapshot(ctx, key.Period, key.Period)
	if err != nil {
		return reconcile.Item{}, err
	}
	items, err := s.reporter.Items(snap, key.Period)
	if err != nil {
		return reconcile.Item{}, err
	}
	for _, it := range items {
		if it.Key == key {
			return it, nil
		}
	}
	return reconcile.Item{}, fmt.Errorf("%w: %s", ErrNotBilled, key)
}

// Record stores a received payment for a billed item and returns its
// reconciled state.
func (s *PaymentService) Record(ctx context.Context, req RecordRequest) (reconcile.Result, error) {
	if req.PaidAmount < 0 {
		return reconcile.Result{}, core.ErrInvalidAmount
	}
	if req.Method != "" {
		if err := req.Method.Validate(); err != nil {
			return reconcile.Result{}, err
		}
	}
	it, err := s.item(ctx, req.Key)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("record payment: %w", err)
	}
	current, err := s.store.Entry(ctx, req.Key)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("record payment: %w", err)
	}

	followup := req.Followup
	if followup == "" {
		followup = core.FollowupNone
	}
	next := reconcile.RecordPayment(current, reconcile.PaymentRecord{
		Key:          req.Key,
		BilledAmount: it.BilledAmount,
		PaidAmount:   req.PaidAmount,
		PaymentDate:  req.PaymentDate,
		Method:       req.Method,
		Followup:     followup,
		Notes:        req.Notes,
	})
	saved, err := s.store.SaveEntry(ctx, req.Key, next)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("record payment: %w", err)
	}

	res := reconcile.Reconcile(it, saved.Record, saved.Override)
	s.logger.InfoContext(ctx, "Payment recorded", log.NewFields().
		WithOperation(log.OpRecord).
		WithItem(string(req.Key.Type), req.Key.RefID, req.Key.Period.String()).
		WithAmounts(int64(it.BilledAmount), int64(req.PaidAmount)).
		ToSlice()...)
	s.changed(ctx, req.Key, amqp.ActionRecorded)
	return res, nil
}

// ToggleMethod flips the effective payment method of a billed item.
func (s *PaymentService) ToggleMethod(ctx context.Context, key core.ItemKey) (reconcile.Result, error) {
	return s.changeMethod(ctx, key, log.OpToggle, func(e reconcile.Entry, def core.PaymentMethod) reconcile.Entry {
		return reconcile.ToggleMethod(key, e, def)
	})
}

// SetMethod sets the payment method of a billed item, paid or not.
func (s *PaymentService) SetMethod(ctx context.Context, key core.ItemKey, m core.PaymentMethod) (reconcile.Result, error) {
	if err := m.Validate(); err != nil {
		return reconcile.Result{}, err
	}
	return s.changeMethod(ctx, key, log.OpSetMethod, func(e reconcile.Entry, _ core.PaymentMethod) reconcile.Entry {
		return reconcile.SetMethod(key, e, m)
	})
}

func (s *PaymentService) changeMethod(ctx context.Context, key core.ItemKey, op string, change func(reconcile.Entry, core.PaymentMethod) reconcile.Entry) (reconcile.Result, error) {
	it, err := s.item(ctx, key)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	current, err := s.store.Entry(ctx, key)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("%s: %w", op, err)
	}
	saved, err := s.store.SaveEntry(ctx, key, change(current, it.DefaultMethod))
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("%s: %w", op, err)
	}

	res := reconcile.Reconcile(it, saved.Record, saved.Override)
	s.logger.InfoContext(ctx, "Payment method changed",
		log.FieldOperation, op,
		log.FieldBillingType, string(key.Type),
		log.FieldRefID, key.RefID,
		log.FieldPeriod, key.Period.String(),
		log.FieldMethod, string(res.Method))
	s.changed(ctx, key, amqp.ActionMethodToggled)
	return res, nil
}

// Delete removes the payment and any method override of key. The item goes
// back to unpaid with its default method.
func (s *PaymentService) Delete(ctx context.Context, key core.ItemKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	removed, err := s.store.DeletePayment(ctx, key)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	s.logger.InfoContext(ctx, "Payment deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldBillingType, string(key.Type),
		log.FieldRefID, key.RefID,
		log.FieldPeriod, key.Period.String())
	s.changed(ctx, key, amqp.ActionDeleted)
	return true, nil
}

func (s *PaymentService) changed(ctx context.Context, key core.ItemKey, action string) {
	if s.invalidator != nil {
		s.invalidator.InvalidatePeriod(key.Period)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPaymentChanged(ctx, key, action); err != nil {
		// Saved locally; the exporter catches up on its next full run.
		s.logger.ErrorContext(ctx, "Failed to publish payment change",
			log.FieldError, err,
			log.FieldBillingType, string(key.Type),
			log.FieldRefID, key.RefID,
			log.FieldPeriod, key.Period.String())
	}
}
