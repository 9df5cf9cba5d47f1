// Package reconcile matches billed items against recorded payments.
//
// A payment record is only created once money is received; a method override
// only records a non-default payment method. The two are kept apart and
// composed here, so intent is never inferred from a zero amount.
package reconcile

import (
	"time"

	"juku/internal/core"
)

// Item is one billed item for one period.
type Item struct {
	Key           core.ItemKey
	StudentID     int64
	BilledAmount  core.Yen
	DefaultMethod core.PaymentMethod
}

// PaymentRecord is money received for an item.
type PaymentRecord struct {
	ID           int64
	Key          core.ItemKey
	BilledAmount core.Yen // billed figure when the payment was recorded
	PaidAmount   core.Yen
	PaymentDate  *time.Time
	Method       core.PaymentMethod // empty when the method was never set explicitly
	Followup     core.FollowupStatus
	Notes        string
}

// MethodOverride records a non-default payment method for an item.
type MethodOverride struct {
	Key    core.ItemKey
	Method core.PaymentMethod
}

// Result is the reconciled state of an item.
type Result struct {
	Item       Item
	Status     core.PaymentStatus
	Method     core.PaymentMethod
	PaidAmount core.Yen
	// Difference is paid - billed for discrepancies: positive overpaid, negative short.
	Difference core.Yen
	Record     *PaymentRecord
}

// DefaultMethod is direct debit from the student's threshold month onward and
// bank transfer before it or when no threshold is set.
func DefaultMethod(s core.Student, p core.Period) core.PaymentMethod {
	if s.DirectDebitStart == nil {
		return core.BankTransfer
	}
	if p.Before(*s.DirectDebitStart) {
		return core.BankTransfer
	}
	return core.DirectDebit
}

// EffectiveMethod picks the explicit method of the record, then the override,
// then the item's default.
func EffectiveMethod(def core.PaymentMethod, rec *PaymentRecord, ov *MethodOverride) core.PaymentMethod {
	switch {
	case rec != nil && rec.Method != "":
		return rec.Method
	case ov != nil && ov.Method != "":
		return ov.Method
	}
	return def
}

// Status applies the precedence: no record, zero paid, exact match, otherwise
// discrepancy.
func Status(billed core.Yen, rec *PaymentRecord) core.PaymentStatus {
	switch {
	case rec == nil:
		return core.StatusUnpaid
	case rec.PaidAmount == 0:
		return core.StatusUnpaid
	case rec.PaidAmount == billed:
		return core.StatusPaid
	}
	return core.StatusDiscrepancy
}

// Reconcile derives the status, effective method and difference of item.
func Reconcile(item Item, rec *PaymentRecord, ov *MethodOverride) Result {
	r := Result{
		Item:   item,
		Status: Status(item.BilledAmount, rec),
		Method: EffectiveMethod(item.DefaultMethod, rec, ov),
		Record: rec,
	}
	if rec != nil {
		r.PaidAmount = rec.PaidAmount
	}
	if r.Status == core.StatusDiscrepancy {
		r.Difference = rec.PaidAmount - item.BilledAmount
	}
	return r
}

// DifferenceLabel renders the direction of a discrepancy.
func DifferenceLabel(diff core.Yen) string {
	switch {
	case diff > 0:
		return "過入金"
	case diff < 0:
		return "不足"
	}
	return ""
}
