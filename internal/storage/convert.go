package storage

import (
	"database/sql"
	"fmt"
	"time"

	"juku/internal/core"
	"juku/internal/reconcile"
)

func ym(p core.Period) int64 {
	return int64(p.Year*100 + p.Month)
}

func firstDay(p core.Period) string {
	return fmt.Sprintf("%04d-%02d-01", p.Year, p.Month)
}

func keyParams(k core.ItemKey) ItemKeyParams {
	return ItemKeyParams{
		BillingType: string(k.Type),
		RefID:       k.RefID,
		Year:        int64(k.Period.Year),
		Month:       int64(k.Period.Month),
	}
}

func dateToNull(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func dateFromNull(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s.String)
}

func periodToNull(p *core.Period) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.String(), Valid: true}
}

func studentFromRow(s Student) (core.Student, error) {
	st := core.Student{ID: s.ID, Name: s.Name, Number: s.Number}
	if s.DirectDebitStart.Valid && s.DirectDebitStart.String != "" {
		p, err := core.ParsePeriod(s.DirectDebitStart.String)
		if err != nil {
			return st, fmt.Errorf("student %d direct debit start: %w", s.ID, err)
		}
		st.DirectDebitStart = &p
	}
	return st, nil
}

func contractToRow(ct core.Contract) Contract {
	row := Contract{
		ID:               ct.ID,
		StudentID:        ct.StudentID,
		Grade:            string(ct.Grade),
		StartDate:        ct.StartDate.Format(dateLayout),
		EndDate:          dateToNull(ct.EndDate),
		Campaign:         string(ct.Campaign),
		MonthlyAmount:    int64(ct.MonthlyAmount),
		EnrollmentFee:    int64(ct.EnrollmentFee),
		CampaignDiscount: int64(ct.CampaignDiscount),
	}
	if ct.PredecessorID != 0 {
		row.PredecessorID = sql.NullInt64{Int64: ct.PredecessorID, Valid: true}
	}
	return row
}

func contractFromRow(c Contract, courses []core.CourseEntry) (core.Contract, error) {
	start, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return core.Contract{}, fmt.Errorf("contract %d start date: %w", c.ID, err)
	}
	end, err := dateFromNull(c.EndDate)
	if err != nil {
		return core.Contract{}, fmt.Errorf("contract %d end date: %w", c.ID, err)
	}
	return core.Contract{
		ID:               c.ID,
		StudentID:        c.StudentID,
		PredecessorID:    c.PredecessorID.Int64,
		Grade:            core.Grade(c.Grade),
		StartDate:        start,
		EndDate:          end,
		Courses:          courses,
		Campaign:         core.Campaign(c.Campaign),
		MonthlyAmount:    core.Yen(c.MonthlyAmount),
		EnrollmentFee:    core.Yen(c.EnrollmentFee),
		CampaignDiscount: core.Yen(c.CampaignDiscount),
	}, nil
}

func materialFromRow(m MaterialSale) (core.MaterialSale, error) {
	sold, err := dateFromNull(m.SaleDate)
	if err != nil {
		return core.MaterialSale{}, fmt.Errorf("material sale %d date: %w", m.ID, err)
	}
	return core.MaterialSale{
		ID:        m.ID,
		StudentID: m.StudentID,
		Name:      m.Name,
		UnitPrice: core.Yen(m.UnitPrice),
		Quantity:  int(m.Quantity),
		SaleDate:  sold,
		Billing:   core.NewPeriod(int(m.BillingYear), int(m.BillingMonth)),
	}, nil
}

func recordToRow(rec reconcile.PaymentRecord) Payment {
	row := Payment{
		ID:             rec.ID,
		BillingType:    string(rec.Key.Type),
		RefID:          rec.Key.RefID,
		Year:           int64(rec.Key.Period.Year),
		Month:          int64(rec.Key.Period.Month),
		BilledAmount:   int64(rec.BilledAmount),
		PaidAmount:     int64(rec.PaidAmount),
		FollowupStatus: string(rec.Followup),
		Notes:          rec.Notes,
	}
	if row.FollowupStatus == "" {
		row.FollowupStatus = string(core.FollowupNone)
	}
	if rec.PaymentDate != nil {
		row.PaymentDate = dateToNull(*rec.PaymentDate)
	}
	if rec.Method != "" {
		row.PaymentMethod = sql.NullString{String: string(rec.Method), Valid: true}
	}
	return row
}

func recordFromRow(p Payment) (reconcile.PaymentRecord, error) {
	rec := reconcile.PaymentRecord{
		ID: p.ID,
		Key: core.ItemKey{
			Type:   core.BillingType(p.BillingType),
			RefID:  p.RefID,
			Period: core.NewPeriod(int(p.Year), int(p.Month)),
		},
		BilledAmount: core.Yen(p.BilledAmount),
		PaidAmount:   core.Yen(p.PaidAmount),
		Method:       core.PaymentMethod(p.PaymentMethod.String),
		Followup:     core.FollowupStatus(p.FollowupStatus),
		Notes:        p.Notes,
	}
	if p.PaymentDate.Valid {
		d, err := time.Parse(dateLayout, p.PaymentDate.String)
		if err != nil {
			return rec, fmt.Errorf("payment %d date: %w", p.ID, err)
		}
		rec.PaymentDate = &d
	}
	return rec, nil
}

func overrideToRow(ov reconcile.MethodOverride) MethodOverride {
	return MethodOverride{
		BillingType:   string(ov.Key.Type),
		RefID:         ov.Key.RefID,
		Year:          int64(ov.Key.Period.Year),
		Month:         int64(ov.Key.Period.Month),
		PaymentMethod: string(ov.Method),
	}
}

func overrideFromRow(o MethodOverride) reconcile.MethodOverride {
	return reconcile.MethodOverride{
		Key: core.ItemKey{
			Type:   core.BillingType(o.BillingType),
			RefID:  o.RefID,
			Period: core.NewPeriod(int(o.Year), int(o.Month)),
		},
		Method: core.PaymentMethod(o.PaymentMethod),
	}
}
