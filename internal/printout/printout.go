// Package printout computes the figures of the two-page contract billing
// document: the initial two-month table for new enrollments and the
// before/after comparison for renewals.
//
// All arithmetic goes through billing.Calculator so printed unit prices and
// discount tiers match what is actually billed.
package printout

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"juku/internal/billing"
	"juku/internal/core"
)

var ErrNotPredecessor = errors.New("previous contract is not the predecessor")

var (
	halfMonthDiscountFactor = decimal.RequireFromString("1.5")
	fullMonthDiscountFactor = decimal.NewFromInt(2)
)

type Printer struct {
	calc *billing.Calculator
}

func NewPrinter(calc *billing.Calculator) *Printer {
	return &Printer{calc: calc}
}

// InitialRow is one course line of the initial two-month table.
type InitialRow struct {
	Course         core.Course
	LessonsPerWeek int
	UnitPrice      core.Yen
	FirstMonth     core.Yen // halved when enrollment starts on or after the 16th
	SecondMonth    core.Yen
	Subtotal       core.Yen
	Discount       core.Yen // multi-lesson discount over both months
}

// InitialBreakdown is the new-enrollment document.
type InitialBreakdown struct {
	StartDate    time.Time
	FirstPeriod  core.Period
	SecondPeriod core.Period
	HalfMonth    bool

	Rows                []InitialRow
	Tuition             core.Yen
	FacilityFirst       core.Yen
	FacilitySecond      core.Yen
	FacilityFee         core.Yen
	FacilityDescription string
	DiscountFactor      string
	Discount            core.Yen
	TaxExcluded         core.Yen
	Tax                 core.Yen
	TaxIncluded         core.Yen

	// Regular applies from RegularFrom (the third month) onward.
	RegularFrom core.Period
	Regular     billing.MonthlyBlock

	EnrollmentFee    core.Yen
	CampaignDiscount core.Yen
	FirstPayment     core.Yen // EnrollmentFee + TaxIncluded - CampaignDiscount
}

// Initial builds the new-enrollment breakdown for ct. The two-month totals
// are the sums of what ContractCharge bills for each month.
func (p *Printer) Initial(ct core.Contract) (InitialBreakdown, error) {
	if err := ct.Validate(); err != nil {
		return InitialBreakdown{}, fmt.Errorf("invalid contract: %w", err)
	}
	regular, err := p.calc.Monthly(ct.Grade, ct.Courses)
	if err != nil {
		return InitialBreakdown{}, err
	}

	b := InitialBreakdown{
		StartDate:        ct.StartDate,
		FirstPeriod:      ct.FirstPeriod(),
		HalfMonth:        ct.IsHalfMonthStart(),
		Regular:          regular,
		EnrollmentFee:    ct.EnrollmentFee,
		CampaignDiscount: ct.CampaignDiscount,
	}
	b.SecondPeriod = b.FirstPeriod.Next()
	b.RegularFrom = b.SecondPeriod.Next()

	// The document quotes two months even for a contract ending sooner.
	quote := ct
	quote.EndDate = time.Time{}
	first, err := p.calc.ContractCharge(quote, b.FirstPeriod)
	if err != nil {
		return InitialBreakdown{}, err
	}
	second, err := p.calc.ContractCharge(quote, b.SecondPeriod)
	if err != nil {
		return InitialBreakdown{}, err
	}

	factor := fullMonthDiscountFactor
	if b.HalfMonth {
		factor = halfMonthDiscountFactor
	}
	b.DiscountFactor = factor.String()
	b.FacilityFirst = first.FacilityFee
	b.FacilitySecond = second.FacilityFee
	b.FacilityFee = b.FacilityFirst + b.FacilitySecond
	b.FacilityDescription = facilityDescription(b.FirstPeriod, b.FacilityFirst, b.SecondPeriod, b.FacilitySecond)

	// Rows halve per course; the flooring remainder of the summed first
	// month goes to the first row so the rows add up to what is billed.
	var rowFirst, rowDiscount core.Yen
	for _, l := range regular.Lines {
		row := InitialRow{
			Course:         l.Course,
			LessonsPerWeek: l.LessonsPerWeek,
			UnitPrice:      l.UnitPrice,
			FirstMonth:     l.Amount,
			SecondMonth:    l.Amount,
			Discount:       scale(l.Discount, factor),
		}
		if b.HalfMonth {
			row.FirstMonth = l.Amount / 2
		}
		rowFirst += row.FirstMonth
		rowDiscount += row.Discount
		b.Rows = append(b.Rows, row)
	}
	if len(b.Rows) > 0 {
		b.Rows[0].FirstMonth += first.Tuition - rowFirst
		b.Rows[0].Discount += first.Discount + second.Discount - rowDiscount
	}
	for i := range b.Rows {
		b.Rows[i].Subtotal = b.Rows[i].FirstMonth + b.Rows[i].SecondMonth
	}

	b.Tuition = first.Tuition + second.Tuition
	b.Discount = first.Discount + second.Discount
	b.TaxExcluded = first.TaxExcluded + second.TaxExcluded
	b.Tax = first.Tax + second.Tax
	b.TaxIncluded = b.TaxExcluded + b.Tax + b.FacilityFee
	b.FirstPayment = first.Total + second.Total
	return b, nil
}

// RenewalBreakdown compares the steady-state monthly figures before and after
// a renewal.
type RenewalBreakdown struct {
	Before          billing.MonthlyBlock
	After           billing.MonthlyBlock
	Difference      core.Yen // After.TaxIncluded - Before.TaxIncluded
	EffectiveDate   time.Time
	EffectivePeriod core.Period
	// FirstDebit is the month of the first direct debit under the new
	// contract: one month before the renewal month.
	FirstDebit core.Period
}

// Renewal builds the before/after breakdown for next replacing prev.
func (p *Printer) Renewal(prev, next core.Contract) (RenewalBreakdown, error) {
	if next.PredecessorID != 0 && prev.ID != 0 && next.PredecessorID != prev.ID {
		return RenewalBreakdown{}, fmt.Errorf("%w: contract %d renews %d, got %d", ErrNotPredecessor, next.ID, next.PredecessorID, prev.ID)
	}
	if err := prev.Validate(); err != nil {
		return RenewalBreakdown{}, fmt.Errorf("invalid previous contract: %w", err)
	}
	if err := next.Validate(); err != nil {
		return RenewalBreakdown{}, fmt.Errorf("invalid renewal contract: %w", err)
	}
	before, err := p.calc.Monthly(prev.Grade, prev.Courses)
	if err != nil {
		return RenewalBreakdown{}, fmt.Errorf("previous contract: %w", err)
	}
	after, err := p.calc.Monthly(next.Grade, next.Courses)
	if err != nil {
		return RenewalBreakdown{}, fmt.Errorf("renewal contract: %w", err)
	}
	effective := next.FirstPeriod()
	return RenewalBreakdown{
		Before:          before,
		After:           after,
		Difference:      after.TaxIncluded - before.TaxIncluded,
		EffectiveDate:   next.StartDate,
		EffectivePeriod: effective,
		FirstDebit:      effective.Prev(),
	}, nil
}

func scale(amount core.Yen, factor decimal.Decimal) core.Yen {
	return core.Yen(decimal.NewFromInt(int64(amount)).Mul(factor).Floor().IntPart())
}

func facilityDescription(first core.Period, firstFee core.Yen, second core.Period, secondFee core.Yen) string {
	return fmt.Sprintf("%d月分 %s / %d月分 %s", first.Month, firstFee, second.Month, secondFee)
}
