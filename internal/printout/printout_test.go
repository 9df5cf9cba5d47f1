package printout

import (
	"errors"
	"testing"
	"time"

	"juku/internal/billing"
	"juku/internal/core"
	"juku/internal/log"
	"juku/internal/pricing"
)

func newPrinter(t *testing.T) (*Printer, *billing.Calculator) {
	t.Helper()
	tbl, err := pricing.New(pricing.Data{
		TaxRatePercent:       10,
		FacilityFeeMonthly:   3300,
		FacilityFeeHalfMonth: 1650,
		EnrollmentFee:        22000,
		UnitPrices: map[core.Course]map[core.GradeCategory]core.Yen{
			"kobetsu_1to2": {core.CategoryJunior12: 35000},
			"group":        {core.CategoryJunior12: 18000},
		},
		LessonDiscounts: map[int]core.Yen{2: 2000, 3: 3000, 4: 5000, 5: 6000, 6: 8000, 7: 10000},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	calc := billing.NewCalculator(tbl, billing.WithLogger(log.Discard()))
	return NewPrinter(calc), calc
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestInitialHalfMonth(t *testing.T) {
	p, calc := newPrinter(t)
	ct, err := calc.NewContract(core.Contract{
		Grade:     core.J1,
		StartDate: date(2026, 4, 20),
		Courses:   []core.CourseEntry{{Course: "kobetsu_1to2", LessonsPerWeek: 2}},
	})
	if err != nil {
		t.Fatalf("contract: %v", err)
	}

	b, err := p.Initial(ct)
	if err != nil {
		t.Fatalf("initial: %v", err)
	}
	if !b.HalfMonth || b.FirstPeriod != core.NewPeriod(2026, 4) || b.SecondPeriod != core.NewPeriod(2026, 5) || b.RegularFrom != core.NewPeriod(2026, 6) {
		t.Fatalf("unexpected periods %+v", b)
	}
	if len(b.Rows) != 1 || b.Rows[0].FirstMonth != 35000 || b.Rows[0].SecondMonth != 70000 {
		t.Fatalf("unexpected rows %+v", b.Rows)
	}
	if b.Tuition != 105000 || b.Discount != 3000 || b.DiscountFactor != "1.5" {
		t.Fatalf("unexpected tuition/discount %d/%d/%s", b.Tuition, b.Discount, b.DiscountFactor)
	}
	if b.FacilityFirst != 1650 || b.FacilitySecond != 3300 || b.FacilityFee != 4950 {
		t.Fatalf("unexpected facility %d/%d", b.FacilityFirst, b.FacilitySecond)
	}
	if b.FacilityDescription != "4月分 ¥1,650 / 5月分 ¥3,300" {
		t.Fatalf("unexpected description %q", b.FacilityDescription)
	}
	if b.TaxExcluded != 102000 || b.Tax != 10200 || b.TaxIncluded != 117150 {
		t.Fatalf("unexpected totals %d/%d/%d", b.TaxExcluded, b.Tax, b.TaxIncluded)
	}
	if b.FirstPayment != 22000+117150 {
		t.Fatalf("unexpected first payment %d", b.FirstPayment)
	}
	if b.Regular.TaxIncluded != 78100 || b.Regular.TaxIncluded != ct.MonthlyAmount {
		t.Fatalf("regular block %d should equal quoted monthly %d", b.Regular.TaxIncluded, ct.MonthlyAmount)
	}
}

func TestInitialFullMonth(t *testing.T) {
	p, calc := newPrinter(t)
	ct, _ := calc.NewContract(core.Contract{
		Grade:     core.J1,
		StartDate: date(2026, 4, 1),
		Courses:   []core.CourseEntry{{Course: "kobetsu_1to2", LessonsPerWeek: 2}},
		Campaign:  core.CampaignEnrollmentFree,
	})
	b, err := p.Initial(ct)
	if err != nil {
		t.Fatalf("initial: %v", err)
	}
	if b.HalfMonth || b.DiscountFactor != "2" {
		t.Fatalf("expected full month, got %+v", b)
	}
	if b.Tuition != 140000 || b.Discount != 4000 || b.FacilityFee != 6600 {
		t.Fatalf("unexpected figures %d/%d/%d", b.Tuition, b.Discount, b.FacilityFee)
	}
	if b.TaxIncluded != 136000+13600+6600 || b.FirstPayment != b.TaxIncluded {
		t.Fatalf("unexpected totals %d/%d", b.TaxIncluded, b.FirstPayment)
	}
}

func TestInitialMatchesBilledUnitPrices(t *testing.T) {
	p, calc := newPrinter(t)
	ct, _ := calc.NewContract(core.Contract{
		Grade:     core.J2,
		StartDate: date(2026, 9, 16),
		Courses: []core.CourseEntry{
			{Course: "kobetsu_1to2", LessonsPerWeek: 3},
			{Course: "group", LessonsPerWeek: 1},
		},
	})
	b, err := p.Initial(ct)
	if err != nil {
		t.Fatalf("initial: %v", err)
	}
	first, _ := calc.ContractCharge(ct, b.FirstPeriod)
	second, _ := calc.ContractCharge(ct, b.SecondPeriod)

	var printedFirst, printedSecond core.Yen
	for _, r := range b.Rows {
		printedFirst += r.FirstMonth
		printedSecond += r.SecondMonth
	}
	if printedFirst != first.Tuition || printedSecond != second.Tuition {
		t.Fatalf("printed tuition %d/%d differs from billed %d/%d", printedFirst, printedSecond, first.Tuition, second.Tuition)
	}
	if b.FacilityFirst != first.FacilityFee || b.FacilitySecond != second.FacilityFee {
		t.Fatalf("printed facility differs from billed")
	}
	// 3000 × 1.5 for the 3-lesson entry, nothing for the 1-lesson entry
	if b.Rows[0].Discount != 4500 || b.Rows[1].Discount != 0 || b.Discount != 4500 {
		t.Fatalf("unexpected discounts %+v", b.Rows)
	}
}

func TestRenewal(t *testing.T) {
	p, _ := newPrinter(t)
	prev := core.Contract{
		ID:        1,
		Grade:     core.J1,
		StartDate: date(2026, 1, 1),
		EndDate:   date(2026, 12, 31),
		Courses:   []core.CourseEntry{{Course: "group", LessonsPerWeek: 2}},
	}
	next := core.Contract{
		ID:            2,
		PredecessorID: 1,
		Grade:         core.J2,
		StartDate:     date(2027, 1, 1),
		Courses:       []core.CourseEntry{{Course: "kobetsu_1to2", LessonsPerWeek: 2}},
	}

	b, err := p.Renewal(prev, next)
	if err != nil {
		t.Fatalf("renewal: %v", err)
	}
	if b.Before.Tuition != 36000 || b.Before.Discount != 2000 || b.Before.TaxIncluded != 40700 {
		t.Fatalf("unexpected before block %+v", b.Before)
	}
	if b.After.TaxIncluded != 78100 || b.Difference != 78100-40700 {
		t.Fatalf("unexpected after block %+v diff=%d", b.After, b.Difference)
	}
	if b.EffectivePeriod != core.NewPeriod(2027, 1) || !b.EffectiveDate.Equal(next.StartDate) {
		t.Fatalf("unexpected effective date %v", b.EffectiveDate)
	}
	if b.FirstDebit != core.NewPeriod(2026, 12) {
		t.Fatalf("first debit should roll back to December, got %s", b.FirstDebit)
	}

	next.StartDate = date(2027, 4, 1)
	b, _ = p.Renewal(prev, next)
	if b.FirstDebit != core.NewPeriod(2027, 3) {
		t.Fatalf("unexpected first debit %s", b.FirstDebit)
	}
}

func TestRenewalRejectsWrongPredecessor(t *testing.T) {
	p, _ := newPrinter(t)
	prev := core.Contract{ID: 5, Grade: core.J1, StartDate: date(2026, 1, 1), Courses: []core.CourseEntry{{Course: "group", LessonsPerWeek: 1}}}
	next := core.Contract{ID: 6, PredecessorID: 4, Grade: core.J1, StartDate: date(2027, 1, 1), Courses: []core.CourseEntry{{Course: "group", LessonsPerWeek: 1}}}
	if _, err := p.Renewal(prev, next); !errors.Is(err, ErrNotPredecessor) {
		t.Fatalf("expected ErrNotPredecessor, got %v", err)
	}
}

func TestInitialAgreesWithBilledAmounts(t *testing.T) {
	p, calc := newPrinter(t)
	for _, start := range []time.Time{date(2026, 4, 1), date(2026, 4, 20)} {
		ct, err := calc.NewContract(core.Contract{
			Grade:     core.J1,
			StartDate: start,
			Courses: []core.CourseEntry{
				{Course: "kobetsu_1to2", LessonsPerWeek: 2},
				{Course: "group", LessonsPerWeek: 3},
			},
		})
		if err != nil {
			t.Fatalf("contract: %v", err)
		}
		b, err := p.Initial(ct)
		if err != nil {
			t.Fatalf("initial: %v", err)
		}

		first, _ := calc.ContractAmount(ct, b.FirstPeriod)
		second, _ := calc.ContractAmount(ct, b.SecondPeriod)
		if first+second != b.FirstPayment {
			t.Fatalf("%s: billed %d+%d, printed first payment %d", start.Format("01-02"), first, second, b.FirstPayment)
		}
		if first+second != b.EnrollmentFee+b.TaxIncluded {
			t.Fatalf("%s: billed %d, printed two-month total %d", start.Format("01-02"), first+second, b.EnrollmentFee+b.TaxIncluded)
		}
		for _, period := range []core.Period{b.RegularFrom, b.RegularFrom.Next()} {
			got, _ := calc.ContractAmount(ct, period)
			if got != b.Regular.TaxIncluded || got != ct.MonthlyAmount {
				t.Fatalf("%s: billed %d in %s, printed regular %d, quoted %d", start.Format("01-02"), got, period, b.Regular.TaxIncluded, ct.MonthlyAmount)
			}
		}
	}
}

func TestInitialHalfMonthRowsMatchSummedTuition(t *testing.T) {
	tbl, err := pricing.New(pricing.Data{
		TaxRatePercent:       10,
		FacilityFeeMonthly:   3300,
		FacilityFeeHalfMonth: 1650,
		UnitPrices: map[core.Course]map[core.GradeCategory]core.Yen{
			"kobetsu_1to2": {core.CategoryJunior12: 35001},
			"group":        {core.CategoryJunior12: 18001},
		},
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	calc := billing.NewCalculator(tbl, billing.WithLogger(log.Discard()))
	ct := core.Contract{
		Grade:     core.J1,
		StartDate: date(2026, 4, 16),
		Courses: []core.CourseEntry{
			{Course: "kobetsu_1to2", LessonsPerWeek: 1},
			{Course: "group", LessonsPerWeek: 1},
		},
	}
	b, err := NewPrinter(calc).Initial(ct)
	if err != nil {
		t.Fatalf("initial: %v", err)
	}
	// floor(53002/2) = 26501, one more than 17500 + 9000
	if b.Rows[0].FirstMonth != 17501 || b.Rows[1].FirstMonth != 9000 {
		t.Fatalf("unexpected rows %+v", b.Rows)
	}
	var rows core.Yen
	for _, r := range b.Rows {
		rows += r.Subtotal
	}
	if rows != b.Tuition || b.Tuition != 26501+53002 {
		t.Fatalf("rows sum to %d, tuition %d", rows, b.Tuition)
	}
	first, _ := calc.ContractCharge(ct, b.FirstPeriod)
	if first.Tuition != 26501 {
		t.Fatalf("billed first month %d", first.Tuition)
	}
}
